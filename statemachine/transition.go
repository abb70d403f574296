package statemachine

import (
	"context"
	"time"

	"github.com/amp-labs/amp-fsm/future"
	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/try"
	"go.opentelemetry.io/otel/codes"
)

// Done is an already-resolved completion signal.
func Done() *future.Future[struct{}] {
	return future.Completed(struct{}{})
}

// SetState moves the machine to newState. It is the only way state changes.
//
// newState must be a configured state, otherwise an *InvalidStateError is
// returned and nothing changes. While the machine is transitioning the call
// is silently ignored. Otherwise the current state becomes the previous one
// and newState becomes current right away; the StateChangedEvent is emitted
// once signal resolves successfully. A nil signal counts as already
// resolved, but the event is still delivered asynchronously, after SetState
// has returned.
//
// If signal fails, no event is emitted and the failure is logged. A signal
// that never resolves means the event never fires.
func (m *Machine) SetState(ctx context.Context, newState string, signal *future.Future[struct{}]) error {
	if !m.HasState(newState) {
		return &InvalidStateError{State: newState}
	}

	if signal == nil {
		signal = Done()
	}

	m.mu.Lock()

	if m.transitioning.Load() {
		from := m.current
		m.mu.Unlock()

		m.logger.TransitionIgnored(m.logContext(ctx), from, newState)

		return nil
	}

	from := m.current
	m.previous = from
	m.hasPrevious = true
	m.current = newState

	if m.lockDuringTransition {
		m.transitioning.Store(true)
	}

	m.mu.Unlock()

	// The continuation outlives the caller's request, but keeps its values.
	bgCtx := m.logContext(context.WithoutCancel(ctx))

	_, span := startTransitionSpan(bgCtx, m, from, newState)
	start := time.Now()

	m.logger.TransitionStarted(bgCtx, from, newState)

	signal.OnResult(func(res try.Try[struct{}]) {
		defer span.End()

		elapsed := time.Since(start)

		if res.IsFailure() {
			span.RecordError(res.Error)
			span.SetStatus(codes.Error, res.Error.Error())

			transitionFailuresTotal.WithLabelValues(sanitizeName(m.name), newState).Inc()
			transitionDuration.WithLabelValues(sanitizeName(m.name), outcomeError).Observe(elapsed.Seconds())

			m.logger.TransitionFailed(bgCtx, from, newState,
				logger.AnnotateError(res.Error, "elapsed_ms", elapsed.Milliseconds()))

			return
		}

		m.completeTransition(bgCtx, from, newState, elapsed)
		span.SetStatus(codes.Ok, "completed")
	})

	return nil
}

func (m *Machine) completeTransition(ctx context.Context, from, to string, elapsed time.Duration) {
	m.transitioning.Store(false)

	m.mu.RLock()
	current, previous := m.current, m.previous
	m.mu.RUnlock()

	transitionsTotal.WithLabelValues(sanitizeName(m.name), from, to).Inc()
	transitionDuration.WithLabelValues(sanitizeName(m.name), outcomeSuccess).Observe(elapsed.Seconds())

	m.logger.TransitionCompleted(ctx, previous, current, elapsed)

	m.stateChanges.emit(StateChangedEvent{
		Machine:  m,
		State:    current,
		Previous: previous,
	})
}
