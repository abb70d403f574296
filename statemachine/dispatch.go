package statemachine

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Dispatch outcomes, used as metric labels and span attributes.
const (
	outcomeHandled = "handled"
	outcomeIgnored = "ignored"
	outcomeError   = "error"
)

// unknownActionLabel replaces unconfigured action names in metric labels.
const unknownActionLabel = "unknown"

// Action returns the callable for an action name. Host overrides from
// Config.Overrides win over generated proxies. An unknown name still gets a
// proxy; invoking it is a silent no-op.
func (m *Machine) Action(name string) ActionFunc {
	if fn, ok := m.dispatch[name]; ok {
		return fn
	}

	return m.proxy(name)
}

// Invoke dispatches action to the current state's delegate.
//
// The call is honored only when the machine is not transitioning, action is
// configured, the current state has a delegate and that delegate handles
// action. The handler then receives the machine followed by args and its
// result and error are returned untouched. Otherwise Invoke returns
// (nil, nil). Either way an ActionCallEvent is emitted before returning.
func (m *Machine) Invoke(ctx context.Context, action string, args ...any) (any, error) {
	state := m.State()

	ctx, span := startInvokeSpan(ctx, m, state, action)
	defer span.End()

	handler, ok := m.resolve(state, action)

	var (
		result any
		err    error
	)

	if ok {
		result, err = handler(ctx, m, args...)
	}

	outcome := outcomeIgnored

	switch {
	case err != nil:
		outcome = outcomeError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case ok:
		outcome = outcomeHandled

		span.SetStatus(codes.Ok, outcome)
	}

	span.SetAttributes(attribute.String("outcome", outcome))

	actionCallsTotal.WithLabelValues(sanitizeName(m.name), state, m.actionLabel(action), outcome).Inc()

	m.logger.ActionCalled(m.logContext(ctx), action, state, ok, err)

	m.actionCalls.emit(ActionCallEvent{
		Machine: m,
		Action:  action,
		State:   state,
		Result:  result,
		Handled: ok,
		Err:     err,
	})

	return result, err
}

// actionLabel keeps the action label set bounded to the configured names.
func (m *Machine) actionLabel(action string) string {
	if _, configured := m.actionSet[action]; configured {
		return action
	}

	return unknownActionLabel
}

// resolve applies the validity predicate for a dispatch.
func (m *Machine) resolve(state, action string) (Handler, bool) {
	if m.transitioning.Load() {
		return nil, false
	}

	if _, configured := m.actionSet[action]; !configured {
		return nil, false
	}

	delegate, ok := m.Delegate(state)
	if !ok {
		return nil, false
	}

	handler, ok := delegate.Handler(action)
	if !ok || handler == nil {
		return nil, false
	}

	return handler, true
}
