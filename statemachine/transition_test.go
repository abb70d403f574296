package statemachine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amp-labs/amp-fsm/future"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSignal = errors.New("animation aborted")

func lightStates() map[string]Delegate {
	return map[string]Delegate{"RED": Empty, "GREEN": Empty, "ORANGE": Empty}
}

func TestSetStateUpdatesSynchronously(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, lightStates())
	changes := stateChanges(t, m)

	signal, promise := future.New[struct{}]()
	require.NoError(t, m.SetState(t.Context(), "GREEN", signal))

	assert.Equal(t, "GREEN", m.State())

	prev, ok := m.PreviousState()
	require.True(t, ok)
	assert.Equal(t, "RED", prev)

	// The flag is never raised without WithLockDuringTransition.
	assert.False(t, m.IsTransitioning())

	assertNoEvent(t, changes)

	promise.Success(struct{}{})

	event := awaitEvent(t, changes)
	assert.Same(t, m, event.Machine)
	assert.Equal(t, "GREEN", event.State)
	assert.Equal(t, "RED", event.Previous)
	assert.Equal(t, EventStateChanged, event.Name())

	assert.InDelta(t, 1.0,
		testutil.ToFloat64(transitionsTotal.WithLabelValues(m.Name(), "RED", "GREEN")), 1e-9)
}

func TestSetStateNilSignal(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, lightStates())
	changes := stateChanges(t, m)

	require.NoError(t, m.SetState(t.Context(), "ORANGE", nil))

	event := awaitEvent(t, changes)
	assert.Equal(t, "ORANGE", event.State)
	assert.Equal(t, "RED", event.Previous)
}

func TestSetStateDone(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, lightStates())
	changes := stateChanges(t, m)

	require.NoError(t, m.SetState(t.Context(), "GREEN", Done()))
	awaitEvent(t, changes)
}

func TestSetStateInvalid(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, lightStates())
	changes := stateChanges(t, m)

	err := m.SetState(t.Context(), "BLUE", nil)
	require.ErrorIs(t, err, ErrInvalidState)

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "BLUE", stateErr.State)

	assert.Equal(t, "RED", m.State())

	_, ok := m.PreviousState()
	assert.False(t, ok)
	assertNoEvent(t, changes)
}

func TestSetStateSameState(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, lightStates())
	changes := stateChanges(t, m)

	require.NoError(t, m.SetState(t.Context(), "RED", nil))

	event := awaitEvent(t, changes)
	assert.Equal(t, "RED", event.State)
	assert.Equal(t, "RED", event.Previous)
}

func TestSetStateFailedSignal(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, lightStates())
	changes := stateChanges(t, m)

	require.NoError(t, m.SetState(t.Context(), "GREEN", future.Failed[struct{}](errSignal)))

	assertNoEvent(t, changes)
	assert.Equal(t, "GREEN", m.State())

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(transitionFailuresTotal.WithLabelValues(m.Name(), "GREEN")) == 1
	}, eventTimeout, 10*time.Millisecond)
}

func TestSetStateNilFailureIsAFailure(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, lightStates())
	changes := stateChanges(t, m)

	require.NoError(t, m.SetState(t.Context(), "ORANGE", future.Failed[struct{}](nil)))

	assertNoEvent(t, changes)
	assert.Equal(t, "ORANGE", m.State())

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(transitionFailuresTotal.WithLabelValues(m.Name(), "ORANGE")) == 1
	}, eventTimeout, 10*time.Millisecond)
}

func TestSetStateIgnoredWhileLocked(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, lightStates(), WithLockDuringTransition(true))
	changes := stateChanges(t, m)

	signal, promise := future.New[struct{}]()
	require.NoError(t, m.SetState(t.Context(), "GREEN", signal))
	require.True(t, m.IsTransitioning())

	require.NoError(t, m.SetState(t.Context(), "ORANGE", nil))
	assert.Equal(t, "GREEN", m.State())

	// Validation still runs first.
	require.ErrorIs(t, m.SetState(t.Context(), "BLUE", nil), ErrInvalidState)

	promise.Success(struct{}{})

	event := awaitEvent(t, changes)
	assert.Equal(t, "GREEN", event.State)
	assert.Equal(t, "RED", event.Previous)
	assert.False(t, m.IsTransitioning())

	assertNoEvent(t, changes)
}

func TestSetStateFailedSignalKeepsLock(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, lightStates(), WithLockDuringTransition(true))

	signal, promise := future.New[struct{}]()
	require.NoError(t, m.SetState(t.Context(), "GREEN", signal))

	promise.Failure(errSignal)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(transitionFailuresTotal.WithLabelValues(m.Name(), "GREEN")) == 1
	}, eventTimeout, 10*time.Millisecond)

	assert.True(t, m.IsTransitioning())
}

func TestStateChangedReadsStateAtResolution(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, lightStates())
	changes := stateChanges(t, m)

	slow, promise := future.New[struct{}]()
	require.NoError(t, m.SetState(t.Context(), "GREEN", slow))
	require.NoError(t, m.SetState(t.Context(), "ORANGE", nil))

	event := awaitEvent(t, changes)
	assert.Equal(t, "ORANGE", event.State)
	assert.Equal(t, "GREEN", event.Previous)

	promise.Success(struct{}{})

	event = awaitEvent(t, changes)
	assert.Equal(t, "ORANGE", event.State)
	assert.Equal(t, "GREEN", event.Previous)
}

func TestSetStateOutlivesCallerContext(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, lightStates())
	changes := stateChanges(t, m)

	ctx, cancel := context.WithCancel(t.Context())
	signal, promise := future.New[struct{}]()
	require.NoError(t, m.SetState(ctx, "GREEN", signal))
	cancel()

	promise.Success(struct{}{})
	awaitEvent(t, changes)
}
