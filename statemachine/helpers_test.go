package statemachine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const eventTimeout = 2 * time.Second

type call struct {
	machine *Machine
	args    []any
}

// recorder is a handler that remembers each call and returns result.
type recorder struct {
	calls  chan call
	result any
	err    error
}

func newRecorder(result any, err error) *recorder {
	return &recorder{calls: make(chan call, 16), result: result, err: err}
}

func (r *recorder) handle(_ context.Context, m *Machine, args ...any) (any, error) {
	r.calls <- call{machine: m, args: args}

	return r.result, r.err
}

func (r *recorder) count() int {
	return len(r.calls)
}

func newTestMachine(t *testing.T, states map[string]Delegate, opts ...Option) *Machine {
	t.Helper()

	opts = append([]Option{WithName(t.Name())}, opts...)

	m, err := New(Config{
		Actions:      []string{"pass", "warn", "stop"},
		States:       states,
		InitialState: "RED",
	}, opts...)
	require.NoError(t, err)

	return m
}

func stateChanges(t *testing.T, m *Machine) <-chan StateChangedEvent {
	t.Helper()

	ch := make(chan StateChangedEvent, 16)
	unsubscribe := m.OnStateChanged(func(e StateChangedEvent) { ch <- e })
	t.Cleanup(unsubscribe)

	return ch
}

func awaitEvent[E any](t *testing.T, ch <-chan E) E {
	t.Helper()

	select {
	case e := <-ch:
		return e
	case <-time.After(eventTimeout):
		require.FailNow(t, "timed out waiting for event")

		var zero E

		return zero
	}
}

func assertNoEvent[E any](t *testing.T, ch <-chan E) {
	t.Helper()

	select {
	case e := <-ch:
		require.FailNow(t, "unexpected event", "%+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}
