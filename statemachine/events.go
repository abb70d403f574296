package statemachine

import (
	"fmt"
	"slices"
	"sync"
)

// Event names, as carried by Event.Name.
const (
	EventActionCall   = "actioncall"
	EventStateChanged = "statechanged"
)

// Event is a notification emitted by a Machine.
type Event interface {
	Name() string
}

// ActionCallEvent is emitted for every dispatch, whether or not a handler ran.
type ActionCallEvent struct {
	Machine *Machine
	Action  string
	// State is the state the dispatch was resolved against.
	State  string
	Result any
	// Handled is false when the dispatch was ignored.
	Handled bool
	Err     error
}

func (ActionCallEvent) Name() string { return EventActionCall }

// StateChangedEvent is emitted once the completion signal of a transition
// resolves. State and Previous are read at that moment, so a transition
// started in between is reflected.
type StateChangedEvent struct {
	Machine  *Machine
	State    string
	Previous string
}

func (StateChangedEvent) Name() string { return EventStateChanged }

type subscription[E any] struct {
	id uint64
	fn func(E)
}

// subscriptions is an ordered list of handlers for one event type.
type subscriptions[E any] struct {
	mu      sync.Mutex
	nextID  uint64
	entries []subscription[E]
}

func (s *subscriptions[E]) register(fn func(E)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.entries = append(s.entries, subscription[E]{id: id, fn: fn})

	var once sync.Once

	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			s.entries = slices.DeleteFunc(s.entries, func(sub subscription[E]) bool {
				return sub.id == id
			})
		})
	}
}

// emit calls every handler registered at the time of the call, in order,
// with no lock held.
func (s *subscriptions[E]) emit(event E) {
	s.mu.Lock()
	entries := slices.Clone(s.entries)
	s.mu.Unlock()

	for _, sub := range entries {
		sub.fn(event)
	}
}

func (s *subscriptions[E]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
}

func (s *subscriptions[E]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// OnActionCall subscribes fn to every dispatch. Handlers run synchronously
// inside Invoke, before it returns. The returned func unsubscribes.
func (m *Machine) OnActionCall(fn func(ActionCallEvent)) func() {
	if fn == nil {
		return func() {}
	}

	return m.actionCalls.register(fn)
}

// OnStateChanged subscribes fn to completed transitions. Handlers run on the
// goroutine that resolved the completion signal. The returned func
// unsubscribes.
func (m *Machine) OnStateChanged(fn func(StateChangedEvent)) func() {
	if fn == nil {
		return func() {}
	}

	return m.stateChanges.register(fn)
}

// On subscribes fn to the event with the given name, EventActionCall or
// EventStateChanged.
func (m *Machine) On(name string, fn func(Event)) (func(), error) {
	if fn == nil {
		return func() {}, nil
	}

	switch name {
	case EventActionCall:
		return m.OnActionCall(func(e ActionCallEvent) { fn(e) }), nil
	case EventStateChanged:
		return m.OnStateChanged(func(e StateChangedEvent) { fn(e) }), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
}

// UnregisterAll drops every subscriber of every event.
func (m *Machine) UnregisterAll() {
	m.actionCalls.clear()
	m.stateChanges.clear()
}

// ListenerCount returns the number of subscribers for an event name.
func (m *Machine) ListenerCount(name string) int {
	switch name {
	case EventActionCall:
		return m.actionCalls.count()
	case EventStateChanged:
		return m.stateChanges.count()
	default:
		return 0
	}
}
