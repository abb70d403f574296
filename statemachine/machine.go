// Package statemachine is a small action-dispatching state machine. A Machine
// holds the name of its current state, a fixed set of action names and a
// Delegate per state. Invoking an action routes it to the current state's
// handler, which may move the machine to another state with SetState.
// Subscribers are notified of every action call and of every completed
// transition.
package statemachine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/amp-labs/amp-fsm/logger"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

const defaultMachineName = "statemachine"

// ActionFunc is a callable bound to one action name.
type ActionFunc func(ctx context.Context, args ...any) (any, error)

// Machine is a running state machine. Create one with New.
type Machine struct {
	id   uuid.UUID
	name string

	// Read-only after New.
	states    map[string]Delegate
	actions   []string
	actionSet map[string]struct{}
	dispatch  map[string]ActionFunc

	lockDuringTransition bool
	logger               Logger

	initialState string

	mu            sync.RWMutex
	current       string
	previous      string
	hasPrevious   bool
	transitioning *atomic.Bool

	actionCalls  *subscriptions[ActionCallEvent]
	stateChanges *subscriptions[StateChangedEvent]
}

// Option customizes a Machine at construction.
type Option func(*Machine)

// WithName sets the name used in logs, metrics and spans.
func WithName(name string) Option {
	return func(m *Machine) {
		if name != "" {
			m.name = name
		}
	}
}

// WithLogger replaces the default slog-backed Logger.
func WithLogger(l Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithLockDuringTransition makes SetState raise the transitioning flag until
// the completion signal resolves, so actions and further SetState calls are
// ignored in that window. It is off by default: the flag is then only ever
// lowered, never raised.
func WithLockDuringTransition(lock bool) Option {
	return func(m *Machine) {
		m.lockDuringTransition = lock
	}
}

// New validates cfg and builds a Machine in cfg.InitialState.
func New(cfg Config, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		id:            uuid.New(),
		name:          defaultMachineName,
		states:        maps.Clone(cfg.States),
		actionSet:     make(map[string]struct{}, len(cfg.Actions)),
		initialState:  cfg.InitialState,
		logger:        NewDefaultLogger(),
		current:       cfg.InitialState,
		transitioning: atomic.NewBool(false),
		actionCalls:   &subscriptions[ActionCallEvent]{},
		stateChanges:  &subscriptions[StateChangedEvent]{},
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initActions(cfg.Actions, cfg.Overrides)

	logger.Get(m.logContext(context.Background())).Debug("state machine created",
		"initial_state", m.current,
		"actions", m.actions,
		"states", len(m.states))

	return m, nil
}

// initActions builds the dispatch table. Host overrides are installed first
// and are never replaced by a generated proxy.
func (m *Machine) initActions(actions []string, overrides map[string]ActionFunc) {
	m.dispatch = make(map[string]ActionFunc, len(actions)+len(overrides))

	for name, fn := range overrides {
		if fn != nil {
			m.dispatch[name] = fn
		}
	}

	for _, action := range actions {
		if _, seen := m.actionSet[action]; seen {
			continue
		}

		m.actionSet[action] = struct{}{}
		m.actions = append(m.actions, action)

		if _, exists := m.dispatch[action]; !exists {
			m.dispatch[action] = m.proxy(action)
		}
	}
}

func (m *Machine) proxy(action string) ActionFunc {
	return func(ctx context.Context, args ...any) (any, error) {
		return m.Invoke(ctx, action, args...)
	}
}

// ID returns the unique id assigned to this machine at construction.
func (m *Machine) ID() uuid.UUID {
	return m.id
}

// Name returns the machine name given with WithName.
func (m *Machine) Name() string {
	return m.name
}

// State returns the name of the current state.
func (m *Machine) State() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.current
}

// InitialState returns the state the machine was created in.
func (m *Machine) InitialState() string {
	return m.initialState
}

// PreviousState returns the state the machine was in before the last
// transition. The bool is false if the machine never transitioned.
func (m *Machine) PreviousState() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.previous, m.hasPrevious
}

// IsTransitioning reports whether a transition is holding the machine.
func (m *Machine) IsTransitioning() bool {
	return m.transitioning.Load()
}

// Actions returns the configured action names in order.
func (m *Machine) Actions() []string {
	return slices.Clone(m.actions)
}

// States returns the configured state names, unordered.
func (m *Machine) States() []string {
	return slices.Collect(maps.Keys(m.states))
}

// Delegate returns the delegate registered for state.
func (m *Machine) Delegate(state string) (Delegate, bool) {
	d, ok := m.states[state]

	return d, ok && d != nil
}

// HasState reports whether state is configured with a delegate.
func (m *Machine) HasState(state string) bool {
	_, ok := m.Delegate(state)

	return ok
}

func (m *Machine) String() string {
	return fmt.Sprintf("StateMachine { Name = %s, State = %s }", m.name, m.State())
}

// logContext decorates ctx so every log line carries the machine identity.
func (m *Machine) logContext(ctx context.Context) context.Context {
	return logger.With(ctx, "machine", m.name, "machine_id", m.id.String())
}
