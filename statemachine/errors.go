package statemachine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingConfig indicates that a required configuration property is absent.
	ErrMissingConfig = errors.New("missing configuration")
	// ErrInitialStateNotFound indicates that the initial state has no delegate.
	ErrInitialStateNotFound = errors.New("initial state does not exist")
	// ErrInvalidState indicates a transition to a state that is not configured.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnknownEvent indicates a subscription to an event name that is never emitted.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrNoDefinitionLoader indicates that a definition was requested by name
	// but no loader is registered.
	ErrNoDefinitionLoader = errors.New("no definition loader registered; use SetDefinitionLoader() or provide a file path")
)

// ConfigurationError reports a configuration that cannot build a Machine.
// Missing names every absent required property.
type ConfigurationError struct {
	Missing []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("statemachine configuration: %v", e.Err)
	}

	return fmt.Sprintf("statemachine configuration: %v: %s", e.Err, strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// InvalidStateError is returned by SetState for a state that is not configured.
type InvalidStateError struct {
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%v: %q", ErrInvalidState, e.State)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}
