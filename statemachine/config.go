package statemachine

import (
	"fmt"

	amperrors "github.com/amp-labs/amp-fsm/errors"
)

// Config is everything needed to build a Machine.
type Config struct {
	// Actions is the ordered set of action names. Duplicates collapse onto
	// their first occurrence.
	Actions []string
	// States maps each state name to the delegate handling its actions.
	States map[string]Delegate
	// InitialState must be a key of States.
	InitialState string
	// Overrides are host-supplied action callables. An action named here
	// keeps its override instead of a generated proxy.
	Overrides map[string]ActionFunc
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var missing []string

	if len(c.Actions) == 0 {
		missing = append(missing, "actions")
	}

	if c.States == nil {
		missing = append(missing, "states")
	}

	if c.InitialState == "" {
		missing = append(missing, "initialState")
	}

	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing, Err: ErrMissingConfig}
	}

	var errs amperrors.Collection

	if d, ok := c.States[c.InitialState]; !ok || d == nil {
		errs.Add(fmt.Errorf("%w: %q", ErrInitialStateNotFound, c.InitialState))
	}

	for i, action := range c.Actions {
		if action == "" {
			errs.Add(fmt.Errorf("%w: action %d has no name", ErrMissingConfig, i))
		}
	}

	if errs.HasError() {
		return &ConfigurationError{Err: errs.GetError()}
	}

	return nil
}
