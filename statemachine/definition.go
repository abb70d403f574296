package statemachine

import (
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefinitionLoader loads definitions by name.
// Applications can implement this to provide embedded or custom loading.
type DefinitionLoader interface {
	LoadByName(name string) ([]byte, error)
	ListAvailable() []string
}

var (
	// defaultDefinitionLoader is used by LoadDefinition for bare names.
	defaultDefinitionLoader   DefinitionLoader //nolint:gochecknoglobals
	defaultDefinitionLoaderMu sync.RWMutex     //nolint:gochecknoglobals
)

// SetDefinitionLoader sets the loader used for name-based loading.
func SetDefinitionLoader(loader DefinitionLoader) {
	defaultDefinitionLoaderMu.Lock()
	defer defaultDefinitionLoaderMu.Unlock()

	defaultDefinitionLoader = loader
}

func getDefinitionLoader() DefinitionLoader { //nolint:ireturn
	defaultDefinitionLoaderMu.RLock()
	defer defaultDefinitionLoaderMu.RUnlock()

	return defaultDefinitionLoader
}

// Definition is the declarative shape of a machine: its names, without the
// delegates that implement it. Bind turns it into a Config.
type Definition struct {
	Name         string   `json:"name"             yaml:"name"`
	Actions      []string `json:"actions"          yaml:"actions"`
	InitialState string   `json:"initialState"     yaml:"initialState"`
	States       []string `json:"states"           yaml:"states"`

	// AllowEmptyStates binds states without a supplied delegate to Empty
	// instead of failing.
	AllowEmptyStates bool `json:"allowEmptyStates" yaml:"allowEmptyStates"`
}

// LoadDefinition loads a definition by path or name.
// Supports two modes:
//   - Path mode: a value containing '/', '\', or ending in '.yaml'/'.yml' is
//     read from the filesystem. Example: LoadDefinition("testdata/trafficlight.yaml")
//   - Name mode: a bare name is resolved through the registered DefinitionLoader.
//     Example: LoadDefinition("trafficlight")
func LoadDefinition(pathOrName string) (*Definition, error) {
	lower := strings.ToLower(pathOrName)
	isPath := strings.Contains(pathOrName, "/") ||
		strings.Contains(pathOrName, `\`) ||
		strings.HasSuffix(lower, ".yaml") ||
		strings.HasSuffix(lower, ".yml")

	if isPath {
		data, err := os.ReadFile(pathOrName) //nolint:gosec // Intentional path-based loading
		if err != nil {
			return nil, fmt.Errorf("failed to read definition file %q: %w", pathOrName, err)
		}

		return LoadDefinitionFromBytes(data)
	}

	loader := getDefinitionLoader()
	if loader == nil {
		return nil, ErrNoDefinitionLoader
	}

	data, err := loader.LoadByName(pathOrName)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition %q (available: %v): %w",
			pathOrName, loader.ListAvailable(), err)
	}

	return LoadDefinitionFromBytes(data)
}

// LoadDefinitionFromBytes parses and validates a YAML definition.
func LoadDefinitionFromBytes(data []byte) (*Definition, error) {
	var def Definition

	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &def, nil
}

// LoadDefinitionFromFS loads a definition from a filesystem such as embed.FS.
func LoadDefinitionFromFS(fsys fs.FS, path string) (*Definition, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition from FS: %w", err)
	}

	return LoadDefinitionFromBytes(data)
}

// Validate checks that every required property is present and that the
// initial state is one of the declared states.
func (d *Definition) Validate() error {
	var missing []string

	if len(d.Actions) == 0 {
		missing = append(missing, "actions")
	}

	if len(d.States) == 0 {
		missing = append(missing, "states")
	}

	if d.InitialState == "" {
		missing = append(missing, "initialState")
	}

	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing, Err: ErrMissingConfig}
	}

	if !slices.Contains(d.States, d.InitialState) {
		return &ConfigurationError{Err: fmt.Errorf("%w: %q", ErrInitialStateNotFound, d.InitialState)}
	}

	return nil
}

// Bind pairs every declared state with its delegate and returns the Config
// to pass to New. Delegates for undeclared states are ignored.
func (d *Definition) Bind(delegates map[string]Delegate) (Config, error) {
	if err := d.Validate(); err != nil {
		return Config{}, err
	}

	states := make(map[string]Delegate, len(d.States))

	var unbound []string

	for _, name := range d.States {
		delegate, ok := delegates[name]

		switch {
		case ok && delegate != nil:
			states[name] = delegate
		case d.AllowEmptyStates:
			states[name] = Empty
		default:
			unbound = append(unbound, name)
		}
	}

	if len(unbound) > 0 {
		return Config{}, &ConfigurationError{
			Missing: unbound,
			Err:     fmt.Errorf("%w: no delegate for states", ErrMissingConfig),
		}
	}

	return Config{
		Actions:      slices.Clone(d.Actions),
		States:       states,
		InitialState: d.InitialState,
	}, nil
}

// New binds the definition and builds a Machine named after it.
func (d *Definition) New(delegates map[string]Delegate, opts ...Option) (*Machine, error) {
	cfg, err := d.Bind(delegates)
	if err != nil {
		return nil, err
	}

	if d.Name != "" {
		opts = append([]Option{WithName(d.Name)}, opts...)
	}

	return New(cfg, opts...)
}
