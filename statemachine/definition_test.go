package statemachine

import (
	"errors"
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("not found")

type mapLoader map[string]string

func (l mapLoader) LoadByName(name string) ([]byte, error) {
	data, ok := l[name]
	if !ok {
		return nil, errNotFound
	}

	return []byte(data), nil
}

func (l mapLoader) ListAvailable() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}

	return names
}

func TestLoadDefinitionFromFile(t *testing.T) {
	t.Parallel()

	def, err := LoadDefinition("testdata/trafficlight.yaml")
	require.NoError(t, err)

	assert.Equal(t, &Definition{
		Name:         "trafficlight",
		Actions:      []string{"pass", "warn", "stop"},
		InitialState: "RED",
		States:       []string{"RED", "GREEN", "ORANGE"},
	}, def)
}

func TestLoadDefinitionMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadDefinition("testdata/nope.yaml")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDefinitionFromBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "invalid yaml",
			yaml:    "actions: [pass",
			wantErr: nil,
		},
		{
			name:    "missing everything",
			yaml:    "name: empty\n",
			wantErr: ErrMissingConfig,
		},
		{
			name:    "initial state not declared",
			yaml:    "actions: [go]\nstates: [A]\ninitialState: B\n",
			wantErr: ErrInitialStateNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadDefinitionFromBytes([]byte(tt.yaml))
			require.Error(t, err)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefinitionFromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"defs/door.yaml": &fstest.MapFile{Data: []byte(
			"name: door\nactions: [open, close]\ninitialState: closed\nstates: [open, closed]\nallowEmptyStates: true\n",
		)},
	}

	def, err := LoadDefinitionFromFS(fsys, "defs/door.yaml")
	require.NoError(t, err)
	assert.Equal(t, "door", def.Name)
	assert.True(t, def.AllowEmptyStates)

	_, err = LoadDefinitionFromFS(fsys, "defs/window.yaml")
	require.Error(t, err)
}

//nolint:paralleltest // Test replaces the global definition loader
func TestLoadDefinitionByName(t *testing.T) {
	t.Cleanup(func() { SetDefinitionLoader(nil) })

	SetDefinitionLoader(nil)

	_, err := LoadDefinition("door")
	require.ErrorIs(t, err, ErrNoDefinitionLoader)

	SetDefinitionLoader(mapLoader{
		"door": "actions: [open]\ninitialState: closed\nstates: [closed, open]\n",
	})

	def, err := LoadDefinition("door")
	require.NoError(t, err)
	assert.Equal(t, "closed", def.InitialState)

	_, err = LoadDefinition("window")
	require.ErrorIs(t, err, errNotFound)
	assert.Contains(t, err.Error(), "door")
}

func TestDefinitionBind(t *testing.T) {
	t.Parallel()

	def, err := LoadDefinition("testdata/trafficlight.yaml")
	require.NoError(t, err)

	red := Handlers{"pass": newRecorder(nil, nil).handle}

	_, err = def.Bind(map[string]Delegate{"RED": red})

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.ErrorIs(t, err, ErrMissingConfig)
	assert.Equal(t, []string{"GREEN", "ORANGE"}, cfgErr.Missing)

	def.AllowEmptyStates = true

	cfg, err := def.Bind(map[string]Delegate{"RED": red, "BLUE": Empty})
	require.NoError(t, err)

	assert.Equal(t, []string{"pass", "warn", "stop"}, cfg.Actions)
	assert.Equal(t, "RED", cfg.InitialState)
	assert.Len(t, cfg.States, 3)
	assert.NotContains(t, cfg.States, "BLUE")
	assert.Equal(t, Empty, cfg.States["GREEN"])
}

func TestDefinitionNew(t *testing.T) {
	t.Parallel()

	def, err := LoadDefinition("testdata/trafficlight.yaml")
	require.NoError(t, err)

	def.AllowEmptyStates = true

	m, err := def.New(nil)
	require.NoError(t, err)

	assert.Equal(t, "trafficlight", m.Name())
	assert.Equal(t, "RED", m.State())
	assert.ElementsMatch(t, []string{"RED", "GREEN", "ORANGE"}, m.States())

	m, err = def.New(nil, WithName("override"))
	require.NoError(t, err)
	assert.Equal(t, "override", m.Name())
}
