package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))

		out = append(out, entry)
	}

	return out
}

func TestLogger(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem: "test",
		JSON:      true,
		MinLevel:  slog.LevelDebug,
		Output:    &buf,
	})

	t.Cleanup(func() {
		ConfigureLoggingWithOptions(Options{Subsystem: "", MinLevel: slog.LevelInfo})
	})

	Get().Info("default subsystem")

	ctx := WithSubsystem(t.Context(), "overridden")
	Get(ctx).Info("overridden subsystem")

	ctx = With(ctx, "machine", "traffic-light")
	ctx = With(ctx, "state", "RED")
	Get(ctx).Info("with values")

	Get(WithMuted(ctx, true)).Error("never printed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "test", lines[0]["subsystem"])
	assert.Equal(t, "overridden", lines[1]["subsystem"])
	assert.Equal(t, "traffic-light", lines[2]["machine"])
	assert.Equal(t, "RED", lines[2]["state"])
}

func TestWith_NoValuesReturnsSameContext(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	assert.Equal(t, ctx, With(ctx))
}

//nolint:paralleltest // t.Setenv is incompatible with t.Parallel
func TestConfigureLogging_FromEnv(t *testing.T) {
	t.Setenv("LOG_JSON", "true")
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer

	ConfigureLogging(t.Context(), "env-test", WithOutput(&buf))

	t.Cleanup(func() {
		ConfigureLoggingWithOptions(Options{Subsystem: "", MinLevel: slog.LevelInfo})
	})

	Get().Info("filtered out")
	Get().Warn("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
	assert.Equal(t, "env-test", lines[0]["subsystem"])
}

func TestExtraHandlers(t *testing.T) { //nolint:paralleltest
	var primary, extra bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		JSON:     true,
		MinLevel: slog.LevelInfo,
		Output:   &primary,
		Handlers: []slog.Handler{
			slog.NewJSONHandler(&extra, &slog.HandlerOptions{Level: slog.LevelWarn}),
		},
	})

	t.Cleanup(func() {
		ConfigureLoggingWithOptions(Options{Subsystem: "", MinLevel: slog.LevelInfo})
	})

	Get().With("machine", "door").Info("info only")
	Get().WithGroup("transition").Warn("both", "to", "open")

	primaryLines := decodeLines(t, &primary)
	extraLines := decodeLines(t, &extra)

	require.Len(t, primaryLines, 2)
	require.Len(t, extraLines, 1)

	assert.Equal(t, "door", primaryLines[0]["machine"])
	assert.Equal(t, "both", extraLines[0]["msg"])
	assert.Equal(t, map[string]any{"to": "open"}, extraLines[0]["transition"])
}

func TestWithHandlerOption(t *testing.T) {
	t.Parallel()

	var opts Options

	WithHandler(nil)(&opts)
	assert.Empty(t, opts.Handlers)

	WithHandler(slog.NewTextHandler(&bytes.Buffer{}, nil))(&opts)
	assert.Len(t, opts.Handlers, 1)
}

func TestValues(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Values(nil)) //nolint:staticcheck

	ctx := With(t.Context(), "a", 1)
	ctx = With(ctx, "b", 2)

	vals := Values(ctx)
	assert.Equal(t, []any{"a", 1, "b", 2}, vals)

	vals[0] = "mutated"
	assert.Equal(t, []any{"a", 1, "b", 2}, Values(ctx))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("collector unreachable") //nolint:err113
}

func TestExtraHandlerFailure(t *testing.T) { //nolint:paralleltest
	var primary bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		JSON:     true,
		MinLevel: slog.LevelInfo,
		Output:   &primary,
		Handlers: []slog.Handler{slog.NewJSONHandler(failingWriter{}, nil)},
	})

	t.Cleanup(func() {
		ConfigureLoggingWithOptions(Options{Subsystem: "", MinLevel: slog.LevelInfo})
	})

	Get().Info("still logged")

	lines := decodeLines(t, &primary)
	require.Len(t, lines, 1)
	assert.Equal(t, "still logged", lines[0]["msg"])
}
