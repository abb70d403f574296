// Package tests provides helpers that carry test metadata (test name, unique
// ID) through context.Context, so log lines and machine names produced during
// a test can be correlated with it.
//
// Example usage:
//
//	func TestMyFeature(t *testing.T) {
//	    ctx := tests.GetUniqueContext(t)
//
//	    info, ok := tests.GetTestInfo(ctx)
//	    if ok {
//	        fmt.Printf("Running test: %s with ID: %s\n", info.Name, info.Id)
//	    }
//	}
package tests

import (
	"context"
	"testing"

	"github.com/amp-labs/amp-fsm/envutil"
	"github.com/amp-labs/amp-fsm/logger"
	"github.com/google/uuid"
)

// contextKey is a private type used for storing test metadata in context.Context.
type contextKey string

const (
	// testIdKey holds a UUID prefixed with "test-".
	testIdKey contextKey = "testId"

	// testNameKey holds testing.T.Name(), including any subtest path.
	testNameKey contextKey = "testName"

	testTestKey contextKey = "testTest"
)

// TestInfo is the metadata stored by GetUniqueContext.
type TestInfo struct {
	Id   string //nolint:revive,stylecheck
	Name string
}

// GetUniqueContext creates a context derived from t.Context() that carries a
// unique test identifier and the test name. Both are also attached to the
// logger values, so logger.Get(ctx) tags every line with them.
func GetUniqueContext(t *testing.T) context.Context {
	t.Helper()

	id := "test-" + uuid.New().String()

	ctx := context.WithValue(t.Context(), testTestKey, t)
	ctx = context.WithValue(ctx, testIdKey, id)
	ctx = context.WithValue(ctx, testNameKey, t.Name())

	return logger.With(ctx, "test_id", id, "test_name", t.Name())
}

// CheckSkipped skips the test when the boolean environment variable envKey
// is true. defaultValue[0] is used when the variable is unset and
// defaultValue[1], when true, inverts the check.
//
// Example:
//
//	func TestSlowIntegration(t *testing.T) {
//	    tests.CheckSkipped(t, "SKIP_SLOW_TESTS", true)
//	}
func CheckSkipped(t *testing.T, envKey string, defaultValue ...bool) {
	t.Helper()

	defl := false
	invert := false

	if len(defaultValue) > 0 {
		defl = defaultValue[0]
	}

	if len(defaultValue) > 1 {
		invert = defaultValue[1]
	}

	shouldSkip := envutil.Bool(envKey, envutil.Default(defl)).ValueOrElse(defl)

	original := shouldSkip

	if invert {
		shouldSkip = !shouldSkip
	}

	if shouldSkip {
		t.Skipf("Skipping test because of environment variable: %s=%v",
			envKey, original)
	}
}

// GetTestName retrieves the test name from the context.
func GetTestName(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(testNameKey).(string)

	return name, ok
}

// GetTestId retrieves the unique test identifier from the context.
func GetTestId(ctx context.Context) (string, bool) { //nolint:revive,stylecheck
	id, ok := ctx.Value(testIdKey).(string)

	return id, ok
}

// GetTestTest retrieves the testing.T stored by GetUniqueContext.
func GetTestTest(ctx context.Context) (*testing.T, bool) {
	t, ok := ctx.Value(testTestKey).(*testing.T)

	return t, ok
}

// GetTestInfo returns the test name and id together. ok is false unless
// both are present.
func GetTestInfo(ctx context.Context) (TestInfo, bool) {
	name, nameOk := GetTestName(ctx)
	id, idOk := GetTestId(ctx)

	if !nameOk || !idOk {
		return TestInfo{}, false
	}

	return TestInfo{Id: id, Name: name}, true
}
