// Package shutdown turns SIGINT/SIGTERM into context cancellation for the
// demo binaries and runs registered cleanup hooks first.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	"github.com/amp-labs/amp-fsm/logger"
)

var (
	mut     sync.Mutex     //nolint:gochecknoglobals
	hooks   []func()       //nolint:gochecknoglobals
	trigger chan os.Signal //nolint:gochecknoglobals
)

// BeforeShutdown registers a function to run before the handler's context
// is canceled. Hooks run once, most recent first, like deferred calls.
func BeforeShutdown(h func()) {
	if h == nil {
		return
	}

	mut.Lock()
	defer mut.Unlock()

	hooks = append(hooks, h)
}

// Shutdown starts the shutdown process as if a signal had arrived. It does
// nothing before SetupHandler or after shutdown has begun.
func Shutdown() {
	mut.Lock()
	ch := trigger
	mut.Unlock()

	if ch == nil {
		return
	}

	select {
	case ch <- os.Interrupt:
	default:
	}
}

// SetupHandler listens for SIGINT and SIGTERM and returns a context derived
// from parent that is canceled, after the hooks ran, when one arrives.
func SetupHandler(parent context.Context) context.Context {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	mut.Lock()
	trigger = ch
	mut.Unlock()

	ctx, cancel := context.WithCancel(parent)

	go func() {
		defer cancel()

		select {
		case sig := <-ch:
			logger.Get(ctx).Warn("Received " + sig.String() + ", shutting down...")
		case <-parent.Done():
		}

		signal.Stop(ch)

		mut.Lock()
		if trigger == ch {
			trigger = nil
		}
		mut.Unlock()

		cleanup()
	}()

	return ctx
}

func cleanup() {
	mut.Lock()
	pending := hooks
	hooks = nil
	mut.Unlock()

	for _, h := range slices.Backward(pending) {
		h()
	}
}
