// Package future provides a Future/Promise pair for values that become
// available asynchronously. A Future is the read side; its Promise is the
// write side and may be fulfilled exactly once.
package future

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/amp-labs/amp-fsm/try"
	"github.com/amp-labs/amp-fsm/utils"
	"go.uber.org/atomic"
)

// ErrCanceled is the failure stored in a future that was canceled before
// its promise was fulfilled.
var ErrCanceled = errors.New("future canceled")

// ErrNilFailure is the error stored when a promise is failed with a nil error.
var ErrNilFailure = errors.New("future failed with nil error")

// Future is the read-only side of an asynchronous computation.
type Future[T any] struct {
	once        sync.Once
	resultReady chan struct{}
	result      try.Try[T]

	mu               sync.Mutex
	successCallbacks []func(T)
	errorCallbacks   []func(error)
	resultCallbacks  []func(try.Try[T])

	promise *Promise[T]
}

// New creates an unfulfilled future together with the promise that completes it.
func New[T any](cancelFuncs ...func()) (*Future[T], *Promise[T]) {
	fut := &Future[T]{
		resultReady: make(chan struct{}),
	}

	promise := &Promise[T]{
		future:      fut,
		canceled:    atomic.NewBool(false),
		cancelFuncs: cancelFuncs,
	}

	fut.promise = promise

	return fut, promise
}

// Completed returns a future that has already succeeded with value.
func Completed[T any](value T) *Future[T] {
	fut, promise := New[T]()
	promise.Success(value)

	return fut
}

// Failed returns a future that has already failed with err, or with
// ErrNilFailure if err is nil.
func Failed[T any](err error) *Future[T] {
	fut, promise := New[T]()
	promise.Failure(err)

	return fut
}

// Go runs fn on a new goroutine and returns a future for its result.
// A panic in fn fails the future instead of crashing the process.
func Go[T any](fn func() (T, error)) *Future[T] {
	fut, promise := New[T]()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				promise.Failure(utils.GetPanicRecoveryError(r, debug.Stack()))
			}
		}()

		promise.Complete(fn())
	}()

	return fut
}

// GoContext is Go with a cancellable context. Canceling the future cancels
// the context handed to fn.
func GoContext[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	cctx, cancel := context.WithCancel(ctx)

	fut, promise := New[T](cancel)

	go func() {
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				promise.Failure(utils.GetPanicRecoveryError(r, debug.Stack()))
			}
		}()

		promise.Complete(fn(cctx))
	}()

	return fut
}

// Done returns a channel that is closed once the future has a result.
func (f *Future[T]) Done() <-chan struct{} {
	return f.resultReady
}

// IsDone reports whether the future already has a result.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.resultReady:
		return true
	default:
		return false
	}
}

// Await blocks until the future has a result.
func (f *Future[T]) Await() (T, error) { //nolint:ireturn
	<-f.resultReady

	return f.result.Get()
}

// AwaitContext blocks until the future has a result or ctx is done. The
// future itself is not canceled when ctx ends.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) { //nolint:ireturn
	select {
	case <-f.resultReady:
		return f.result.Get()
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// Cancel fails the future with ErrCanceled (unless it already completed) and
// runs the cancel functions it was created with.
func (f *Future[T]) Cancel() {
	f.promise.Failure(ErrCanceled)
	f.promise.cancel()
}

// OnSuccess registers a callback run with the value if the future succeeds.
func (f *Future[T]) OnSuccess(callback func(T)) {
	f.register(func() {
		f.successCallbacks = append(f.successCallbacks, callback)
	}, func() {
		if f.result.IsSuccess() {
			invokeCallback("OnSuccess", callback, f.result.Value)
		}
	})
}

// OnError registers a callback run with the error if the future fails.
func (f *Future[T]) OnError(callback func(error)) {
	f.register(func() {
		f.errorCallbacks = append(f.errorCallbacks, callback)
	}, func() {
		if f.result.IsFailure() {
			invokeCallback("OnError", callback, f.result.Error)
		}
	})
}

// OnResult registers a callback run with the outcome, success or failure.
func (f *Future[T]) OnResult(callback func(try.Try[T])) {
	f.register(func() {
		f.resultCallbacks = append(f.resultCallbacks, callback)
	}, func() {
		invokeCallback("OnResult", callback, f.result)
	})
}

// register queues a callback while the future is pending, or fires it
// straight away when the result is already in. Both paths hold mu so a
// callback is never lost between the check and fulfilment.
func (f *Future[T]) register(queue func(), fire func()) {
	f.mu.Lock()

	if !f.IsDone() {
		queue()
		f.mu.Unlock()

		return
	}

	f.mu.Unlock()
	fire()
}
