package future

import (
	"github.com/amp-labs/amp-fsm/try"
	"go.uber.org/atomic"
)

// Promise is the write side of a Future. Only the first of Success,
// Failure or Complete takes effect; later calls are ignored. All methods
// are safe to call from any goroutine.
type Promise[T any] struct {
	future      *Future[T]
	canceled    *atomic.Bool
	cancelFuncs []func()
}

// IsCancelled returns true once the associated future has been canceled.
func (p *Promise[T]) IsCancelled() bool {
	return p.canceled.Load()
}

func (p *Promise[T]) cancel() {
	if p.canceled.CompareAndSwap(false, true) {
		for _, cancel := range p.cancelFuncs {
			cancel()
		}
	}
}

// fulfill stores the result, wakes every waiter and dispatches the queued
// callbacks. Callbacks are collected under mu so none registered
// concurrently can be dropped.
func (p *Promise[T]) fulfill(result try.Try[T]) {
	p.future.once.Do(func() {
		p.future.result = result

		p.future.mu.Lock()

		close(p.future.resultReady)

		successCallbacks := p.future.successCallbacks
		errorCallbacks := p.future.errorCallbacks
		resultCallbacks := p.future.resultCallbacks

		p.future.successCallbacks = nil
		p.future.errorCallbacks = nil
		p.future.resultCallbacks = nil

		p.future.mu.Unlock()

		for _, callback := range resultCallbacks {
			invokeCallback("OnResult", callback, result)
		}

		if result.Error == nil {
			for _, callback := range successCallbacks {
				invokeCallback("OnSuccess", callback, result.Value)
			}
		} else {
			for _, callback := range errorCallbacks {
				invokeCallback("OnError", callback, result.Error)
			}
		}
	})
}

// Success fulfills the promise with a value.
func (p *Promise[T]) Success(value T) {
	p.fulfill(try.Try[T]{Value: value})
}

// Failure fulfills the promise with an error. A nil err is replaced by
// ErrNilFailure so the future still fails.
func (p *Promise[T]) Failure(err error) {
	if err == nil {
		err = ErrNilFailure
	}

	p.fulfill(try.Of(*new(T), err))
}

// Complete fulfills the promise from a Go-style (value, error) pair.
func (p *Promise[T]) Complete(value T, err error) {
	if err != nil {
		p.Failure(err)
	} else {
		p.Success(value)
	}
}
