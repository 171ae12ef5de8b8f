// Package async runs a single blocking call in the background and exposes
// its settlement as a Future.
package async

import (
	"context"
	"errors"
)

// ErrNilFunc is returned by Await when the Future was created without a function.
var ErrNilFunc = errors.New("async: nil function")

// Future is the pending result of a call started with Go.
type Future[T any] struct {
	result T
	err    error
	done   chan struct{}
}

// Go starts fn in its own goroutine. The goroutine exits early if ctx is
// already canceled when it starts.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if fn == nil {
			f.err = ErrNilFunc
			return
		}
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}

		f.result, f.err = fn(ctx)
	}()

	return f
}

// Resolved returns an already settled Future.
func Resolved[T any](v T, err error) *Future[T] {
	f := &Future[T]{result: v, err: err, done: make(chan struct{})}
	close(f.done)
	return f
}

// Await blocks until the call settles.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext blocks until the call settles or ctx is done, whichever comes
// first. The background call keeps running after ctx is done.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed once the call settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports whether the call has settled without blocking.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
