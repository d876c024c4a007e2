// Package future provides a single-assignment result container used to hand
// asynchronous send results back to callers.
package future

import (
	"context"
	"fmt"
	"sync"
)

// Future holds a value of type T that becomes available exactly once.
// The first call to Complete or Fail wins; later calls are ignored.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// New creates a pending future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed returns a future already holding value.
func Completed[T any](value T) *Future[T] {
	f := New[T]()
	f.Complete(value)
	return f
}

// Failed returns a future already holding err.
func Failed[T any](err error) *Future[T] {
	f := New[T]()
	f.Fail(err)
	return f
}

// Complete resolves the future with value. It reports whether this call won.
func (f *Future[T]) Complete(value T) bool {
	won := false
	f.once.Do(func() {
		f.value = value
		close(f.done)
		won = true
	})
	return won
}

// Fail resolves the future with err. It reports whether this call won.
func (f *Future[T]) Fail(err error) bool {
	won := false
	f.once.Do(func() {
		f.err = err
		close(f.done)
		won = true
	})
	return won
}

// Resolve completes or fails the future depending on err.
func (f *Future[T]) Resolve(value T, err error) bool {
	if err != nil {
		return f.Fail(err)
	}
	return f.Complete(value)
}

// Done is closed once the future holds a value or an error.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future has been resolved.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future resolves or ctx is done. Giving up on ctx does
// not cancel the underlying work.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Join blocks until the future resolves.
func (f *Future[T]) Join() (T, error) {
	<-f.done
	return f.value, f.err
}

// Then maps the value of src through fn once src completes successfully.
// A panic in fn fails the returned future.
func Then[T, U any](src *Future[T], fn func(T) (U, error)) *Future[U] {
	dst := New[U]()
	go func() {
		value, err := src.Join()
		if err != nil {
			dst.Fail(err)
			return
		}
		defer recoverInto(dst)
		dst.Resolve(fn(value))
	}()
	return dst
}

// Compose chains an asynchronous step after src.
func Compose[T, U any](src *Future[T], fn func(T) *Future[U]) *Future[U] {
	dst := New[U]()
	go func() {
		value, err := src.Join()
		if err != nil {
			dst.Fail(err)
			return
		}
		defer recoverInto(dst)
		dst.Resolve(fn(value).Join())
	}()
	return dst
}

// Forward resolves dst with the outcome of src.
func Forward[T any](src, dst *Future[T]) {
	go func() {
		dst.Resolve(src.Join())
	}()
}

func recoverInto[U any](dst *Future[U]) {
	if r := recover(); r != nil {
		dst.Fail(fmt.Errorf("panic in continuation: %v", r))
	}
}
