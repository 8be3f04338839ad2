// Package awaitable wraps asynchronous results behind a blocking wait.
//
// An Awaitable is either already resolved (Just, Fail), pending (Promise, Go)
// or a Batch of children collected in input order. Waiting with a deadline
// never blocks past it: the wait returns errmodel.ErrTimedOut instead.
package awaitable

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wilhg/redux/pkg/errmodel"
)

// Awaitable is a value that can be blocked on to retrieve an eventual result.
type Awaitable[T any] interface {
	// Await blocks until the result is available.
	Await() (T, error)
	// AwaitTimeout blocks for at most d. A non-positive d waits indefinitely.
	AwaitTimeout(d time.Duration) (T, error)
	// AwaitContext blocks until the result is available or ctx is done.
	AwaitContext(ctx context.Context) (T, error)
}

// Promise is a pending result resolved exactly once.
type Promise[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// NewPromise returns an unresolved promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolve completes the promise with v. Later calls are ignored.
func (p *Promise[T]) Resolve(v T) { p.settle(v, nil) }

// Reject completes the promise with err. Later calls are ignored.
func (p *Promise[T]) Reject(err error) {
	var zero T
	p.settle(zero, err)
}

// Follow resolves p with the result of src once src completes.
func (p *Promise[T]) Follow(src Awaitable[T]) {
	if src == nil {
		p.Reject(errmodel.Unavailable("nothing to follow"))
		return
	}
	go func() {
		v, err := src.Await()
		p.settle(v, err)
	}()
}

func (p *Promise[T]) settle(v T, err error) {
	p.once.Do(func() {
		p.value, p.err = v, err
		close(p.done)
	})
}

// Done is closed once the promise is settled.
func (p *Promise[T]) Done() <-chan struct{} { return p.done }

func (p *Promise[T]) Await() (T, error) {
	<-p.done
	return p.value, p.err
}

func (p *Promise[T]) AwaitTimeout(d time.Duration) (T, error) {
	if d <= 0 {
		return p.Await()
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return p.AwaitContext(ctx)
}

func (p *Promise[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	default:
	}
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, contextErr(ctx)
	}
}

// Just returns an awaitable already resolved with v.
func Just[T any](v T) Awaitable[T] {
	p := NewPromise[T]()
	p.Resolve(v)
	return p
}

// Fail returns an awaitable already failed with err.
func Fail[T any](err error) Awaitable[T] {
	p := NewPromise[T]()
	p.Reject(err)
	return p
}

// Go runs fn on a new goroutine. A panic in fn fails the awaitable with a
// system/panic error instead of crashing the process.
func Go[T any](fn func() (T, error)) Awaitable[T] {
	p := NewPromise[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.Reject(errmodel.Panic(r))
			}
		}()
		v, err := fn()
		p.settle(v, err)
	}()
	return p
}

// Erase widens an awaitable to Awaitable[any].
func Erase[T any](a Awaitable[T]) Awaitable[any] {
	if a == nil {
		return nil
	}
	if same, ok := any(a).(Awaitable[any]); ok {
		return same
	}
	return mapped[T, any]{src: a, fn: func(v T) any { return v }}
}

// Map transforms the eventual value of a.
func Map[T, R any](a Awaitable[T], fn func(T) R) Awaitable[R] {
	return mapped[T, R]{src: a, fn: fn}
}

type mapped[T, R any] struct {
	src Awaitable[T]
	fn  func(T) R
}

func (m mapped[T, R]) wrap(v T, err error) (R, error) {
	if err != nil {
		var zero R
		return zero, err
	}
	return m.fn(v), nil
}

func (m mapped[T, R]) Await() (R, error) { return m.wrap(m.src.Await()) }

func (m mapped[T, R]) AwaitTimeout(d time.Duration) (R, error) {
	return m.wrap(m.src.AwaitTimeout(d))
}

func (m mapped[T, R]) AwaitContext(ctx context.Context) (R, error) {
	return m.wrap(m.src.AwaitContext(ctx))
}

func contextErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		deadline, _ := ctx.Deadline()
		return errmodel.TimedOut(deadline.UTC().Format(time.RFC3339Nano))
	}
	return ctx.Err()
}
