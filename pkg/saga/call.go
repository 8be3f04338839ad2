package saga

import (
	"context"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/errmodel"
	"github.com/wilhg/redux/pkg/middleware"
	"github.com/wilhg/redux/pkg/store"
	"github.com/wilhg/redux/pkg/stream"
)

// Call invokes fn once for every value of param and emits its result. Each
// call runs on its own goroutine; ctx is cancelled when the subscription that
// started it ends. A failing call fails the stream.
func Call[S, P, R any](param Effect[S, P], fn func(ctx context.Context, p P) (R, error)) Effect[S, R] {
	return EffectFunc[S, R](func(in Input[S]) Output[R] {
		return output(stream.FlatMap(compile(in, param), func(p P) stream.Stream[R] {
			return stream.FromFunc(func(ctx context.Context) (R, error) { return fn(ctx, p) })
		}))
	})
}

// PutOption configures Put.
type PutOption func(*putOptions)

type putOptions struct {
	exec middleware.Executor
}

// WithExecutor sets where Put performs its dispatch. The default is a new
// goroutine per action; middleware.Inline dispatches on the emitting
// goroutine.
func WithExecutor(exec middleware.Executor) PutOption {
	return func(o *putOptions) {
		if exec != nil {
			o.exec = exec
		}
	}
}

// Put builds an action from every value of param and dispatches it through
// the full pipeline. It emits the dispatch's awaitable, so a saga can wait
// until the store and every take have seen the action. A value is emitted
// only after its dispatch was issued, and values of param are dispatched one
// at a time in order, so effects chained after a Put run after it.
func Put[S, P any](param Effect[S, P], creator func(P) store.Action, opts ...PutOption) Effect[S, awaitable.Awaitable[any]] {
	cfg := putOptions{exec: middleware.Background}
	for _, opt := range opts {
		opt(&cfg)
	}
	return EffectFunc[S, awaitable.Awaitable[any]](func(in Input[S]) Output[awaitable.Awaitable[any]] {
		return output(stream.ConcatMap(compile(in, param), func(p P) stream.Stream[awaitable.Awaitable[any]] {
			action := creator(p)
			return stream.Create(func(e *stream.Emitter[awaitable.Awaitable[any]]) {
				cfg.exec(func() {
					if e.IsClosed() {
						return
					}
					if in.Dispatch == nil {
						e.Error(errmodel.Unavailable("put invoked without a dispatcher"))
						return
					}
					e.Next(in.Dispatch(action))
					e.Complete()
				})
			})
		}))
	})
}

// Await runs body on a dedicated goroutine and emits its result. Inside body,
// AwaitEffect runs sub-effects to their first value, which lets a saga be
// written as straight-line code. ctx is cancelled on disposal.
func Await[S, R any](body func(ctx context.Context, in Input[S]) (R, error)) Effect[S, R] {
	return EffectFunc[S, R](func(in Input[S]) Output[R] {
		return output(stream.FromFunc(func(ctx context.Context) (R, error) {
			return body(ctx, in)
		}))
	})
}

// AwaitEffect invokes e, waits for its first value and disposes it. A stream
// that completes without a value yields errmodel.ErrUnavailable; an expired
// ctx yields errmodel.ErrTimedOut or the context's error.
func AwaitEffect[S, R any](ctx context.Context, in Input[S], e Effect[S, R]) (R, error) {
	first, sub := stream.First(compile(in, e))
	defer sub.Unsubscribe()
	return first.AwaitContext(ctx)
}
