// Package saga describes side effects as trees of composable effects.
//
// An Effect is an immutable description. Nothing happens until it is invoked
// with an Input (state accessor, dispatcher, monitor), which compiles the tree
// into a stream. Subscribing to that stream starts the work; closing the
// subscription cancels it, including calls in flight and take registrations.
//
// Example usage:
//
//	search := saga.TakeLatest(
//		saga.OfType[QueryChanged](),
//		func(q QueryChanged) saga.Effect[State, []string] {
//			return saga.CatchError(
//				saga.Call(saga.Just[State](q.Text), lookup),
//				func(error) saga.Effect[State, []string] { return saga.Just[State, []string](nil) },
//			)
//		},
//		saga.DefaultTakeOptions().WithDebounce(300*time.Millisecond),
//	)
//	sagas := saga.New([]saga.Effect[State, any]{saga.Erase(search)})
//	s := middleware.Apply(sagas.Middleware())(store.New(State{}, reduce))
package saga

import (
	"fmt"
	"log/slog"

	"github.com/wilhg/redux/pkg/errmodel"
	"github.com/wilhg/redux/pkg/store"
	"github.com/wilhg/redux/pkg/stream"
	"github.com/wilhg/redux/pkg/subscription"
)

// Input is the runtime an effect is compiled against.
type Input[S any] struct {
	// LastState reads the current store state.
	LastState func() S
	// Dispatch sends an action through the full middleware pipeline.
	Dispatch store.Dispatcher
	// Monitor fans every dispatched action out to live take effects.
	Monitor *Monitor
	// IDs allocates monitor registration IDs.
	IDs *subscription.Generator
	// Logger receives effect diagnostics.
	Logger *slog.Logger
}

// Output is a compiled effect.
type Output[R any] struct {
	// Stream produces the effect's values once subscribed.
	Stream stream.Stream[R]
	// OnAction, when set, receives every dispatched action while Stream is
	// subscribed. Effects that do not react to actions leave it nil.
	OnAction func(store.Action)
}

// Effect is a lazily compiled description of asynchronous work.
type Effect[S, R any] interface {
	Invoke(in Input[S]) Output[R]
}

// EffectFunc adapts a function to Effect.
type EffectFunc[S, R any] func(in Input[S]) Output[R]

func (f EffectFunc[S, R]) Invoke(in Input[S]) Output[R] { return f(in) }

// Unimplemented is the base effect. Embed it in custom effect types: if the
// embedding type does not define its own Invoke, invoking it yields a stream
// that fails immediately with errmodel.ErrUnimplemented instead of silently
// doing nothing.
type Unimplemented[S, R any] struct{}

func (Unimplemented[S, R]) Invoke(Input[S]) Output[R] {
	var zero R
	return output(stream.Fail[R](errmodel.Unimplemented(fmt.Sprintf("%T", zero))))
}

func output[R any](s stream.Stream[R]) Output[R] {
	return Output[R]{Stream: s}
}

// compile invokes e and returns its stream with e's action hook registered
// with the monitor.
func compile[S, R any](in Input[S], e Effect[S, R]) stream.Stream[R] {
	return Watch(in, e.Invoke(in)).Stream
}

// Just emits v once and completes.
func Just[S, R any](v R) Effect[S, R] {
	return EffectFunc[S, R](func(Input[S]) Output[R] {
		return output(stream.Of(v))
	})
}

// Fail errors immediately with err.
func Fail[S, R any](err error) Effect[S, R] {
	return EffectFunc[S, R](func(Input[S]) Output[R] {
		return output(stream.Fail[R](err))
	})
}

// Empty completes without emitting.
func Empty[S, R any]() Effect[S, R] {
	return EffectFunc[S, R](func(Input[S]) Output[R] {
		return output(stream.Empty[R]())
	})
}

// Select emits selector applied to the state current at subscription time.
func Select[S, R any](selector func(S) R) Effect[S, R] {
	return EffectFunc[S, R](func(in Input[S]) Output[R] {
		return output(stream.Create(func(e *stream.Emitter[R]) {
			e.Next(selector(in.LastState()))
			e.Complete()
		}))
	})
}

// Erase widens an effect's result to any so heterogeneous effects can be
// registered together.
func Erase[S, R any](e Effect[S, R]) Effect[S, any] {
	return Map(e, func(v R) any { return v })
}
