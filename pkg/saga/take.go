package saga

import (
	"sync"
	"time"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/errmodel"
	"github.com/wilhg/redux/pkg/store"
	"github.com/wilhg/redux/pkg/stream"
	"github.com/wilhg/redux/pkg/subscription"
)

// TakeOptions tunes take effects.
type TakeOptions struct {
	// Debounce, when positive, lets a burst of matching actions spawn only
	// once, after the burst has been quiet for this long.
	Debounce time.Duration
}

// DefaultTakeOptions spawns on every match.
func DefaultTakeOptions() TakeOptions { return TakeOptions{} }

// WithDebounce returns a copy of o with the debounce window set to d.
func (o TakeOptions) WithDebounce(d time.Duration) TakeOptions {
	o.Debounce = d
	return o
}

// OfType matches actions of concrete type A and passes them through as the
// parameter.
func OfType[A store.Action]() func(store.Action) (A, bool) {
	return func(action store.Action) (A, bool) {
		v, ok := action.(A)
		return v, ok
	}
}

// TakeEvery spawns creator(p) for every matching action and merges the
// results of all spawned effects.
func TakeEvery[S, P, R any](extract func(store.Action) (P, bool), creator func(P) Effect[S, R], opts TakeOptions) Effect[S, R] {
	return takeEffect(extract, creator, opts, stream.FlatMap[P, R])
}

// TakeLatest spawns creator(p) for every matching action, cancelling the
// previously spawned effect.
func TakeLatest[S, P, R any](extract func(store.Action) (P, bool), creator func(P) Effect[S, R], opts TakeOptions) Effect[S, R] {
	return takeEffect(extract, creator, opts, stream.SwitchMap[P, R])
}

type flattener[P, R any] func(stream.Stream[P], func(P) stream.Stream[R]) stream.Stream[R]

func takeEffect[S, P, R any](extract func(store.Action) (P, bool), creator func(P) Effect[S, R], opts TakeOptions, flatten flattener[P, R]) Effect[S, R] {
	return EffectFunc[S, R](func(in Input[S]) Output[R] {
		actions := stream.NewSubject[store.Action]()
		params := stream.MapFilter[store.Action, P](actions, extract)
		if opts.Debounce > 0 {
			params = stream.Debounce(params, opts.Debounce)
		}
		return Watch(in, Output[R]{Stream: flatten(params, spawn(in, creator)), OnAction: actions.Next})
	})
}

// Watch registers out.OnAction with in.Monitor while out.Stream has at least
// one subscriber; the registration is removed synchronously when the last
// subscription ends. An output without OnAction, or one already watched, is
// returned unchanged. Subscribing fails with errmodel.ErrUnavailable when in
// carries no monitor or id generator.
func Watch[S, R any](in Input[S], out Output[R]) Output[R] {
	if out.OnAction == nil {
		return out
	}
	if _, ok := out.Stream.(*watched[R]); ok {
		return out
	}
	return Output[R]{
		Stream:   &watched[R]{src: out.Stream, onAction: out.OnAction, monitor: in.Monitor, ids: in.IDs},
		OnAction: out.OnAction,
	}
}

type watched[R any] struct {
	src      stream.Stream[R]
	onAction func(store.Action)
	monitor  *Monitor
	ids      *subscription.Generator

	mu   sync.Mutex
	refs int
	id   subscription.ID
}

func (w *watched[R]) Subscribe(o stream.Observer[R]) *subscription.Subscription {
	if w.monitor == nil || w.ids == nil {
		return stream.Fail[R](errmodel.Unavailable("take effect invoked without a saga monitor")).Subscribe(o)
	}
	w.mu.Lock()
	if w.refs == 0 {
		w.id = w.ids.Next()
		w.monitor.AddDispatcher(w.id, w.dispatch)
	}
	w.refs++
	w.mu.Unlock()
	sub := w.src.Subscribe(o)
	sub.Add(w.release)
	return sub
}

func (w *watched[R]) dispatch(action store.Action) awaitable.Awaitable[any] {
	w.onAction(action)
	return awaitable.Just[any](nil)
}

func (w *watched[R]) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.refs--
	if w.refs == 0 {
		w.monitor.RemoveDispatcher(w.id)
	}
}
