package stream

import (
	"sync"

	"github.com/wilhg/redux/pkg/subscription"
)

// Map transforms every value.
func Map[T, R any](src Stream[T], fn func(T) R) Stream[R] {
	return Create(func(e *Emitter[R]) {
		e.AddSubscription(src.Subscribe(forward(e, func(v T) { e.Next(fn(v)) })))
	})
}

// Filter drops values for which keep returns false. It never terminates the
// stream on its own.
func Filter[T any](src Stream[T], keep func(T) bool) Stream[T] {
	return Create(func(e *Emitter[T]) {
		e.AddSubscription(src.Subscribe(forward(e, func(v T) {
			if keep(v) {
				e.Next(v)
			}
		})))
	})
}

// MapFilter transforms values and drops those for which fn reports false.
func MapFilter[T, R any](src Stream[T], fn func(T) (R, bool)) Stream[R] {
	return Create(func(e *Emitter[R]) {
		e.AddSubscription(src.Subscribe(forward(e, func(v T) {
			if r, ok := fn(v); ok {
				e.Next(r)
			}
		})))
	})
}

// Do calls fn for every value before passing it on.
func Do[T any](src Stream[T], fn func(T)) Stream[T] {
	return Map(src, func(v T) T {
		fn(v)
		return v
	})
}

// group tracks live inner subscriptions of a flattening operator.
type group struct {
	mu     sync.Mutex
	closed bool
	subs   map[*subscription.Subscription]struct{}
}

func newGroup() *group {
	return &group{subs: make(map[*subscription.Subscription]struct{})}
}

func (g *group) add(s *subscription.Subscription) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		s.Unsubscribe()
		return
	}
	g.subs[s] = struct{}{}
	g.mu.Unlock()
}

func (g *group) remove(s *subscription.Subscription) {
	g.mu.Lock()
	delete(g.subs, s)
	g.mu.Unlock()
}

func (g *group) close() {
	g.mu.Lock()
	g.closed = true
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()
	for s := range subs {
		s.Unsubscribe()
	}
}

// FlatMap subscribes to fn(v) for every upstream value and merges all inner
// streams. It completes once upstream and every inner stream have completed;
// the first error from any of them terminates the result.
func FlatMap[T, R any](src Stream[T], fn func(T) Stream[R]) Stream[R] {
	return Create(func(e *Emitter[R]) {
		var (
			mu     sync.Mutex
			active = 1 // upstream counts as one
		)
		release := func() {
			mu.Lock()
			active--
			done := active == 0
			mu.Unlock()
			if done {
				e.Complete()
			}
		}
		inners := newGroup()
		e.Add(inners.close)
		e.AddSubscription(src.Subscribe(Observer[T]{
			Next: func(v T) {
				inner := fn(v)
				if inner == nil {
					return
				}
				mu.Lock()
				active++
				mu.Unlock()
				holder := subscription.New()
				inners.add(holder)
				holder.AddSubscription(inner.Subscribe(Observer[R]{
					Next:  e.Next,
					Error: e.Error,
					Complete: func() {
						inners.remove(holder)
						release()
					},
				}))
			},
			Error:    e.Error,
			Complete: release,
		}))
	})
}

// SwitchMap subscribes to fn(v) for every upstream value and cancels the
// previous inner subscription as soon as a new value arrives. Values from a
// superseded inner stream are never emitted.
func SwitchMap[T, R any](src Stream[T], fn func(T) Stream[R]) Stream[R] {
	return Create(func(e *Emitter[R]) {
		var (
			mu           sync.Mutex
			gen          uint64
			innerActive  bool
			upstreamDone bool
			current      subscription.Serial
		)
		isCurrent := func(g uint64) bool {
			mu.Lock()
			defer mu.Unlock()
			return g == gen
		}
		e.Add(current.Unsubscribe)
		e.AddSubscription(src.Subscribe(Observer[T]{
			Next: func(v T) {
				inner := fn(v)
				mu.Lock()
				gen++
				my := gen
				innerActive = inner != nil
				mu.Unlock()
				holder := subscription.New()
				current.Set(holder)
				if inner == nil {
					return
				}
				live := func() bool { return isCurrent(my) }
				holder.AddSubscription(inner.Subscribe(Observer[R]{
					Next:  func(r R) { e.nextIf(r, live) },
					Error: func(err error) { e.errorIf(err, live) },
					Complete: func() {
						mu.Lock()
						if my != gen {
							mu.Unlock()
							return
						}
						innerActive = false
						done := upstreamDone
						mu.Unlock()
						if done {
							e.Complete()
						}
					},
				}))
			},
			Error: e.Error,
			Complete: func() {
				mu.Lock()
				upstreamDone = true
				done := !innerActive
				mu.Unlock()
				if done {
					e.Complete()
				}
			},
		}))
	})
}

// Catch replaces an upstream failure with the stream returned by fn. A nil
// fallback lets the error through.
func Catch[T any](src Stream[T], fn func(error) Stream[T]) Stream[T] {
	return Create(func(e *Emitter[T]) {
		var fallback subscription.Serial
		e.Add(fallback.Unsubscribe)
		e.AddSubscription(src.Subscribe(Observer[T]{
			Next:     e.Next,
			Complete: e.Complete,
			Error: func(err error) {
				next := fn(err)
				if next == nil {
					e.Error(err)
					return
				}
				holder := subscription.New()
				fallback.Set(holder)
				holder.AddSubscription(next.Subscribe(Observer[T]{Next: e.Next, Error: e.Error, Complete: e.Complete}))
			},
		}))
	})
}

// Concat subscribes to each stream only after the previous one completed.
func Concat[T any](streams ...Stream[T]) Stream[T] {
	return Create(func(e *Emitter[T]) {
		var current subscription.Serial
		e.Add(current.Unsubscribe)
		var subscribeAt func(i int)
		subscribeAt = func(i int) {
			if i >= len(streams) {
				e.Complete()
				return
			}
			if e.IsClosed() {
				return
			}
			holder := subscription.New()
			current.Set(holder)
			holder.AddSubscription(streams[i].Subscribe(Observer[T]{
				Next:     e.Next,
				Error:    e.Error,
				Complete: func() { subscribeAt(i + 1) },
			}))
		}
		subscribeAt(0)
	})
}

// ConcatMap subscribes to fn(v) for every upstream value, one inner stream at
// a time and in upstream order. Values arriving while an inner stream runs
// wait for it to complete.
func ConcatMap[T, R any](src Stream[T], fn func(T) Stream[R]) Stream[R] {
	return Create(func(e *Emitter[R]) {
		var (
			mu           sync.Mutex
			pending      []T
			running      bool
			upstreamDone bool
			current      subscription.Serial
		)
		e.Add(current.Unsubscribe)
		var next func()
		next = func() {
			mu.Lock()
			if len(pending) == 0 {
				running = false
				done := upstreamDone
				mu.Unlock()
				if done {
					e.Complete()
				}
				return
			}
			v := pending[0]
			pending = pending[1:]
			mu.Unlock()
			if e.IsClosed() {
				return
			}
			inner := fn(v)
			if inner == nil {
				next()
				return
			}
			holder := subscription.New()
			current.Set(holder)
			holder.AddSubscription(inner.Subscribe(Observer[R]{
				Next:     e.Next,
				Error:    e.Error,
				Complete: next,
			}))
		}
		e.AddSubscription(src.Subscribe(Observer[T]{
			Next: func(v T) {
				mu.Lock()
				pending = append(pending, v)
				start := !running
				running = true
				mu.Unlock()
				if start {
					next()
				}
			},
			Error: e.Error,
			Complete: func() {
				mu.Lock()
				upstreamDone = true
				idle := !running
				mu.Unlock()
				if idle {
					e.Complete()
				}
			},
		}))
	})
}

// Merge subscribes to every stream at once and completes when all have.
func Merge[T any](streams ...Stream[T]) Stream[T] {
	return FlatMap(Of(streams...), func(s Stream[T]) Stream[T] { return s })
}
