// Package stream implements the push-based streams that saga effects compile
// into.
//
// A Stream emits zero or more values followed by at most one terminal event
// (error or completion). Subscribing returns a subscription handle; closing
// it stops delivery and tears down upstream work such as timers, goroutines
// and monitor registrations.
//
// Every subscriber gets its own Emitter. The Emitter serializes emissions
// coming from several goroutines, queues re-entrant emissions made from
// inside an observer callback, and drops anything after the first terminal
// event or after disposal. Observers therefore see a well-formed sequence
// without holding locks of their own. Observers must not panic.
package stream

import (
	"context"
	"sync"

	"github.com/wilhg/redux/pkg/errmodel"
	"github.com/wilhg/redux/pkg/subscription"
)

// Observer receives stream events. Nil callbacks are skipped.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

// Stream is a lazily started, push-based sequence.
type Stream[T any] interface {
	Subscribe(o Observer[T]) *subscription.Subscription
}

// Func adapts a producer to Stream. The producer runs once per subscriber.
type Func[T any] func(e *Emitter[T])

func (f Func[T]) Subscribe(o Observer[T]) *subscription.Subscription {
	e := newEmitter(o)
	f(e)
	return e.sub
}

// Create returns a stream backed by producer.
func Create[T any](producer func(e *Emitter[T])) Stream[T] { return Func[T](producer) }

type eventKind uint8

const (
	kindNext eventKind = iota
	kindError
	kindComplete
)

type event[T any] struct {
	kind  eventKind
	value T
	err   error
}

// Emitter delivers events to one observer.
type Emitter[T any] struct {
	obs Observer[T]
	sub *subscription.Subscription

	mu       sync.Mutex
	queue    []event[T]
	emitting bool
	stopped  bool // a terminal event was accepted
	disposed bool
}

func newEmitter[T any](o Observer[T]) *Emitter[T] {
	e := &Emitter[T]{obs: o}
	e.sub = subscription.New(e.dispose)
	return e
}

func (e *Emitter[T]) dispose() {
	e.mu.Lock()
	e.disposed = true
	e.queue = nil
	e.mu.Unlock()
}

// Next emits a value.
func (e *Emitter[T]) Next(v T) { e.push(event[T]{kind: kindNext, value: v}) }

// Error emits a terminal failure.
func (e *Emitter[T]) Error(err error) { e.push(event[T]{kind: kindError, err: err}) }

// Complete emits terminal completion.
func (e *Emitter[T]) Complete() { e.push(event[T]{kind: kindComplete}) }

// Add registers a teardown run when the subscription ends.
func (e *Emitter[T]) Add(fn func()) { e.sub.Add(fn) }

// AddSubscription closes child when the subscription ends.
func (e *Emitter[T]) AddSubscription(child *subscription.Subscription) { e.sub.AddSubscription(child) }

// IsClosed reports whether further events would be dropped.
func (e *Emitter[T]) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped || e.disposed
}

// Subscription returns the handle given to the subscriber.
func (e *Emitter[T]) Subscription() *subscription.Subscription { return e.sub }

func (e *Emitter[T]) push(ev event[T]) { e.pushIf(ev, nil) }

// nextIf emits v only if keep reports true. keep runs under the emitter's
// lock, so the decision and the hand-off to the queue are one step.
func (e *Emitter[T]) nextIf(v T, keep func() bool) {
	e.pushIf(event[T]{kind: kindNext, value: v}, keep)
}

func (e *Emitter[T]) errorIf(err error, keep func() bool) {
	e.pushIf(event[T]{kind: kindError, err: err}, keep)
}

func (e *Emitter[T]) pushIf(ev event[T], keep func() bool) {
	e.mu.Lock()
	if e.stopped || e.disposed || (keep != nil && !keep()) {
		e.mu.Unlock()
		return
	}
	if ev.kind != kindNext {
		e.stopped = true
	}
	e.queue = append(e.queue, ev)
	if e.emitting {
		// The goroutine currently draining will deliver it.
		e.mu.Unlock()
		return
	}
	e.emitting = true
	for len(e.queue) > 0 && !e.disposed {
		next := e.queue[0]
		e.queue[0] = event[T]{}
		e.queue = e.queue[1:]
		e.mu.Unlock()
		e.deliver(next)
		e.mu.Lock()
	}
	e.queue = nil
	e.emitting = false
	e.mu.Unlock()
}

func (e *Emitter[T]) deliver(ev event[T]) {
	switch ev.kind {
	case kindNext:
		if e.obs.Next != nil {
			e.obs.Next(ev.value)
		}
	case kindError:
		if e.obs.Error != nil {
			e.obs.Error(ev.err)
		}
		e.sub.Unsubscribe()
	case kindComplete:
		if e.obs.Complete != nil {
			e.obs.Complete()
		}
		e.sub.Unsubscribe()
	}
}

// Of emits values in order and completes.
func Of[T any](values ...T) Stream[T] {
	return Create(func(e *Emitter[T]) {
		for _, v := range values {
			if e.IsClosed() {
				return
			}
			e.Next(v)
		}
		e.Complete()
	})
}

// Empty completes immediately.
func Empty[T any]() Stream[T] {
	return Create(func(e *Emitter[T]) { e.Complete() })
}

// Fail errors immediately.
func Fail[T any](err error) Stream[T] {
	return Create(func(e *Emitter[T]) { e.Error(err) })
}

// Never emits nothing and never terminates.
func Never[T any]() Stream[T] {
	return Create(func(*Emitter[T]) {})
}

// FromFunc runs fn on a new goroutine and emits its result. The context
// passed to fn is cancelled when the subscription ends. A panic in fn is
// reported as a system/panic error.
func FromFunc[T any](fn func(ctx context.Context) (T, error)) Stream[T] {
	return Create(func(e *Emitter[T]) {
		ctx, cancel := context.WithCancel(context.Background())
		e.Add(cancel)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					e.Error(errmodel.Panic(r))
				}
			}()
			v, err := fn(ctx)
			if err != nil {
				e.Error(err)
				return
			}
			e.Next(v)
			e.Complete()
		}()
	})
}

// forward returns an observer that relays events to e, mapping values with fn.
func forward[T, R any](e *Emitter[R], fn func(T)) Observer[T] {
	return Observer[T]{Next: fn, Error: e.Error, Complete: e.Complete}
}
