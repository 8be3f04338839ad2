package stream

import (
	"sync"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/errmodel"
	"github.com/wilhg/redux/pkg/subscription"
)

// First subscribes to src and resolves with its first value. A stream that
// completes without a value resolves with errmodel.ErrUnavailable. The
// returned subscription cancels the underlying work, e.g. after a timed-out
// wait.
func First[T any](src Stream[T]) (awaitable.Awaitable[T], *subscription.Subscription) {
	p := awaitable.NewPromise[T]()
	holder := subscription.New()
	holder.AddSubscription(src.Subscribe(Observer[T]{
		Next: func(v T) {
			p.Resolve(v)
			holder.Unsubscribe()
		},
		Error:    p.Reject,
		Complete: func() { p.Reject(errmodel.Unavailable("stream completed without a value")) },
	}))
	return p, holder
}

// ToSlice collects every value until src completes.
func ToSlice[T any](src Stream[T]) (awaitable.Awaitable[[]T], *subscription.Subscription) {
	p := awaitable.NewPromise[[]T]()
	var (
		mu  sync.Mutex
		out []T
	)
	sub := src.Subscribe(Observer[T]{
		Next: func(v T) {
			mu.Lock()
			out = append(out, v)
			mu.Unlock()
		},
		Error: p.Reject,
		Complete: func() {
			mu.Lock()
			defer mu.Unlock()
			p.Resolve(out)
		},
	})
	return p, sub
}
