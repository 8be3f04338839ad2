package store

import (
	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/subscription"
)

// Delegate is a Store whose Dispatch is replaced by a wrapping dispatcher
// while LastState and Subscribe pass through to the base store.
type Delegate[S any] struct {
	base     Store[S]
	dispatch Dispatcher
}

// NewDelegate wraps base. A nil dispatch forwards to base.Dispatch.
func NewDelegate[S any](base Store[S], dispatch Dispatcher) *Delegate[S] {
	if dispatch == nil {
		dispatch = base.Dispatch
	}
	return &Delegate[S]{base: base, dispatch: dispatch}
}

func (d *Delegate[S]) Dispatch(action Action) awaitable.Awaitable[any] {
	return d.dispatch(action)
}

func (d *Delegate[S]) Subscribe(id subscription.ID, cb Callback[S]) *subscription.Subscription {
	return d.base.Subscribe(id, cb)
}

func (d *Delegate[S]) LastState() S { return d.base.LastState() }

// Base returns the wrapped store.
func (d *Delegate[S]) Base() Store[S] { return d.base }
