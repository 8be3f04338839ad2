package store

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/subscription"
)

type subscriber[S any] struct {
	id subscription.ID
	cb Callback[S]
	// alive is cleared on unsubscribe so a snapshot taken before the removal
	// does not deliver again.
	alive *subscription.Subscription
}

// Simple is the default Store implementation.
type Simple[S any] struct {
	reducer Reducer[S]
	logger  *slog.Logger

	// dispatchMu serializes reduction and notification; it is also held while
	// a new subscriber receives its replay so deliveries stay ordered.
	dispatchMu sync.Mutex

	stateMu sync.RWMutex
	state   S

	subsMu sync.Mutex
	subs   []*subscriber[S]
}

// Option configures a Simple store at construction time.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for subscriber bookkeeping.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New constructs a store holding initial.
func New[S any](initial S, reducer Reducer[S], opts ...Option) *Simple[S] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Simple[S]{reducer: reducer, state: initial, logger: o.logger}
}

// Dispatch reduces action and notifies every current subscriber before it
// returns. The returned awaitable is already resolved with the new state.
//
// Subscribers must not dispatch into the same store from inside their
// callback; hand the action to another goroutine instead.
func (s *Simple[S]) Dispatch(action Action) awaitable.Awaitable[any] {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	next := s.reducer(s.LastState(), action)

	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()

	for _, sub := range s.snapshot() {
		if sub.alive.IsClosed() {
			continue
		}
		sub.cb(next)
	}
	return awaitable.Just[any](next)
}

// Subscribe registers cb and replays the current state to it.
func (s *Simple[S]) Subscribe(id subscription.ID, cb Callback[S]) *subscription.Subscription {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	sub := &subscriber[S]{id: id, cb: cb}
	sub.alive = subscription.New(func() { s.remove(sub) })

	s.subsMu.Lock()
	s.subs = append(s.subs, sub)
	s.subsMu.Unlock()

	s.logger.Debug("store subscriber added", slog.Int64("subscriber_id", int64(id)))
	cb(s.LastState())
	return sub.alive
}

// LastState returns the most recently committed state.
func (s *Simple[S]) LastState() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// SubscriberCount returns the number of live subscribers.
func (s *Simple[S]) SubscriberCount() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}

// UnsubscribeAll tears down every subscription.
func (s *Simple[S]) UnsubscribeAll() {
	for _, sub := range s.snapshot() {
		sub.alive.Unsubscribe()
	}
}

func (s *Simple[S]) snapshot() []*subscriber[S] {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return slices.Clone(s.subs)
}

func (s *Simple[S]) remove(target *subscriber[S]) {
	s.subsMu.Lock()
	s.subs = slices.DeleteFunc(s.subs, func(sub *subscriber[S]) bool { return sub == target })
	s.subsMu.Unlock()
	s.logger.Debug("store subscriber removed", slog.Int64("subscriber_id", int64(target.id)))
}
