// Package subscription provides unique identifiers and cancellable handles
// shared by the store, the stream operators and the saga monitor.
package subscription

import (
	"sync"
	"sync/atomic"
)

// ID identifies a subscriber or a registered dispatcher.
type ID int64

// Generator hands out monotonically increasing IDs. It is safe for concurrent
// use. Components take a *Generator instead of reaching for a global counter
// so tests can run with their own sequence.
type Generator struct {
	last atomic.Int64
}

// NewGenerator returns a generator whose first ID is 1.
func NewGenerator() *Generator { return &Generator{} }

// Next returns the next ID.
func (g *Generator) Next() ID { return ID(g.last.Add(1)) }

// Subscription is a cancellable handle. Teardowns run once, in reverse order
// of registration, on the first call to Unsubscribe.
type Subscription struct {
	mu        sync.Mutex
	closed    bool
	teardowns []func()
}

// New returns an open subscription with the given teardowns.
func New(teardowns ...func()) *Subscription {
	s := &Subscription{}
	for _, fn := range teardowns {
		if fn != nil {
			s.teardowns = append(s.teardowns, fn)
		}
	}
	return s
}

// Closed returns a subscription that is already unsubscribed.
func Closed() *Subscription { return &Subscription{closed: true} }

// Add registers a teardown. If the subscription is already closed the
// teardown runs immediately.
func (s *Subscription) Add(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.teardowns = append(s.teardowns, fn)
	s.mu.Unlock()
}

// AddSubscription ties child to s: closing s closes child.
func (s *Subscription) AddSubscription(child *Subscription) {
	if child == nil || child == s {
		return
	}
	s.Add(child.Unsubscribe)
}

// Unsubscribe runs the teardowns. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	fns := s.teardowns
	s.teardowns = nil
	s.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// IsClosed reports whether Unsubscribe has been called.
func (s *Subscription) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Serial holds at most one child subscription. Replacing the child closes the
// previous one; closing the Serial closes the current child and every child
// set afterwards.
type Serial struct {
	mu      sync.Mutex
	closed  bool
	current *Subscription
}

// Set replaces the current child.
func (s *Serial) Set(child *Subscription) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if child != nil {
			child.Unsubscribe()
		}
		return
	}
	prev := s.current
	s.current = child
	s.mu.Unlock()
	if prev != nil {
		prev.Unsubscribe()
	}
}

// Unsubscribe closes the Serial and its current child.
func (s *Serial) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cur := s.current
	s.current = nil
	s.mu.Unlock()
	if cur != nil {
		cur.Unsubscribe()
	}
}
