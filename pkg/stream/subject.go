package stream

import (
	"sync"

	"github.com/wilhg/redux/pkg/subscription"
)

// Subject is a hot stream: values pushed with Next reach every observer
// subscribed at that moment. After Error or Complete, new subscribers receive
// the terminal event immediately.
type Subject[T any] struct {
	mu        sync.Mutex
	observers map[*Emitter[T]]struct{}
	done      bool
	err       error
}

// NewSubject returns an open subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{observers: make(map[*Emitter[T]]struct{})}
}

func (s *Subject[T]) Subscribe(o Observer[T]) *subscription.Subscription {
	e := newEmitter(o)
	s.mu.Lock()
	if s.done {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			e.Error(err)
		} else {
			e.Complete()
		}
		return e.sub
	}
	s.observers[e] = struct{}{}
	s.mu.Unlock()
	e.Add(func() {
		s.mu.Lock()
		delete(s.observers, e)
		s.mu.Unlock()
	})
	return e.sub
}

// Next pushes v to current observers.
func (s *Subject[T]) Next(v T) {
	for _, e := range s.snapshot(false, nil) {
		e.Next(v)
	}
}

// Error terminates every observer with err.
func (s *Subject[T]) Error(err error) {
	for _, e := range s.snapshot(true, err) {
		e.Error(err)
	}
}

// Complete terminates every observer.
func (s *Subject[T]) Complete() {
	for _, e := range s.snapshot(true, nil) {
		e.Complete()
	}
}

// Observers returns the number of live observers.
func (s *Subject[T]) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

func (s *Subject[T]) snapshot(terminate bool, err error) []*Emitter[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	out := make([]*Emitter[T], 0, len(s.observers))
	for e := range s.observers {
		out = append(out, e)
	}
	if terminate {
		s.done, s.err = true, err
		s.observers = make(map[*Emitter[T]]struct{})
	}
	return out
}
