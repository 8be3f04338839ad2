package saga

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/wilhg/redux/pkg/store"
	"github.com/wilhg/redux/pkg/stream"
	"github.com/wilhg/redux/pkg/subscription"
)

const testTimeout = 2 * time.Second

type letter struct {
	name string
	n    int
}

func (l letter) Type() string { return l.name }

type noop struct{}

func (noop) Type() string { return "noop" }

func extractA(a store.Action) (int, bool) {
	l, ok := a.(letter)
	if !ok || l.name != "a" {
		return 0, false
	}
	return l.n, true
}

func newInput(m *Monitor) Input[int] {
	return Input[int]{
		LastState: func() int { return 0 },
		Monitor:   m,
		IDs:       subscription.NewGenerator(),
		Logger:    slog.Default(),
	}
}

type collector[T any] struct {
	mu     sync.Mutex
	items  []T
	err    error
	closed bool
}

func (c *collector[T]) observer() stream.Observer[T] {
	return stream.Observer[T]{
		Next: func(v T) {
			c.mu.Lock()
			c.items = append(c.items, v)
			c.mu.Unlock()
		},
		Error: func(err error) {
			c.mu.Lock()
			c.err, c.closed = err, true
			c.mu.Unlock()
		},
		Complete: func() {
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
		},
	}
}

func (c *collector[T]) values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
