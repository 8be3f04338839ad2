package store

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/subscription"
)

type counterAction interface {
	Action
	counter()
}

type add struct{ N int }

func (add) Type() string { return "counter/add" }
func (add) counter()     {}

type reset struct{}

func (reset) Type() string { return "counter/reset" }
func (reset) counter()     {}

type unrelated struct{}

func (unrelated) Type() string { return "other" }

func reduceCounter(n int, a Action) int {
	ca, ok := a.(counterAction)
	if !ok {
		return n
	}
	switch ca := ca.(type) {
	case add:
		return n + ca.N
	case reset:
		return 0
	}
	return n
}

func TestDispatch_ReturnsNewState(t *testing.T) {
	s := New(0, reduceCounter)
	v, err := s.Dispatch(add{N: 3}).Await()
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != 3 || s.LastState() != 3 {
		t.Fatalf("result=%v last=%d want 3", v, s.LastState())
	}
	s.Dispatch(unrelated{})
	if s.LastState() != 3 {
		t.Fatalf("unrelated action changed state to %d", s.LastState())
	}
	s.Dispatch(reset{})
	if s.LastState() != 0 {
		t.Fatalf("reset left %d", s.LastState())
	}
}

func TestDispatch_ConcurrentSerializes(t *testing.T) {
	s := New(0, reduceCounter)
	const workers, perWorker = 16, 250
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.Dispatch(add{N: 1})
			}
		}()
	}
	wg.Wait()
	if got := s.LastState(); got != workers*perWorker {
		t.Fatalf("state=%d want %d", got, workers*perWorker)
	}
}

func TestSubscribe_ReplayThenStops(t *testing.T) {
	s := New(10, reduceCounter)
	ids := subscription.NewGenerator()
	var got []int
	sub := s.Subscribe(ids.Next(), func(v int) { got = append(got, v) })
	if len(got) != 1 || got[0] != 10 {
		t.Fatalf("replay=%v want [10]", got)
	}
	const k = 5
	for i := 0; i < k; i++ {
		s.Dispatch(add{N: 1})
	}
	sub.Unsubscribe()
	sub.Unsubscribe()
	for i := 0; i < k; i++ {
		s.Dispatch(add{N: 1})
	}
	if len(got) != k+1 {
		t.Fatalf("callback count=%d want %d", len(got), k+1)
	}
	if s.SubscriberCount() != 0 {
		t.Fatalf("subscribers=%d want 0", s.SubscriberCount())
	}
}

func TestSubscribe_NotificationMatchesDispatchedState(t *testing.T) {
	s := New(0, reduceCounter)
	var (
		mu   sync.Mutex
		seen []int
	)
	s.Subscribe(1, func(v int) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(add{N: 1})
		}()
	}
	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	// Replay plus one strictly increasing notification per dispatch.
	if len(seen) != 101 {
		t.Fatalf("notifications=%d want 101", len(seen))
	}
	for i, v := range seen {
		if v != i {
			t.Fatalf("seen[%d]=%d: notifications interleaved", i, v)
		}
	}
}

func TestSubscribe_RegistrationOrder(t *testing.T) {
	s := New(0, reduceCounter)
	var order []string
	s.Subscribe(1, func(int) { order = append(order, "a") })
	s.Subscribe(2, func(int) { order = append(order, "b") })
	order = nil
	s.Dispatch(add{N: 1})
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order=%v want [a b]", order)
	}
}

func TestUnsubscribeAll(t *testing.T) {
	s := New(0, reduceCounter)
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		s.Subscribe(subscription.ID(i), func(int) { calls.Add(1) })
	}
	s.UnsubscribeAll()
	s.Dispatch(add{N: 1})
	if calls.Load() != 3 {
		t.Fatalf("calls=%d want 3 replays only", calls.Load())
	}
}

func TestReducerPanic_PropagatesAndReleasesLock(t *testing.T) {
	s := New(0, func(n int, a Action) int {
		if _, ok := a.(unrelated); ok {
			panic("impure reducer")
		}
		return reduceCounter(n, a)
	})
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to reach the dispatcher")
			}
		}()
		s.Dispatch(unrelated{})
	}()
	s.Dispatch(add{N: 2})
	if s.LastState() != 2 {
		t.Fatalf("state=%d want 2 after recovering from reducer panic", s.LastState())
	}
}

func TestDelegate_OverridesDispatchOnly(t *testing.T) {
	base := New(0, reduceCounter)
	var intercepted int
	d := NewDelegate[int](base, func(a Action) awaitable.Awaitable[any] {
		intercepted++
		return base.Dispatch(a)
	})
	d.Dispatch(add{N: 4})
	if intercepted != 1 || d.LastState() != 4 {
		t.Fatalf("intercepted=%d last=%d", intercepted, d.LastState())
	}
	var replay int
	d.Subscribe(9, func(v int) { replay = v })
	if replay != 4 {
		t.Fatalf("replay=%d want 4", replay)
	}
}
