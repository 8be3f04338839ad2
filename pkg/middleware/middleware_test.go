package middleware

import (
	"strconv"
	"sync"
	"testing"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/store"
)

type inc struct{}

func (inc) Type() string { return "inc" }

type ping struct{ N int }

func (ping) Type() string { return "ping" }

func reduce(n int, a store.Action) int {
	switch a.(type) {
	case inc:
		return n + 1
	default:
		return n
	}
}

type markerLog struct {
	mu      sync.Mutex
	markers []int
}

func (l *markerLog) add(m int) {
	l.mu.Lock()
	l.markers = append(l.markers, m)
	l.mu.Unlock()
}

func marker(log *markerLog, m int) Middleware[int] {
	return func(Input[int]) func(DispatchWrapper) DispatchWrapper {
		return func(next DispatchWrapper) DispatchWrapper {
			return next.Wrap(strconv.Itoa(m), func(a store.Action) awaitable.Awaitable[any] {
				log.add(m)
				return next.Dispatch(a)
			})
		}
	}
}

func TestApply_OrderAndChainID(t *testing.T) {
	log := &markerLog{}
	s := Apply(marker(log, 1), marker(log, 2), marker(log, 3))(store.New(0, reduce))
	if got := s.ChainID(); got != "root-3-2-1" {
		t.Fatalf("chain id=%q want root-3-2-1", got)
	}
	if _, err := s.Dispatch(inc{}).Await(); err != nil {
		t.Fatal(err)
	}
	if len(log.markers) != 3 || log.markers[0] != 1 || log.markers[1] != 2 || log.markers[2] != 3 {
		t.Fatalf("markers=%v want [1 2 3]", log.markers)
	}
	if s.LastState() != 1 {
		t.Fatalf("state=%d want 1", s.LastState())
	}
}

func TestApply_SubscribeAndLastStatePassThrough(t *testing.T) {
	base := store.New(5, reduce)
	s := Apply[int]()(base)
	if s.ChainID() != RootID {
		t.Fatalf("chain id=%q want root", s.ChainID())
	}
	var got []int
	sub := s.Subscribe(1, func(v int) { got = append(got, v) })
	defer sub.Unsubscribe()
	base.Dispatch(inc{})
	if len(got) != 2 || got[1] != 6 || s.LastState() != 6 {
		t.Fatalf("got=%v last=%d", got, s.LastState())
	}
}

// A middleware that dispatches while the pipeline is still being composed
// must see its action replayed through the full chain once it exists.
func TestApply_DispatchDuringConstructionIsReplayed(t *testing.T) {
	log := &markerLog{}
	var early awaitable.Awaitable[any]
	eager := func(in Input[int]) func(DispatchWrapper) DispatchWrapper {
		early = in.Dispatch(inc{})
		return func(next DispatchWrapper) DispatchWrapper {
			return next.Wrap("eager", next.Dispatch)
		}
	}
	s := Apply(marker(log, 1), eager)(store.New(0, reduce))
	v, err := early.AwaitTimeout(testTimeout)
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != 1 || s.LastState() != 1 {
		t.Fatalf("replayed result=%v state=%d want 1", v, s.LastState())
	}
	if len(log.markers) != 1 {
		t.Fatalf("replayed action bypassed the outer middleware: %v", log.markers)
	}
}

func TestLazy_BuffersInOrderExactlyOnce(t *testing.T) {
	l := NewLazy()
	var results []awaitable.Awaitable[any]
	for i := 0; i < 10; i++ {
		results = append(results, l.Dispatch(ping{N: i}))
	}
	var (
		mu   sync.Mutex
		seen []int
	)
	l.Set(func(a store.Action) awaitable.Awaitable[any] {
		mu.Lock()
		seen = append(seen, a.(ping).N)
		mu.Unlock()
		return awaitable.Just[any](a.(ping).N * 10)
	})
	l.Set(func(store.Action) awaitable.Awaitable[any] {
		t.Fatal("second Set must not rebind")
		return nil
	})
	for i, r := range results {
		v, err := r.AwaitTimeout(testTimeout)
		if err != nil || v.(int) != i*10 {
			t.Fatalf("result[%d]=%v err=%v", i, v, err)
		}
	}
	if len(seen) != 10 {
		t.Fatalf("replayed %d actions want 10", len(seen))
	}
	for i, n := range seen {
		if n != i {
			t.Fatalf("seen=%v out of order", seen)
		}
	}
}

func TestLazy_ReentrantDispatchDuringReplay(t *testing.T) {
	l := NewLazy()
	l.Dispatch(ping{N: 0})
	var seen []int
	l.Set(func(a store.Action) awaitable.Awaitable[any] {
		n := a.(ping).N
		seen = append(seen, n)
		if n < 3 {
			l.Dispatch(ping{N: n + 1})
		}
		return awaitable.Just[any](nil)
	})
	if len(seen) != 4 || seen[3] != 3 {
		t.Fatalf("seen=%v want [0 1 2 3]", seen)
	}
	if !l.Bound() {
		t.Fatal("lazy not bound after Set")
	}
}

func TestLazy_ConcurrentDispatchNotLost(t *testing.T) {
	l := NewLazy()
	var (
		mu    sync.Mutex
		count int
		wg    sync.WaitGroup
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Dispatch(inc{})
		}()
	}
	l.Set(func(store.Action) awaitable.Awaitable[any] {
		mu.Lock()
		count++
		mu.Unlock()
		return awaitable.Just[any](nil)
	})
	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	if count != 200 {
		t.Fatalf("delivered=%d want 200", count)
	}
}
