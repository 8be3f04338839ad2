package saga

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/errmodel"
	"github.com/wilhg/redux/pkg/store"
	"github.com/wilhg/redux/pkg/subscription"
)

func TestMonitor_FanOutCompletesBeforeAwait(t *testing.T) {
	m := NewMonitor()
	ids := subscription.NewGenerator()
	var calls atomic.Int32
	for range 500 {
		m.AddDispatcher(ids.Next(), func(store.Action) awaitable.Awaitable[any] {
			time.Sleep(time.Millisecond)
			calls.Add(1)
			return nil
		})
	}

	values, err := m.Dispatch(noop{}).AwaitTimeout(10 * time.Second)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if n := calls.Load(); n != 500 {
		t.Fatalf("expected 500 calls before await returned, got %d", n)
	}
	if len(values) != 500 {
		t.Fatalf("expected 500 results, got %d", len(values))
	}
}

func TestMonitor_FailureIsolatedPerDispatcher(t *testing.T) {
	m := NewMonitor()
	var calls atomic.Int32
	ok := func(store.Action) awaitable.Awaitable[any] {
		calls.Add(1)
		return awaitable.Just[any]("ok")
	}
	m.AddDispatcher(1, ok)
	m.AddDispatcher(2, func(store.Action) awaitable.Awaitable[any] { panic("bad take") })
	m.AddDispatcher(3, ok)

	values, err := m.Dispatch(noop{}).AwaitTimeout(testTimeout)
	var ce *errmodel.Error
	if !errors.As(err, &ce) || ce.Code != errmodel.CodePanic {
		t.Fatalf("expected a system/panic error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected both healthy dispatchers to run, got %d", calls.Load())
	}
	if values[0] != "ok" || values[2] != "ok" {
		t.Fatalf("unexpected values %v", values)
	}
}

func TestMonitor_RemoveStopsDelivery(t *testing.T) {
	m := NewMonitor()
	var calls atomic.Int32
	m.AddDispatcher(7, func(store.Action) awaitable.Awaitable[any] {
		calls.Add(1)
		return nil
	})
	if _, err := m.Dispatch(noop{}).Await(); err != nil {
		t.Fatal(err)
	}
	m.RemoveDispatcher(7)
	if _, err := m.Dispatch(noop{}).Await(); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 || m.Len() != 0 {
		t.Fatalf("calls=%d len=%d", calls.Load(), m.Len())
	}
}

func TestMonitor_ConcurrentRegistration(t *testing.T) {
	m := NewMonitor()
	ids := subscription.NewGenerator()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			id := ids.Next()
			m.AddDispatcher(id, func(store.Action) awaitable.Awaitable[any] { return nil })
			m.RemoveDispatcher(id)
		}
	}()
	for range 50 {
		if _, err := m.Dispatch(noop{}).AwaitTimeout(testTimeout); err != nil && !errors.Is(err, errmodel.ErrTimedOut) {
			t.Fatal(err)
		}
	}
	<-done
	if m.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", m.Len())
	}
}
