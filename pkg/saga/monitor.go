package saga

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/store"
	"github.com/wilhg/redux/pkg/subscription"
)

// Monitor fans every dispatched action out to the registered take
// dispatchers. The registry is guarded by one mutex; the fan-out itself runs
// outside it, one goroutine per dispatcher.
type Monitor struct {
	logger *slog.Logger

	mu          sync.Mutex
	dispatchers map[subscription.ID]store.Dispatcher
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger sets the logger used for dispatcher failures.
func WithMonitorLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMonitor returns an empty monitor.
func NewMonitor(opts ...MonitorOption) *Monitor {
	m := &Monitor{logger: slog.Default(), dispatchers: make(map[subscription.ID]store.Dispatcher)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddDispatcher registers fn under id, replacing any previous entry.
func (m *Monitor) AddDispatcher(id subscription.ID, fn store.Dispatcher) {
	m.mu.Lock()
	m.dispatchers[id] = fn
	m.mu.Unlock()
}

// RemoveDispatcher drops id. Fan-outs started afterwards no longer reach it.
func (m *Monitor) RemoveDispatcher(id subscription.ID) {
	m.mu.Lock()
	delete(m.dispatchers, id)
	m.mu.Unlock()
}

// Len returns the number of registered dispatchers.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dispatchers)
}

// Dispatch invokes every registered dispatcher with action concurrently. The
// result resolves once all of them have returned and their own awaitables
// settled; values are ordered by registration id. A failing or panicking
// dispatcher only fails its own slot.
func (m *Monitor) Dispatch(action store.Action) awaitable.Awaitable[[]any] {
	type entry struct {
		id subscription.ID
		fn store.Dispatcher
	}
	m.mu.Lock()
	entries := make([]entry, 0, len(m.dispatchers))
	for id, fn := range m.dispatchers {
		entries = append(entries, entry{id: id, fn: fn})
	}
	m.mu.Unlock()
	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.id, b.id) })

	children := make([]awaitable.Awaitable[any], len(entries))
	for i, e := range entries {
		children[i] = awaitable.Go(func() (any, error) {
			res := e.fn(action)
			if res == nil {
				return nil, nil
			}
			v, err := res.Await()
			if err != nil {
				m.logger.Warn("saga dispatcher failed", "dispatcher_id", int64(e.id), "action_type", action.Type(), "error", err)
			}
			return v, err
		})
	}
	return awaitable.NewBatch(children...)
}
