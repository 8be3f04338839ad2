package middleware

import (
	"sync"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/store"
)

type pendingDispatch struct {
	action store.Action
	result *awaitable.Promise[any]
}

// Lazy is a dispatcher proxy for a target that does not exist yet. Actions
// dispatched before Set are buffered; Set replays them in order, exactly once,
// then publishes the target. Actions that arrive while the replay runs are
// appended to the buffer and drained before the target is published, so
// ordering holds and nothing is lost or duplicated.
type Lazy struct {
	mu      sync.Mutex
	target  store.Dispatcher
	binding bool
	pending []pendingDispatch
}

// NewLazy returns an unbound lazy dispatcher.
func NewLazy() *Lazy { return &Lazy{} }

// Dispatch forwards to the target or buffers the action. A buffered action
// returns a promise that follows the target's result once replayed.
func (l *Lazy) Dispatch(action store.Action) awaitable.Awaitable[any] {
	l.mu.Lock()
	if target := l.target; target != nil {
		l.mu.Unlock()
		return target(action)
	}
	p := awaitable.NewPromise[any]()
	l.pending = append(l.pending, pendingDispatch{action: action, result: p})
	l.mu.Unlock()
	return p
}

// Set binds the target and replays buffered actions. Only the first call has
// an effect.
func (l *Lazy) Set(target store.Dispatcher) {
	if target == nil {
		return
	}
	l.mu.Lock()
	if l.target != nil || l.binding {
		l.mu.Unlock()
		return
	}
	l.binding = true
	for {
		batch := l.pending
		l.pending = nil
		if len(batch) == 0 {
			l.target = target
			l.mu.Unlock()
			return
		}
		// Replay outside the lock: the target may dispatch through l again.
		l.mu.Unlock()
		for _, pd := range batch {
			pd.result.Follow(target(pd.action))
		}
		l.mu.Lock()
	}
}

// Bound reports whether Set has published a target.
func (l *Lazy) Bound() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target != nil
}
