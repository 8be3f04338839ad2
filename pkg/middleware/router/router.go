// Package router forwards screen actions to navigators.
//
// Any dispatched action that also implements Screen is handed to a Registry
// on the configured Executor and is then passed through to the next
// dispatcher unchanged. The registry itself never renders or navigates: the
// registered Navigators do.
package router

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/middleware"
	"github.com/wilhg/redux/pkg/store"
)

// Screen marks actions that request navigation.
type Screen interface {
	store.Action
	Screen() string
}

// Navigator handles a screen. It returns false when it does not own the
// screen so the next navigator can try.
type Navigator interface {
	Navigate(screen Screen) bool
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(screen Screen) bool

func (f NavigatorFunc) Navigate(screen Screen) bool { return f(screen) }

type entry struct {
	name      string
	priority  int
	navigator Navigator
}

// Registry is an ordered list of navigators guarded by one lock. Entries are
// kept sorted by descending priority; equal priorities keep insertion order.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	logger  *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a navigator under name. Registering an existing name replaces
// it and re-sorts.
func (r *Registry) Register(name string, priority int, nav Navigator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = slices.DeleteFunc(r.entries, func(e entry) bool { return e.name == name })
	r.entries = append(r.entries, entry{name: name, priority: priority, navigator: nav})
	slices.SortStableFunc(r.entries, func(a, b entry) int { return b.priority - a.priority })
}

// Unregister removes the navigator registered under name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = slices.DeleteFunc(r.entries, func(e entry) bool { return e.name == name })
}

// Names returns registered names in dispatch order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.name)
	}
	return out
}

// Navigate offers screen to each navigator in order and reports the name of
// the one that accepted it.
func (r *Registry) Navigate(screen Screen) (string, bool) {
	r.mu.RLock()
	entries := slices.Clone(r.entries)
	r.mu.RUnlock()
	for _, e := range entries {
		if e.navigator.Navigate(screen) {
			return e.name, true
		}
	}
	r.logger.Warn("no navigator accepted screen", slog.String("screen", screen.Screen()))
	return "", false
}

// Middleware returns a middleware that routes screens through reg on exec,
// e.g. a UI goroutine. A nil exec runs navigation inline.
func Middleware[S any](reg *Registry, exec middleware.Executor) middleware.Middleware[S] {
	if exec == nil {
		exec = middleware.Inline
	}
	return func(middleware.Input[S]) func(middleware.DispatchWrapper) middleware.DispatchWrapper {
		return func(next middleware.DispatchWrapper) middleware.DispatchWrapper {
			return next.Wrap("router", func(action store.Action) awaitable.Awaitable[any] {
				if screen, ok := action.(Screen); ok {
					exec(func() { reg.Navigate(screen) })
				}
				return next.Dispatch(action)
			})
		}
	}
}
