package saga

import (
	"log/slog"
	"sync"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/middleware"
	"github.com/wilhg/redux/pkg/store"
	"github.com/wilhg/redux/pkg/stream"
	"github.com/wilhg/redux/pkg/subscription"
)

// Option configures a Runtime.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	monitor *Monitor
	ids     *subscription.Generator
}

// WithLogger sets the logger for saga values and failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMonitor shares an existing monitor instead of creating one.
func WithMonitor(m *Monitor) Option {
	return func(c *config) {
		if m != nil {
			c.monitor = m
		}
	}
}

// WithIDs sets the generator for monitor registration ids.
func WithIDs(g *subscription.Generator) Option {
	return func(c *config) {
		if g != nil {
			c.ids = g
		}
	}
}

// Runtime runs a fixed set of root effects against one store.
type Runtime[S any] struct {
	effects []Effect[S, any]
	cfg     config

	mu   sync.Mutex
	subs *subscription.Subscription
}

// New prepares effects. They start when the returned runtime's middleware is
// applied to a store.
func New[S any](effects []Effect[S, any], opts ...Option) *Runtime[S] {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.monitor == nil {
		cfg.monitor = NewMonitor(WithMonitorLogger(cfg.logger))
	}
	if cfg.ids == nil {
		cfg.ids = subscription.NewGenerator()
	}
	return &Runtime[S]{effects: effects, cfg: cfg, subs: subscription.New()}
}

// Middleware is shorthand for New(effects, opts...).Middleware().
func Middleware[S any](effects []Effect[S, any], opts ...Option) middleware.Middleware[S] {
	return New(effects, opts...).Middleware()
}

// Monitor returns the runtime's monitor.
func (r *Runtime[S]) Monitor() *Monitor { return r.cfg.monitor }

// Middleware returns the middleware that starts the root effects and feeds
// every action to the monitor. The inner dispatcher runs first, so takes
// observe the post-action state; the fan-out is awaited before the inner
// result is returned.
func (r *Runtime[S]) Middleware() middleware.Middleware[S] {
	return func(in middleware.Input[S]) func(middleware.DispatchWrapper) middleware.DispatchWrapper {
		r.start(Input[S]{
			LastState: in.LastState,
			Dispatch:  in.Dispatch,
			Monitor:   r.cfg.monitor,
			IDs:       r.cfg.ids,
			Logger:    r.cfg.logger,
		})
		return func(next middleware.DispatchWrapper) middleware.DispatchWrapper {
			return next.Wrap("saga", func(action store.Action) awaitable.Awaitable[any] {
				result := next.Dispatch(action)
				if _, err := r.cfg.monitor.Dispatch(action).Await(); err != nil {
					r.cfg.logger.Warn("saga fan-out failed", "action_type", action.Type(), "error", err)
				}
				return result
			})
		}
	}
}

func (r *Runtime[S]) start(in Input[S]) {
	for i, e := range r.effects {
		if e == nil {
			continue
		}
		logger := r.cfg.logger.With("saga", i)
		sub := compile(in, e).Subscribe(stream.Observer[any]{
			Next:     func(v any) { logger.Debug("saga emitted", "value", v) },
			Error:    func(err error) { logger.Error("saga failed", "error", err) },
			Complete: func() { logger.Debug("saga completed") },
		})
		r.mu.Lock()
		r.subs.AddSubscription(sub)
		r.mu.Unlock()
	}
}

// Stop cancels every running saga, including in-flight calls, and
// deregisters their takes from the monitor.
func (r *Runtime[S]) Stop() {
	r.mu.Lock()
	subs := r.subs
	r.subs = subscription.New()
	r.mu.Unlock()
	subs.Unsubscribe()
}
