// Package middleware composes dispatch interceptors around a store.
//
// A Middleware receives an Input (state accessor plus the final, lazily bound
// dispatcher) and returns a function that wraps the next DispatchWrapper.
// Combine folds middlewares right to left, so the first middleware given is
// the outermost: an action flows through mws[0], then mws[1], and finally
// reaches the root dispatcher.
package middleware

import (
	"github.com/wilhg/redux/pkg/store"
)

// RootID names the innermost wrapper, the base store's own dispatcher.
const RootID = "root"

// DispatchWrapper pairs a dispatcher with a debug identifier that records the
// wrapping chain (e.g. "root-saga-router").
type DispatchWrapper struct {
	ID       string
	Dispatch store.Dispatcher
}

// Wrap returns a wrapper whose ID appends name to w's chain.
func (w DispatchWrapper) Wrap(name string, dispatch store.Dispatcher) DispatchWrapper {
	return DispatchWrapper{ID: w.ID + "-" + name, Dispatch: dispatch}
}

// Input is handed to each middleware at composition time.
type Input[S any] struct {
	// LastState reads the base store's current state.
	LastState func() S
	// Dispatch sends an action through the fully composed pipeline. Calls made
	// before composition finishes are buffered and replayed.
	Dispatch store.Dispatcher
}

// Middleware intercepts dispatch.
type Middleware[S any] func(in Input[S]) func(next DispatchWrapper) DispatchWrapper

// Combine folds mws around root.
func Combine[S any](in Input[S], root DispatchWrapper, mws ...Middleware[S]) DispatchWrapper {
	wrapper := root
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapper = mws[i](in)(wrapper)
	}
	return wrapper
}

// Applied is the store returned by Apply. It keeps the composed wrapper
// around for inspection.
type Applied[S any] struct {
	*store.Delegate[S]
	wrapper DispatchWrapper
}

// ChainID returns the identifier of the composed wrapper.
func (a *Applied[S]) ChainID() string { return a.wrapper.ID }

// Apply returns a function that wraps a store with mws. The resulting store's
// Dispatch runs the composed chain; LastState and Subscribe pass through.
func Apply[S any](mws ...Middleware[S]) func(store.Store[S]) *Applied[S] {
	return func(base store.Store[S]) *Applied[S] {
		lazy := NewLazy()
		in := Input[S]{LastState: base.LastState, Dispatch: lazy.Dispatch}
		wrapper := Combine(in, DispatchWrapper{ID: RootID, Dispatch: base.Dispatch}, mws...)
		lazy.Set(wrapper.Dispatch)
		return &Applied[S]{Delegate: store.NewDelegate(base, wrapper.Dispatch), wrapper: wrapper}
	}
}
