// Package store implements the state container at the center of the runtime.
//
// A Store holds the current state and a pure Reducer. Dispatch reduces one
// action at a time and notifies subscribers synchronously, in registration
// order, before it returns. Subscribing replays the current state once before
// any later state is delivered.
//
// Example usage:
//
//	type counterAction interface {
//		store.Action
//		counter()
//	}
//
//	type Increment struct{ By int }
//
//	func (Increment) Type() string { return "counter/increment" }
//	func (Increment) counter()     {}
//
//	func reduce(n int, a store.Action) int {
//		switch a := a.(type) {
//		case Increment:
//			return n + a.By
//		default:
//			return n
//		}
//	}
//
//	s := store.New(0, reduce)
//	s.Dispatch(Increment{By: 2})
package store

import (
	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/subscription"
)

// Action describes an intent to change state.
//
// Applications declare a closed set of actions as a sealed interface (an
// interface embedding Action plus an unexported marker method) and reducers
// type-switch over it. Type returns a stable name used for tracing,
// journaling and schema validation.
type Action interface {
	Type() string
}

// Reducer computes the next state from the current state and an action.
// Reducers must be pure and deterministic, and must not panic: a panicking
// reducer is a programming error and the panic reaches the dispatcher.
type Reducer[S any] func(state S, action Action) S

// Callback receives states published by a store.
type Callback[S any] func(state S)

// Dispatcher sends an action through a store or a middleware chain. The
// returned awaitable completes once the action has been fully processed.
type Dispatcher func(action Action) awaitable.Awaitable[any]

// Store is the contract consumed by middleware, sagas and every external
// collaborator (view bindings, routers, persistence).
type Store[S any] interface {
	// Dispatch reduces action into a new state and notifies subscribers.
	Dispatch(action Action) awaitable.Awaitable[any]
	// Subscribe registers cb, immediately calls it with the current state,
	// and returns a handle whose Unsubscribe removes it.
	Subscribe(id subscription.ID, cb Callback[S]) *subscription.Subscription
	// LastState returns the most recently committed state.
	LastState() S
}
