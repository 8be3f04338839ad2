package middleware

// Executor decides where a piece of work runs: inline on the dispatching
// goroutine, on a fresh goroutine, or on an application-owned loop such as a
// UI thread.
type Executor func(fn func())

// Inline runs fn on the calling goroutine.
func Inline(fn func()) { fn() }

// Background runs fn on a new goroutine.
func Background(fn func()) { go fn() }
