package stream

import (
	"sync"
	"time"
)

// Delay shifts every value by d. Errors pass through immediately; completion
// waits for the values still in flight.
func Delay[T any](src Stream[T], d time.Duration) Stream[T] {
	if d <= 0 {
		return src
	}
	return Create(func(e *Emitter[T]) {
		var (
			mu           sync.Mutex
			timers       = make(map[*time.Timer]struct{})
			pending      int
			upstreamDone bool
		)
		e.Add(func() {
			mu.Lock()
			for t := range timers {
				t.Stop()
			}
			timers = nil
			mu.Unlock()
		})
		e.AddSubscription(src.Subscribe(Observer[T]{
			Next: func(v T) {
				mu.Lock()
				defer mu.Unlock()
				if timers == nil {
					return
				}
				pending++
				var t *time.Timer
				t = time.AfterFunc(d, func() {
					mu.Lock()
					if timers == nil {
						mu.Unlock()
						return
					}
					delete(timers, t)
					mu.Unlock()

					e.Next(v)

					mu.Lock()
					pending--
					done := upstreamDone && pending == 0
					mu.Unlock()
					if done {
						e.Complete()
					}
				})
				timers[t] = struct{}{}
			},
			Error: e.Error,
			Complete: func() {
				mu.Lock()
				upstreamDone = true
				done := pending == 0
				mu.Unlock()
				if done {
					e.Complete()
				}
			},
		}))
	})
}

// Debounce emits a value only after d has passed without another value
// arriving. On completion the pending value, if any, is flushed first; on
// error it is dropped.
func Debounce[T any](src Stream[T], d time.Duration) Stream[T] {
	if d <= 0 {
		return src
	}
	return Create(func(e *Emitter[T]) {
		var (
			mu       sync.Mutex
			emitMu   sync.Mutex // orders a timer flush against the completion flush
			timer    *time.Timer
			seq      uint64
			latest   T
			has      bool
			disposed bool
		)
		take := func(want uint64) (T, bool) {
			mu.Lock()
			defer mu.Unlock()
			var zero T
			if !has || disposed || (want != 0 && want != seq) {
				return zero, false
			}
			v := latest
			latest, has = zero, false
			return v, true
		}
		e.Add(func() {
			mu.Lock()
			disposed = true
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		})
		e.AddSubscription(src.Subscribe(Observer[T]{
			Next: func(v T) {
				mu.Lock()
				defer mu.Unlock()
				if disposed {
					return
				}
				seq++
				my := seq
				latest, has = v, true
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(d, func() {
					emitMu.Lock()
					defer emitMu.Unlock()
					if v, ok := take(my); ok {
						e.Next(v)
					}
				})
			},
			Error: e.Error,
			Complete: func() {
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				emitMu.Lock()
				defer emitMu.Unlock()
				if v, ok := take(0); ok {
					e.Next(v)
				}
				e.Complete()
			},
		}))
	})
}
