package saga

import (
	"time"

	"github.com/wilhg/redux/pkg/stream"
)

// Map transforms every value of e.
func Map[S, A, B any](e Effect[S, A], fn func(A) B) Effect[S, B] {
	return EffectFunc[S, B](func(in Input[S]) Output[B] {
		return output(stream.Map(compile(in, e), fn))
	})
}

// Filter drops values of e for which keep returns false.
func Filter[S, A any](e Effect[S, A], keep func(A) bool) Effect[S, A] {
	return EffectFunc[S, A](func(in Input[S]) Output[A] {
		return output(stream.Filter(compile(in, e), keep))
	})
}

// FlatMap runs fn(v) for every value of e and merges all resulting streams.
func FlatMap[S, A, B any](e Effect[S, A], fn func(A) Effect[S, B]) Effect[S, B] {
	return EffectFunc[S, B](func(in Input[S]) Output[B] {
		return output(stream.FlatMap(compile(in, e), spawn(in, fn)))
	})
}

// SwitchMap runs fn(v) for every value of e, cancelling the previous run as
// soon as a new value arrives.
func SwitchMap[S, A, B any](e Effect[S, A], fn func(A) Effect[S, B]) Effect[S, B] {
	return EffectFunc[S, B](func(in Input[S]) Output[B] {
		return output(stream.SwitchMap(compile(in, e), spawn(in, fn)))
	})
}

func spawn[S, A, B any](in Input[S], fn func(A) Effect[S, B]) func(A) stream.Stream[B] {
	return func(v A) stream.Stream[B] {
		next := fn(v)
		if next == nil {
			return nil
		}
		return compile(in, next)
	}
}

// Delay shifts every value of e by d.
func Delay[S, R any](e Effect[S, R], d time.Duration) Effect[S, R] {
	return EffectFunc[S, R](func(in Input[S]) Output[R] {
		return output(stream.Delay(compile(in, e), d))
	})
}

// Debounce emits a value of e only once d has passed without a newer one.
func Debounce[S, R any](e Effect[S, R], d time.Duration) Effect[S, R] {
	return EffectFunc[S, R](func(in Input[S]) Output[R] {
		return output(stream.Debounce(compile(in, e), d))
	})
}

// CatchError replaces a failure of e with the effect returned by catcher.
func CatchError[S, R any](e Effect[S, R], catcher func(error) Effect[S, R]) Effect[S, R] {
	return EffectFunc[S, R](func(in Input[S]) Output[R] {
		return output(stream.Catch(compile(in, e), func(err error) stream.Stream[R] {
			fallback := catcher(err)
			if fallback == nil {
				return nil
			}
			return compile(in, fallback)
		}))
	})
}

// Then starts second each time first emits and combines both values.
func Then[S, A, B, C any](first Effect[S, A], second Effect[S, B], combine func(A, B) C) Effect[S, C] {
	return FlatMap(first, func(a A) Effect[S, C] {
		return Map(second, func(b B) C { return combine(a, b) })
	})
}

// ThenEffect starts second each time first emits and forwards second's values.
func ThenEffect[S, A, B any](first Effect[S, A], second Effect[S, B]) Effect[S, B] {
	return Then(first, second, func(_ A, b B) B { return b })
}

// Sequence runs effects one after another, each starting when the previous
// one completed.
func Sequence[S, R any](effects ...Effect[S, R]) Effect[S, R] {
	return EffectFunc[S, R](func(in Input[S]) Output[R] {
		streams := make([]stream.Stream[R], 0, len(effects))
		for _, e := range effects {
			if e != nil {
				streams = append(streams, compile(in, e))
			}
		}
		return output(stream.Concat(streams...))
	})
}

// Merge runs effects concurrently and merges their values.
func Merge[S, R any](effects ...Effect[S, R]) Effect[S, R] {
	return EffectFunc[S, R](func(in Input[S]) Output[R] {
		streams := make([]stream.Stream[R], 0, len(effects))
		for _, e := range effects {
			if e != nil {
				streams = append(streams, compile(in, e))
			}
		}
		return output(stream.Merge(streams...))
	})
}
