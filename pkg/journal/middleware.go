package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/middleware"
	"github.com/wilhg/redux/pkg/store"
)

type mwOptions[S any] struct {
	encode   Encoder
	codec    Codec[S]
	every    int64
	timeout  time.Duration
	failHard bool
}

// MiddlewareOption configures Middleware.
type MiddlewareOption[S any] func(*mwOptions[S])

// WithEncoder sets how actions become payloads. The default marshals the
// action with encoding/json.
func WithEncoder[S any](enc Encoder) MiddlewareOption[S] {
	return func(o *mwOptions[S]) {
		if enc != nil {
			o.encode = enc
		}
	}
}

// WithSnapshots stores a snapshot of the post-action state every n journaled
// actions. n <= 0 or a nil codec disables snapshots.
func WithSnapshots[S any](codec Codec[S], n int) MiddlewareOption[S] {
	return func(o *mwOptions[S]) {
		if codec != nil && n > 0 {
			o.codec, o.every = codec, int64(n)
		}
	}
}

// WithTimeout bounds each journal write.
func WithTimeout[S any](d time.Duration) MiddlewareOption[S] {
	return func(o *mwOptions[S]) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// FailOnError makes a journal write failure fail the dispatch's awaitable.
// By default the failure is only logged.
func FailOnError[S any]() MiddlewareOption[S] {
	return func(o *mwOptions[S]) { o.failHard = true }
}

// Middleware journals every action into stream after the inner dispatcher
// accepted it. It serializes the inner dispatch and the write, so journal
// order equals reduction order; place it last so that it wraps the store
// directly.
func Middleware[S any](j *Journal, stream string, opts ...MiddlewareOption[S]) middleware.Middleware[S] {
	o := mwOptions[S]{encode: EncodeJSON, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	return func(in middleware.Input[S]) func(middleware.DispatchWrapper) middleware.DispatchWrapper {
		var mu sync.Mutex
		return func(next middleware.DispatchWrapper) middleware.DispatchWrapper {
			return next.Wrap("journal", func(action store.Action) awaitable.Awaitable[any] {
				mu.Lock()
				defer mu.Unlock()
				result := next.Dispatch(action)
				if _, err := result.Await(); err != nil {
					return result
				}
				ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
				defer cancel()
				if err := o.write(ctx, j, stream, action, in.LastState); err != nil {
					j.logger.Error("journal write failed", "stream", stream, "action_type", action.Type(), "error", err)
					if o.failHard {
						return awaitable.Fail[any](err)
					}
				}
				return result
			})
		}
	}
}

func (o *mwOptions[S]) write(ctx context.Context, j *Journal, stream string, action store.Action, lastState func() S) error {
	payload, err := o.encode(action)
	if err != nil {
		return fmt.Errorf("journal: encode %s: %w", action.Type(), err)
	}
	rec, err := j.Append(ctx, Record{Stream: stream, Type: action.Type(), Payload: payload})
	if err != nil {
		return err
	}
	if o.codec == nil || rec.Seq%o.every != 0 {
		return nil
	}
	state, err := o.codec.Encode(lastState())
	if err != nil {
		return fmt.Errorf("journal: encode snapshot: %w", err)
	}
	if _, err := j.SaveSnapshot(ctx, Snapshot{Stream: stream, UptoSeq: rec.Seq, State: state}); err != nil {
		return err
	}
	j.logger.Debug("journal snapshot saved", slog.String("stream", stream), slog.Int64("upto_seq", rec.Seq))
	return nil
}
