// Package logging records every dispatch with log/slog.
package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/middleware"
	"github.com/wilhg/redux/pkg/store"
)

// Middleware logs the action type and how long the inner chain took at
// level. State is logged only when withState is set.
func Middleware[S any](logger *slog.Logger, level slog.Level, withState bool) middleware.Middleware[S] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(in middleware.Input[S]) func(middleware.DispatchWrapper) middleware.DispatchWrapper {
		return func(next middleware.DispatchWrapper) middleware.DispatchWrapper {
			return next.Wrap("logging", func(action store.Action) awaitable.Awaitable[any] {
				ctx := context.Background()
				if !logger.Enabled(ctx, level) {
					return next.Dispatch(action)
				}
				start := time.Now()
				result := next.Dispatch(action)
				attrs := []slog.Attr{
					slog.String("action_type", action.Type()),
					slog.Duration("elapsed", time.Since(start)),
				}
				if withState {
					attrs = append(attrs, slog.Any("state", in.LastState()))
				}
				logger.LogAttrs(ctx, level, "dispatch", attrs...)
				return result
			})
		}
	}
}
