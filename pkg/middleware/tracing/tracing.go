// Package tracing wraps every dispatch in an OpenTelemetry span.
package tracing

import (
	"context"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/middleware"
	"github.com/wilhg/redux/pkg/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanName is the name of the span started for each dispatch.
const SpanName = "redux.dispatch"

const instrumentation = "github.com/wilhg/redux/pkg/middleware/tracing"

type options struct {
	provider trace.TracerProvider
}

// Option configures the middleware.
type Option func(*options)

// WithTracerProvider uses tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.provider = tp
		}
	}
}

// Middleware starts a span per action. The span covers the synchronous part
// of the inner dispatch; a failure already known when the inner dispatcher
// returns is recorded on it.
func Middleware[S any](opts ...Option) middleware.Middleware[S] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return func(middleware.Input[S]) func(middleware.DispatchWrapper) middleware.DispatchWrapper {
		provider := o.provider
		if provider == nil {
			provider = otel.GetTracerProvider()
		}
		tr := provider.Tracer(instrumentation)
		return func(next middleware.DispatchWrapper) middleware.DispatchWrapper {
			return next.Wrap("tracing", func(action store.Action) awaitable.Awaitable[any] {
				_, span := tr.Start(context.Background(), SpanName, trace.WithAttributes(
					attribute.String("action.type", action.Type()),
					attribute.String("dispatch.chain", next.ID),
				))
				defer span.End()
				result := next.Dispatch(action)
				if p, ok := result.(interface{ Done() <-chan struct{} }); ok {
					select {
					case <-p.Done():
						if _, err := result.Await(); err != nil {
							span.RecordError(err)
							span.SetStatus(codes.Error, err.Error())
						}
					default:
					}
				}
				return result
			})
		}
	}
}
