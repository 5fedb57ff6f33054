package testclient

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-champion/internal/ports"
)

// tracedCore wraps every test call in a span.
type tracedCore struct {
	next   Core
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that opens a "test.invoke" span per
// call using the global tracer provider.
func TracingMiddleware(tracerName string) Middleware {
	tracer := otel.Tracer(tracerName)
	return func(next Core) Core {
		return &tracedCore{
			next:   next,
			tracer: tracer,
		}
	}
}

// Invoke executes the call within a span carrying the endpoint, subject and
// response status.
func (t *tracedCore) Invoke(ctx context.Context, endpoint, guid string) ([]byte, error) {
	ctx, span := t.tracer.Start(ctx, "test.invoke",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("test.endpoint", endpoint),
			attribute.String("test.subject", guid),
		),
	)
	defer span.End()

	body, err := t.next.Invoke(ctx, endpoint, guid)

	var ie *ports.InvocationError
	if errors.As(err, &ie) && ie.StatusCode > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", ie.StatusCode))
	}
	span.SetAttributes(attribute.String("test.status", Status(err)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("test.response.bytes", len(body)))
	return body, nil
}
