package store

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "creotrail/validator/pkg/store"

// startSpan looks the global provider up on every call, so store spans are
// noops until a tracer is installed.
func (s *SQLStore) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	system := "sqlite"
	if s.dialect.postgres {
		system = "postgresql"
	}
	attrs = append(attrs,
		attribute.String("db.system", system),
		attribute.String("db.operation", op),
		attribute.String("creotrail.layout", string(s.cfg.Layout)),
	)
	return otel.Tracer(instrumentationName).Start(ctx, "store."+op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}
