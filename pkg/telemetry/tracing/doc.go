/*
Package tracing provides OpenTelemetry distributed tracing for the validator
service.

Spans are exported over OTLP/gRPC to a collector (Jaeger, Tempo and the
OpenTelemetry Collector all accept it). The API server opens one span per
request, named after the route template, and the store adds child spans for
its writes and aggregate queries. pkg/client injects the W3C traceparent
header from its request context, so a caller that traces its own work sees
the server spans joined to it.

# Configuration

	telemetry:
	  tracing:
	    enabled: true
	    endpoint: "otel-collector:4317"
	    insecure: true
	    sampler: ratio
	    sample_ratio: 0.1

# Usage

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
	if err != nil {
		return err
	}
	defer tracer.Shutdown(context.Background())

	ctx, span := tracer.Start(ctx, "import corpus")
	defer span.End()

When tracing is disabled New returns a noop tracer and the global provider
is left untouched.
*/
package tracing
