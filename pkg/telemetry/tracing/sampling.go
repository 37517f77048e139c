package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	// SamplerAlways records every trace.
	SamplerAlways = "always"

	// SamplerNever records no trace.
	SamplerNever = "never"

	// SamplerRatio records a fraction of traces chosen by trace id.
	SamplerRatio = "ratio"
)

// createSampler returns the sampler for a strategy. Every sampler is
// wrapped in ParentBased, so a request that arrives with a sampled
// traceparent is always recorded and the ratio only applies to root spans.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	var base sdktrace.Sampler

	switch strategy {
	case SamplerAlways:
		base = sdktrace.AlwaysSample()
	case SamplerNever:
		base = sdktrace.NeverSample()
	case SamplerRatio, "":
		if ratio < 0 || ratio > 1 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
		}
		base = sdktrace.TraceIDRatioBased(ratio)
	default:
		return nil, fmt.Errorf("unknown sampler strategy: %s (valid: always, never, ratio)", strategy)
	}

	return sdktrace.ParentBased(base), nil
}
