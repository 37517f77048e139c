package store

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"creotrail/validator/pkg/config"
	"creotrail/validator/pkg/telemetry/tracing"
)

func TestStoreSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	exporter := tracetest.NewInMemoryExporter()
	tr, err := tracing.NewWithExporter(&config.TracingConfig{Enabled: true, Sampler: tracing.SamplerAlways, ServiceName: "test"}, exporter, "dev")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	s, _ := newTestStore(t, "sqlite", LayoutShared)
	u := mustCreateUser(t, s, "ada", "")

	ctx, root := tr.Start(context.Background(), "review")
	mustImport(t, s, testCorpus())
	if err := s.MarkCommand(ctx, u.ID, 10, "echo", Dynamic); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkCommand(ctx, 999, 10, "echo", Dynamic); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MarkCommand(unknown) = %v", err)
	}
	if _, err := s.History(ctx, u.ID, HistoryFilter{}); err != nil {
		t.Fatal(err)
	}
	root.End()

	if err := tr.ForceFlush(context.Background()); err != nil {
		t.Fatal(err)
	}

	var marks, failed int
	for _, span := range exporter.GetSpans() {
		switch span.Name {
		case "store.MarkCommand":
			marks++
			if span.Parent.SpanID() != root.SpanContext().SpanID() {
				t.Error("MarkCommand span is not a child of the caller span")
			}
			if span.Status.Code == codes.Error {
				failed++
			}
		case "store.History":
			for _, kv := range span.Attributes {
				if kv.Key == "creotrail.rows" && kv.Value.AsInt64() != 1 {
					t.Errorf("history rows attribute = %d, want 1", kv.Value.AsInt64())
				}
			}
		}
	}
	if marks != 2 || failed != 1 {
		t.Errorf("MarkCommand spans = %d (failed %d), want 2 with 1 failed", marks, failed)
	}
}
