package observability

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// ResourceAttrOf reports the string value of key on the resource built
// from cfg.
func ResourceAttrOf(cfg Config, key string) (string, bool, error) {
	res, err := buildResource(cfg)
	if err != nil {
		return "", false, err
	}

	for _, attr := range res.Attributes() {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true, nil
		}
	}

	return "", false, nil
}

// RecordedSpans starts one root span per name using the sampler
// resolved from cfg, wrapped in the span filter unless cfg.TraceVerbose is
// set, and returns the names that reached the exporter.
func RecordedSpans(cfg Config, names ...string) []string {
	exporter := tracetest.NewInMemoryExporter()
	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(selectSampler(cfg)),
	)

	var tp trace.TracerProvider = sdk
	if !cfg.TraceVerbose {
		tp = NewFilteringTracerProvider(sdk)
	}

	tracer := tp.Tracer("sampling")
	for _, name := range names {
		_, span := tracer.Start(context.Background(), name)
		span.End()
	}

	// Read before Shutdown, which resets the exporter.
	spans := exporter.GetSpans()
	_ = sdk.Shutdown(context.Background())

	recorded := make([]string, 0, len(spans))
	for _, s := range spans {
		recorded = append(recorded, s.Name)
	}

	return recorded
}

// SampledUnder reports whether a single catalogue span is recorded under cfg.
func SampledUnder(cfg Config) bool {
	return len(RecordedSpans(cfg, "localekeys.catalog.parse_locales")) > 0
}
