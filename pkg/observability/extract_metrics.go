package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal   = "localekeys.extract.files.total"
	metricKeysTotal    = "localekeys.extract.keys.total"
	metricFileDuration = "localekeys.extract.file.duration.seconds"
	metricSpreadsTotal = "localekeys.extract.spreads.total"
	metricLocalesTotal = "localekeys.catalog.locales.total"

	attrOutcome = "outcome"
)

// File outcomes recorded by ExtractMetrics.RecordFile.
const (
	FileLocale    = "locale"
	FileNotLocale = "not_locale"
	FileFailed    = "failed"
)

// Spread outcomes recorded by ExtractMetrics.RecordSpread.
const (
	SpreadResolved   = "resolved"
	SpreadUnresolved = "unresolved"
	SpreadCycle      = "cycle"
	SpreadCached     = "cached"
)

// fileBucketBoundaries covers sub-millisecond small modules to multi-second
// generated catalogues.
var fileBucketBoundaries = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5}

// ExtractMetrics holds the instruments for key extraction. A nil
// *ExtractMetrics records nothing.
type ExtractMetrics struct {
	files        metric.Int64Counter
	keys         metric.Int64Counter
	fileDuration metric.Float64Histogram
	spreads      metric.Int64Counter
	locales      metric.Int64Counter
}

// NewExtractMetrics creates extraction instruments from the given meter.
func NewExtractMetrics(mt metric.Meter) (*ExtractMetrics, error) {
	b := newMetricBuilder(mt)

	em := &ExtractMetrics{
		files:        b.counter(metricFilesTotal, "Source files extracted by outcome", "{file}"),
		keys:         b.counter(metricKeysTotal, "Locale keys extracted", "{key}"),
		fileDuration: b.histogram(metricFileDuration, "Per-file extraction duration in seconds", "s", fileBucketBoundaries...),
		spreads:      b.counter(metricSpreadsTotal, "Spread elements by resolution outcome", "{spread}"),
		locales:      b.counter(metricLocalesTotal, "Locale records produced", "{locale}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return em, nil
}

// RecordFile records one top-level file extraction.
func (em *ExtractMetrics) RecordFile(ctx context.Context, outcome string, keys int, duration time.Duration) {
	if em == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))

	em.files.Add(ctx, 1, attrs)
	em.fileDuration.Record(ctx, duration.Seconds(), attrs)

	if keys > 0 {
		em.keys.Add(ctx, int64(keys))
	}
}

// RecordSpread records how one spread element was resolved.
func (em *ExtractMetrics) RecordSpread(ctx context.Context, outcome string) {
	if em == nil {
		return
	}

	em.spreads.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// RecordLocales records the size of a finished catalogue.
func (em *ExtractMetrics) RecordLocales(ctx context.Context, n int) {
	if em == nil {
		return
	}

	em.locales.Add(ctx, int64(n))
}
