// Package catalog builds the locale catalogue: every discovered locale file is
// extracted concurrently and turned into one Locale record.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/localekeys/pkg/alg/mapx"
	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
	"github.com/Sumatoshi-tech/localekeys/pkg/observability"
)

const spanParseLocales = "localekeys.catalog.parse_locales"

// Discoverer lists locale files and tags them with a language.
type Discoverer interface {
	// LocaleFiles returns candidate paths grouped by directory.
	LocaleFiles(ctx context.Context) ([][]string, error)
	// Lang derives the language tag of a path. It must be pure.
	Lang(path string) string
}

// FileExtractor extracts the keys of one file. A nil result means the file is
// not a locale module.
type FileExtractor interface {
	ExtractFile(ctx context.Context, path string) ([]locale.Key, error)
}

// Deps holds the collaborators of a Builder. Discoverer and Extractor are
// required; other zero-value fields use defaults.
type Deps struct {
	Discoverer Discoverer
	Extractor  FileExtractor

	// Workers bounds concurrent extractions. Zero uses the number of CPUs.
	Workers int

	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.ExtractMetrics
}

// Builder produces catalogues.
type Builder struct {
	discoverer Discoverer
	extractor  FileExtractor
	workers    int
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *observability.ExtractMetrics
}

// NewBuilder creates a Builder from deps.
func NewBuilder(deps Deps) *Builder {
	b := &Builder{
		discoverer: deps.Discoverer,
		extractor:  deps.Extractor,
		workers:    deps.Workers,
		logger:     deps.Logger,
		tracer:     deps.Tracer,
		metrics:    deps.Metrics,
	}

	if b.workers <= 0 {
		b.workers = runtime.NumCPU()
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}

	if b.tracer == nil {
		b.tracer = nooptrace.NewTracerProvider().Tracer("localekeys")
	}

	return b
}

// ParseLocales discovers locale files, extracts them concurrently and returns
// one Locale per discovered file in discovery order. sink gets Start before
// any extraction and Parsed after each one. The first error cancels the
// remaining work and is returned without a catalogue.
func (b *Builder) ParseLocales(ctx context.Context, sink Sink) ([]locale.Locale, error) {
	if sink == nil {
		sink = NopSink{}
	}

	ctx, span := b.tracer.Start(ctx, spanParseLocales)
	defer span.End()

	start := time.Now()

	groups, err := b.discoverer.LocaleFiles(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "discovery failed")

		return nil, fmt.Errorf("discover locale files: %w", err)
	}

	paths := mapx.Flatten(groups)
	sink.Start(mapx.CloneSlice(paths))

	span.SetAttributes(
		attribute.Int("catalog.files", len(paths)),
		attribute.Int("workers", b.workers),
	)

	results, err := b.extractAll(ctx, paths, sink)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")

		return nil, err
	}

	locales := make([]locale.Locale, len(paths))

	for i, path := range paths {
		keys := results[i]
		if keys == nil {
			keys = []locale.Key{}
		}

		locales[i] = locale.Locale{
			Lang:     b.discoverer.Lang(path),
			FilePath: path,
			Keys:     keys,
		}
	}

	total := locale.CountKeys(locales)

	span.SetAttributes(attribute.Int("catalog.keys", total))
	b.metrics.RecordLocales(ctx, len(locales))

	b.logger.InfoContext(ctx, "catalogue built",
		slog.Int("files", len(paths)),
		slog.Int("keys", total),
		slog.Duration("elapsed", time.Since(start)),
	)

	return locales, nil
}

// extractAll runs the extractor over paths with at most b.workers in flight.
// results[i] belongs to paths[i].
func (b *Builder) extractAll(ctx context.Context, paths []string, sink Sink) ([][]locale.Key, error) {
	results := make([][]locale.Key, len(paths))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(b.workers)

	scheduled := 0

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}

		scheduled++

		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			keys, err := b.extractor.ExtractFile(gctx, path)
			if err != nil {
				return err
			}

			results[i] = keys
			sink.Parsed(path)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Scheduling stopped early on a canceled context with no task failing.
	if scheduled < len(paths) {
		return nil, fmt.Errorf("parse locales: %w", ctx.Err())
	}

	return results, nil
}
