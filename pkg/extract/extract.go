// Package extract finds the translation keys declared by a locale module: a
// TypeScript or JavaScript file whose default export is an object literal.
// Keys pulled in by spreading a default-imported object are resolved across
// files.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
	"github.com/Sumatoshi-tech/localekeys/pkg/observability"
	"github.com/Sumatoshi-tech/localekeys/pkg/syntax"
)

const (
	// DefaultMaxFileSize bounds the size of a single source file.
	DefaultMaxFileSize int64 = 4 << 20

	// DefaultCacheSize is the number of extracted files kept for reuse by spreads.
	DefaultCacheSize = 512
)

// ErrFileTooLarge is returned for source files above the configured size limit.
var ErrFileTooLarge = errors.New("file too large")

// Deps holds the collaborators of an Extractor. Zero-value fields use
// production defaults.
type Deps struct {
	// Fs is the filesystem locale files are read from. Nil uses the OS filesystem.
	Fs afero.Fs

	// Parser parses source files. Nil creates a new one.
	Parser *syntax.Parser

	// Logger receives debug and warning records. Nil uses slog default.
	Logger *slog.Logger

	// Tracer records a span per extracted file. Nil disables tracing.
	Tracer trace.Tracer

	// Metrics records per-file and per-spread outcomes. Nil disables metrics.
	Metrics *observability.ExtractMetrics

	// MaxFileSize is the largest file read, in bytes. Zero uses DefaultMaxFileSize.
	MaxFileSize int64

	// CacheSize is the number of extraction results kept. Zero uses
	// DefaultCacheSize, a negative value disables the cache.
	CacheSize int
}

// Extractor extracts locale keys from source files. It is safe for concurrent use.
type Extractor struct {
	fs          afero.Fs
	parser      *syntax.Parser
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *observability.ExtractMetrics
	maxFileSize int64
	cache       *lru.Cache[string, result]
}

// New creates an Extractor from deps.
func New(deps Deps) (*Extractor, error) {
	e := &Extractor{
		fs:          deps.Fs,
		parser:      deps.Parser,
		logger:      deps.Logger,
		tracer:      deps.Tracer,
		metrics:     deps.Metrics,
		maxFileSize: deps.MaxFileSize,
	}

	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}

	if e.parser == nil {
		e.parser = syntax.NewParser()
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	if e.tracer == nil {
		e.tracer = nooptrace.NewTracerProvider().Tracer("localekeys")
	}

	if e.maxFileSize <= 0 {
		e.maxFileSize = DefaultMaxFileSize
	}

	size := deps.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}

	if size > 0 {
		cache, err := lru.New[string, result](size)
		if err != nil {
			return nil, fmt.Errorf("create extraction cache: %w", err)
		}

		e.cache = cache
	}

	return e, nil
}

// result is the outcome of extracting one file.
type result struct {
	// keys is nil when the file is not a locale module.
	keys []locale.Key
	// deps lists every file consulted to produce keys, the file itself
	// first, with the version seen.
	deps []dependency
	// cuts lists in-progress files whose spreads were skipped to break a cycle.
	cuts []string
	// cached is set when the result came from the cache.
	cached bool
}

// ExtractFile returns the keys declared by the default-exported object literal
// of path. A nil slice means path is not a locale module; an empty slice means
// a locale module without keys. Read and parse errors are returned, including
// those of files reached through a spread.
func (e *Extractor) ExtractFile(ctx context.Context, path string) ([]locale.Key, error) {
	path = cleanPath(path)

	ctx, span := e.tracer.Start(ctx, observability.SpanExtractFile,
		trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	ctx = observability.ContextWithLogAttrs(ctx, slog.String("locale.file", path))

	start := time.Now()

	res, err := e.extract(ctx, path, newVisitSet())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		e.metrics.RecordFile(ctx, observability.FileFailed, 0, time.Since(start))

		return nil, err
	}

	outcome := observability.FileLocale
	if res.keys == nil {
		outcome = observability.FileNotLocale
	}

	span.SetAttributes(
		attribute.Int("locale.keys", len(res.keys)),
		attribute.Bool("locale.module", res.keys != nil),
	)
	e.metrics.RecordFile(ctx, outcome, len(res.keys), time.Since(start))

	e.logger.DebugContext(ctx, "extracted locale file",
		slog.Int("keys", len(res.keys)),
		slog.Bool("locale", res.keys != nil),
	)

	return slices.Clone(res.keys), nil
}

// extract runs the full extraction of path with the set of files currently
// being resolved above it.
func (e *Extractor) extract(ctx context.Context, path string, visiting visitSet) (result, error) {
	if err := ctx.Err(); err != nil {
		return result{}, fmt.Errorf("extract %s: %w", path, err)
	}

	info, err := e.statSource(ctx, path)
	if err != nil {
		return result{}, err
	}

	stamp := cacheKey(path, info)
	if cached, ok := e.lookup(stamp, visiting); ok {
		return cached, nil
	}

	src, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return result{}, fmt.Errorf("read %s: %w", path, err)
	}

	mod, err := e.parser.Parse(ctx, path, src)
	if err != nil {
		return result{}, fmt.Errorf("parse %s: %w", path, err)
	}

	visiting.enter(path)
	defer visiting.leave(path)

	res := result{deps: []dependency{{path: path, stamp: stamp}}}

	obj := exportedObject(mod)
	if obj == nil {
		e.store(stamp, res)

		return res, nil
	}

	res.keys = make([]locale.Key, 0, len(obj.Properties))

	for _, prop := range obj.Properties {
		contrib, err := e.property(ctx, path, prop, mod.Statements, visiting)
		if err != nil {
			return result{}, err
		}

		res.keys = append(res.keys, contrib.keys...)
		res.deps = mergeDeps(res.deps, contrib.deps)
		res.cuts = mergePaths(res.cuts, contrib.cuts)
	}

	res.cuts = slices.DeleteFunc(res.cuts, func(p string) bool { return p == path })
	e.store(stamp, res)

	return res, nil
}

// exportedObject returns the object literal exported by the first default
// export, looking through one type-assertion wrapper.
func exportedObject(mod *syntax.Module) *syntax.ObjectLiteral {
	for _, stmt := range mod.Statements {
		export, ok := stmt.(*syntax.ExportDefault)
		if !ok {
			continue
		}

		value := export.Value
		if wrapped, isWrapped := value.(*syntax.TypeAssertion); isWrapped {
			value = wrapped.Expr
		}

		obj, _ := value.(*syntax.ObjectLiteral)

		return obj
	}

	return nil
}

// lookup returns a cached result whose dependencies are all unchanged and
// not currently being resolved; reusing one on the resolution stack would
// bypass the cycle guard.
func (e *Extractor) lookup(stamp string, visiting visitSet) (result, bool) {
	if e.cache == nil {
		return result{}, false
	}

	cached, ok := e.cache.Get(stamp)
	if !ok {
		return result{}, false
	}

	for _, dep := range cached.deps {
		if visiting.has(dep.path) || e.stampOf(dep.path) != dep.stamp {
			return result{}, false
		}
	}

	cached.cached = true

	return cached, true
}

// store caches res unless it was shaped by a cycle cut above it.
func (e *Extractor) store(stamp string, res result) {
	if e.cache == nil || len(res.cuts) > 0 {
		return
	}

	e.cache.Add(stamp, res)
}

// dependency is a file consulted during extraction. An empty stamp records
// that the file did not exist.
type dependency struct {
	path  string
	stamp string
}

// mergeDeps appends the entries of extra whose path is missing from deps.
func mergeDeps(deps, extra []dependency) []dependency {
	for _, d := range extra {
		if !slices.ContainsFunc(deps, func(have dependency) bool { return have.path == d.path }) {
			deps = append(deps, d)
		}
	}

	return deps
}

// mergePaths appends the entries of extra missing from paths.
func mergePaths(paths, extra []string) []string {
	for _, p := range extra {
		if !slices.Contains(paths, p) {
			paths = append(paths, p)
		}
	}

	return paths
}

// visitSet holds the files on the current resolution stack.
type visitSet map[string]struct{}

func newVisitSet() visitSet {
	return make(visitSet)
}

func (v visitSet) enter(path string) { v[path] = struct{}{} }

func (v visitSet) leave(path string) { delete(v, path) }

func (v visitSet) has(path string) bool {
	_, ok := v[path]

	return ok
}
