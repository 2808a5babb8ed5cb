package extract

import (
	"context"
	"log/slog"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
	"github.com/Sumatoshi-tech/localekeys/pkg/observability"
	"github.com/Sumatoshi-tech/localekeys/pkg/syntax"
)

// CandidateSuffixes are appended, in order, to a resolved import specifier
// when probing for the spread target. The first existing regular file wins.
var CandidateSuffixes = []string{"", ".js", ".ts"} //nolint:gochecknoglobals // resolution policy

// ResolveSpecifier joins an import specifier onto the directory of the
// importing file. A leading slash does not make it absolute: "/x" from
// "/l/en.ts" resolves to "/l/x".
func ResolveSpecifier(fromFile, specifier string) string {
	return filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(specifier))
}

// CandidatePaths lists the paths tried for a resolved specifier, in priority order.
func CandidatePaths(resolved string) []string {
	paths := make([]string, len(CandidateSuffixes))
	for i, suffix := range CandidateSuffixes {
		paths[i] = resolved + suffix
	}

	return paths
}

// resolveSpread returns the keys contributed by spreading the identifier name
// in the object literal of path.
func (e *Extractor) resolveSpread(
	ctx context.Context, path, name string, stmts []syntax.Statement, visiting visitSet,
) (result, error) {
	ctx, span := e.tracer.Start(ctx, observability.SpanExtractSpread, trace.WithAttributes(
		attribute.String("file.path", path),
		attribute.String("spread.identifier", name),
	))
	defer span.End()

	outcome, res, err := e.followSpread(ctx, path, name, stmts, visiting)
	if err != nil {
		span.RecordError(err)

		return result{}, err
	}

	span.SetAttributes(attribute.String("spread.outcome", outcome))
	e.metrics.RecordSpread(ctx, outcome)

	return res, nil
}

func (e *Extractor) followSpread(
	ctx context.Context, path, name string, stmts []syntax.Statement, visiting visitSet,
) (string, result, error) {
	specifier, ok := defaultImportSource(stmts, name)
	if !ok {
		e.logger.DebugContext(ctx, "spread without default import",
			slog.String("path", path), slog.String("identifier", name))

		return observability.SpreadUnresolved, result{}, nil
	}

	target, misses, ok := e.firstCandidate(ResolveSpecifier(path, specifier))
	if !ok {
		e.logger.DebugContext(ctx, "spread target not found",
			slog.String("path", path), slog.String("specifier", specifier))

		return observability.SpreadUnresolved, result{deps: misses}, nil
	}

	if visiting.has(target) {
		e.logger.DebugContext(ctx, "spread cycle cut",
			slog.String("path", path), slog.String("target", target))

		return observability.SpreadCycle, result{cuts: []string{target}, deps: misses}, nil
	}

	res, err := e.extract(ctx, target, visiting)
	if err != nil {
		return "", result{}, err
	}

	res.deps = mergeDeps(misses, res.deps)

	res.keys = locale.Stamp(res.keys, path)

	outcome := observability.SpreadResolved
	if res.cached {
		outcome = observability.SpreadCached
	}

	return outcome, res, nil
}

// defaultImportSource returns the specifier of the first import that binds
// name as its default import. Only string-literal sources count.
func defaultImportSource(stmts []syntax.Statement, name string) (string, bool) {
	for _, stmt := range stmts {
		decl, ok := stmt.(*syntax.ImportDecl)
		if !ok || !bindsDefault(decl, name) {
			continue
		}

		src, isString := decl.Source.(*syntax.StringLiteral)
		if !isString {
			return "", false
		}

		return src.Value, true
	}

	return "", false
}

func bindsDefault(decl *syntax.ImportDecl, name string) bool {
	for _, spec := range decl.Specifiers {
		if spec.Default && spec.Local == name {
			return true
		}
	}

	return false
}

// firstCandidate returns the first candidate path that is a regular file, along with
// the candidates tried before it. A target appearing at one of those paths
// later changes the resolution.
func (e *Extractor) firstCandidate(resolved string) (string, []dependency, bool) {
	var misses []dependency

	for _, candidate := range CandidatePaths(resolved) {
		candidate = filepath.Clean(candidate)
		if e.stampOf(candidate) != "" {
			return candidate, misses, true
		}

		misses = append(misses, dependency{path: candidate})
	}

	return "", misses, false
}
