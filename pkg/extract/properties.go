package extract

import (
	"context"

	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
	"github.com/Sumatoshi-tech/localekeys/pkg/syntax"
)

// property returns the keys one object member contributes.
func (e *Extractor) property(
	ctx context.Context, path string, prop syntax.Property, stmts []syntax.Statement, visiting visitSet,
) (result, error) {
	switch p := prop.(type) {
	case *syntax.KeyValue:
		return keyValue(path, p), nil
	case *syntax.Spread:
		return e.spread(ctx, path, p, stmts, visiting)
	default:
		// Methods, accessors and unknown members declare no key.
		return result{}, nil
	}
}

// keyValue handles `key: value`, `'key': value` and shorthand `key`.
// Numeric, computed and empty keys are dropped.
func keyValue(path string, kv *syntax.KeyValue) result {
	var (
		name string
		span syntax.Span
	)

	switch key := kv.Key.(type) {
	case *syntax.StringLiteral:
		name, span = key.Value, key.Span
	case *syntax.Identifier:
		name, span = key.Name, key.Span
	default:
		return result{}
	}

	if name == "" {
		return result{}
	}

	return result{keys: []locale.Key{{
		Key:        name,
		Location:   location(span),
		FilePath:   path,
		SourcePath: path,
	}}}
}

// spread handles `...name`. Only plain identifiers are followed.
func (e *Extractor) spread(
	ctx context.Context, path string, sp *syntax.Spread, stmts []syntax.Statement, visiting visitSet,
) (result, error) {
	id, ok := sp.Argument.(*syntax.Identifier)
	if !ok {
		return result{}, nil
	}

	return e.resolveSpread(ctx, path, id.Name, stmts, visiting)
}

func location(span syntax.Span) locale.Location {
	return locale.Location{
		StartLine:   span.StartLine,
		StartColumn: span.StartColumn,
		EndLine:     span.EndLine,
		EndColumn:   span.EndColumn,
	}
}
