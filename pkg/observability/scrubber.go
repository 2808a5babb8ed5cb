package observability

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// exportedPrefixes are the attribute namespaces localekeys emits. Anything
// else set by instrumented libraries is dropped before export.
var exportedPrefixes = []string{
	"localekeys.",
	"catalog.",
	"locale.",
	"file.",
	"spread.",
	"mcp.",
	"lsp.",
	"error.",
}

// exportedKeys are exact attribute keys kept besides the prefixed ones.
var exportedKeys = map[string]bool{
	"error":   true,
	"workers": true,
}

// pathKeys hold filesystem paths and are rewritten relative to the
// scrubber root.
var pathKeys = map[string]bool{
	"file.path":     true,
	"spread.target": true,
}

// ScrubOptions configures NewSpanScrubber.
type ScrubOptions struct {
	// Root is the directory locale paths are reported relative to. Paths
	// outside Root are reduced to their base name. Empty keeps paths as is.
	Root string

	// Logger, when set, receives a warning for each dropped attribute.
	Logger *slog.Logger
}

// spanScrubber is a SpanProcessor that drops foreign attributes and keeps
// absolute locale paths out of exported spans.
type spanScrubber struct {
	delegate sdktrace.SpanProcessor
	root     string
	logger   *slog.Logger
}

// NewSpanScrubber wraps delegate so that ended spans only carry localekeys
// attributes, with path attributes made relative to opts.Root.
func NewSpanScrubber(delegate sdktrace.SpanProcessor, opts ScrubOptions) sdktrace.SpanProcessor {
	root := opts.Root
	if root != "" {
		root = filepath.Clean(root)
	}

	return &spanScrubber{delegate: delegate, root: root, logger: opts.Logger}
}

// OnStart delegates to the wrapped processor.
func (s *spanScrubber) OnStart(parent context.Context, span sdktrace.ReadWriteSpan) {
	s.delegate.OnStart(parent, span)
}

// OnEnd scrubs attributes, then delegates to the wrapped processor.
func (s *spanScrubber) OnEnd(span sdktrace.ReadOnlySpan) {
	s.delegate.OnEnd(&scrubbedSpan{ReadOnlySpan: span, attrs: s.scrub(span.Attributes())})
}

// Shutdown delegates to the wrapped processor.
func (s *spanScrubber) Shutdown(ctx context.Context) error {
	err := s.delegate.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("span scrubber shutdown: %w", err)
	}

	return nil
}

// ForceFlush delegates to the wrapped processor.
func (s *spanScrubber) ForceFlush(ctx context.Context) error {
	err := s.delegate.ForceFlush(ctx)
	if err != nil {
		return fmt.Errorf("span scrubber flush: %w", err)
	}

	return nil
}

func (s *spanScrubber) scrub(attrs []attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))

	for _, kv := range attrs {
		key := string(kv.Key)
		if !exported(key) {
			if s.logger != nil {
				s.logger.Warn("span attribute dropped", "key", key)
			}

			continue
		}

		if pathKeys[key] && kv.Value.Type() == attribute.STRING {
			kv = attribute.String(key, s.relative(kv.Value.AsString()))
		}

		out = append(out, kv)
	}

	return out
}

// relative reports path against the root, or its base name when it lies
// outside the root.
func (s *spanScrubber) relative(path string) string {
	if s.root == "" || !filepath.IsAbs(path) {
		return path
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}

	return filepath.ToSlash(rel)
}

func exported(key string) bool {
	if exportedKeys[key] {
		return true
	}

	for _, prefix := range exportedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}

	return false
}

// scrubbedSpan is a ReadOnlySpan with a replaced attribute set.
type scrubbedSpan struct {
	sdktrace.ReadOnlySpan

	attrs []attribute.KeyValue
}

// Attributes returns the scrubbed attributes.
func (s *scrubbedSpan) Attributes() []attribute.KeyValue {
	return s.attrs
}
