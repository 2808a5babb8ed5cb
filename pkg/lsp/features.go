package lsp

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
)

func (srv *Server) keyUnderCursor(uri string, pos protocol.Position) string {
	text, ok := srv.store.Get(uri)
	if !ok {
		return ""
	}

	return keyAt(text, position(pos))
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	var result *protocol.Hover

	err := srv.observe(srv.base, "hover", func(_ context.Context, span trace.Span) error {
		key := srv.keyUnderCursor(params.TextDocument.URI, params.Position)
		if key == "" {
			return nil
		}

		idx := srv.Index()

		defs := idx.Lookup(key)
		span.SetAttributes(attribute.String("locale.key", key), attribute.Int("locale.definitions", len(defs)))

		if len(defs) == 0 {
			return nil
		}

		result = &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: hoverMarkdown(key, defs, idx.Languages()),
			},
		}

		return nil
	})

	return result, err
}

func (srv *Server) definition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	var result []protocol.Location

	err := srv.observe(srv.base, "definition", func(_ context.Context, _ trace.Span) error {
		key := srv.keyUnderCursor(params.TextDocument.URI, params.Position)
		if key == "" {
			return nil
		}

		result = definitionLocations(srv.Index().Lookup(key))

		return nil
	})
	if err != nil || len(result) == 0 {
		return nil, err
	}

	return result, nil
}

func (srv *Server) completion(_ *glsp.Context, _ *protocol.CompletionParams) (any, error) {
	var items []protocol.CompletionItem

	err := srv.observe(srv.base, "completion", func(_ context.Context, span trace.Span) error {
		idx := srv.Index()
		keys := idx.Keys()
		span.SetAttributes(attribute.Int("locale.keys", len(keys)))

		items = make([]protocol.CompletionItem, 0, len(keys))
		for _, key := range keys {
			items = append(items, completionItem(key, strings.Join(languagesOf(idx.Lookup(key)), ", ")))
		}

		return nil
	})

	return protocol.CompletionList{IsIncomplete: false, Items: items}, err
}

func completionItem(label, detail string) protocol.CompletionItem {
	kind := protocol.CompletionItemKindValue

	return protocol.CompletionItem{
		Label:  label,
		Kind:   &kind,
		Detail: &detail,
	}
}

// hoverMarkdown lists where key is defined per language and which languages lack it.
func hoverMarkdown(key string, defs []locale.Definition, languages []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**`%s`**\n\n", key)

	for _, d := range defs {
		fmt.Fprintf(&b, "- `%s` %s", d.Lang, displayLocation(d.Key))

		if d.Spread() {
			fmt.Fprintf(&b, " (spread into %s)", d.FilePath)
		}

		b.WriteString("\n")
	}

	defined := languagesOf(defs)

	var missing []string

	for _, lang := range languages {
		if !slices.Contains(defined, lang) {
			missing = append(missing, "`"+lang+"`")
		}
	}

	if len(missing) > 0 {
		fmt.Fprintf(&b, "\nMissing in: %s\n", strings.Join(missing, ", "))
	}

	return b.String()
}

func displayLocation(k locale.Key) string {
	return sourceOf(k) + ":" + strconv.Itoa(k.Location.StartLine) + ":" + strconv.Itoa(k.Location.StartColumn+1)
}

func sourceOf(k locale.Key) string {
	if k.SourcePath != "" {
		return k.SourcePath
	}

	return k.FilePath
}

func languagesOf(defs []locale.Definition) []string {
	langs := make([]string, 0, len(defs))

	for _, d := range defs {
		if !slices.Contains(langs, d.Lang) {
			langs = append(langs, d.Lang)
		}
	}

	return langs
}

// definitionLocations maps definitions to LSP locations, one per distinct source span.
func definitionLocations(defs []locale.Definition) []protocol.Location {
	type spot struct {
		path string
		loc  locale.Location
	}

	seen := make(map[spot]bool, len(defs))
	locations := make([]protocol.Location, 0, len(defs))

	for _, d := range defs {
		s := spot{path: sourceOf(d.Key), loc: d.Location}
		if seen[s] {
			continue
		}

		seen[s] = true

		locations = append(locations, protocol.Location{
			URI:   uriFromPath(s.path),
			Range: lspRange(s.loc),
		})
	}

	return locations
}

func lspRange(loc locale.Location) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Line:      protocol.UInteger(max(loc.StartLine-1, 0)), //nolint:gosec // non-negative
			Character: protocol.UInteger(max(loc.StartColumn, 0)), //nolint:gosec // non-negative
		},
		End: protocol.Position{
			Line:      protocol.UInteger(max(loc.EndLine-1, 0)), //nolint:gosec // non-negative
			Character: protocol.UInteger(max(loc.EndColumn, 0)), //nolint:gosec // non-negative
		},
	}
}
