package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
)

// Tool name constants.
const (
	ToolNameCatalogue = "locale_catalogue"
	ToolNameKeyLookup = "locale_key_lookup"
)

// maxSuggestions caps the similar keys offered for an unknown key.
const maxSuggestions = 5

// Sentinel errors for tool input validation.
var (
	// ErrEmptyRoot indicates the root parameter is empty and no default is configured.
	ErrEmptyRoot = errors.New("root parameter is required and must not be empty")
	// ErrRootNotAbsolute indicates the root is not an absolute path.
	ErrRootNotAbsolute = errors.New("root must be an absolute path")
	// ErrEmptyKey indicates the key parameter is empty.
	ErrEmptyKey = errors.New("key parameter is required and must not be empty")
)

// CatalogueInput is the input schema for the locale_catalogue tool.
type CatalogueInput struct {
	Lang    string `json:"lang,omitempty"    jsonschema:"optional language tag; only locale files of this language are returned"`
	Root    string `json:"root,omitempty"    jsonschema:"absolute path of the directory holding the locale files"`
	Summary bool   `json:"summary,omitempty" jsonschema:"return per-language key counts instead of every key"`
}

// KeyLookupInput is the input schema for the locale_key_lookup tool.
type KeyLookupInput struct {
	Key  string `json:"key"            jsonschema:"translation key to look up"`
	Root string `json:"root,omitempty" jsonschema:"absolute path of the directory holding the locale files"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// CatalogueSummary is the locale_catalogue result when summary is requested.
type CatalogueSummary struct {
	Files     int            `json:"files"`
	Keys      int            `json:"keys"`
	Languages []string       `json:"languages"`
	PerLang   map[string]int `json:"keysPerLanguage"`
}

// KeyLookup is the locale_key_lookup result.
type KeyLookup struct {
	Key         string              `json:"key"`
	Found       bool                `json:"found"`
	Definitions []locale.Definition `json:"definitions"`
	Missing     []string            `json:"missingLanguages"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

func (s *Server) handleCatalogue(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input CatalogueInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	root, err := s.root(input.Root)
	if err != nil {
		return errorResult(err)
	}

	locales, err := s.deps.Loader(ctx, root)
	if err != nil {
		return errorResult(fmt.Errorf("extract catalogue: %w", err))
	}

	if input.Lang != "" {
		locales = slices.DeleteFunc(locales, func(l locale.Locale) bool {
			return !strings.EqualFold(l.Lang, input.Lang)
		})
	}

	if locales == nil {
		locales = []locale.Locale{}
	}

	if input.Summary {
		return jsonResult(summarize(locales))
	}

	return jsonResult(locales)
}

func (s *Server) handleKeyLookup(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input KeyLookupInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Key == "" {
		return errorResult(ErrEmptyKey)
	}

	root, err := s.root(input.Root)
	if err != nil {
		return errorResult(err)
	}

	locales, err := s.deps.Loader(ctx, root)
	if err != nil {
		return errorResult(fmt.Errorf("extract catalogue: %w", err))
	}

	return jsonResult(lookup(locale.NewIndex(locales), input.Key))
}

func (s *Server) root(requested string) (string, error) {
	root := requested
	if root == "" {
		root = s.deps.DefaultRoot
	}

	if root == "" {
		return "", ErrEmptyRoot
	}

	if !filepath.IsAbs(root) {
		return "", fmt.Errorf("%w: %q", ErrRootNotAbsolute, root)
	}

	return filepath.Clean(root), nil
}

func summarize(locales []locale.Locale) CatalogueSummary {
	sum := CatalogueSummary{
		Files:     len(locales),
		Keys:      locale.CountKeys(locales),
		Languages: []string{},
		PerLang:   make(map[string]int),
	}

	for _, l := range locales {
		if _, seen := sum.PerLang[l.Lang]; !seen {
			sum.Languages = append(sum.Languages, l.Lang)
		}

		sum.PerLang[l.Lang] += len(l.Keys)
	}

	return sum
}

func lookup(idx *locale.Index, key string) KeyLookup {
	defs := idx.Lookup(key)
	res := KeyLookup{
		Key:         key,
		Found:       len(defs) > 0,
		Definitions: defs,
		Missing:     []string{},
	}

	if res.Definitions == nil {
		res.Definitions = []locale.Definition{}
	}

	for _, lang := range idx.Languages() {
		defined := slices.ContainsFunc(defs, func(d locale.Definition) bool { return d.Lang == lang })
		if !defined {
			res.Missing = append(res.Missing, lang)
		}
	}

	if !res.Found {
		res.Suggestions = idx.Similar(key, maxSuggestions)
	}

	return res
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
