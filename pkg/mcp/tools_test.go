package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
)

var errWalk = errors.New("walk failed")

func fixture() []locale.Locale {
	en := "/app/locales/en.ts"
	fr := "/app/locales/fr.ts"

	return []locale.Locale{
		{Lang: "en", FilePath: en, Keys: []locale.Key{
			{Key: "greeting", FilePath: en, SourcePath: en, Location: locale.Location{StartLine: 2, StartColumn: 2, EndLine: 2, EndColumn: 10}},
			{Key: "farewell", FilePath: en, SourcePath: en, Location: locale.Location{StartLine: 3, StartColumn: 2, EndLine: 3, EndColumn: 10}},
		}},
		{Lang: "fr", FilePath: fr, Keys: []locale.Key{
			{Key: "greeting", FilePath: fr, SourcePath: fr, Location: locale.Location{StartLine: 2, StartColumn: 2, EndLine: 2, EndColumn: 10}},
		}},
	}
}

type recordingLoader struct {
	roots []string
	err   error
}

func (l *recordingLoader) load(_ context.Context, root string) ([]locale.Locale, error) {
	l.roots = append(l.roots, root)
	if l.err != nil {
		return nil, l.err
	}

	return fixture(), nil
}

func newTestServer(t *testing.T, loader *recordingLoader, defaultRoot string) *Server {
	t.Helper()

	srv, err := NewServer(ServerDeps{Loader: loader.load, DefaultRoot: defaultRoot})
	require.NoError(t, err)

	return srv
}

func resultText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestNewServer_RequiresLoader(t *testing.T) {
	t.Parallel()

	_, err := NewServer(ServerDeps{})
	require.ErrorIs(t, err, ErrNoLoader)
}

func TestServer_ListToolNames(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &recordingLoader{}, "")
	assert.Equal(t, []string{ToolNameCatalogue, ToolNameKeyLookup}, srv.ListToolNames())
}

func TestHandleCatalogue_RootValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		defaultRoot string
		root        string
		wantText    string
		wantRoot    string
	}{
		{name: "missing root", wantText: "root parameter is required"},
		{name: "relative root", root: "locales", wantText: "absolute path"},
		{name: "default root", defaultRoot: "/app", wantRoot: "/app"},
		{name: "explicit root wins", defaultRoot: "/app", root: "/other/../srv/", wantRoot: "/srv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			loader := &recordingLoader{}
			srv := newTestServer(t, loader, tt.defaultRoot)

			result, _, err := srv.handleCatalogue(context.Background(), &mcpsdk.CallToolRequest{}, CatalogueInput{Root: tt.root})
			require.NoError(t, err)

			if tt.wantText != "" {
				assert.True(t, result.IsError)
				assert.Contains(t, resultText(t, result), tt.wantText)
				assert.Empty(t, loader.roots)

				return
			}

			assert.False(t, result.IsError)
			assert.Equal(t, []string{tt.wantRoot}, loader.roots)
		})
	}
}

func TestHandleCatalogue_Full(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &recordingLoader{}, "/app")

	result, out, err := srv.handleCatalogue(context.Background(), &mcpsdk.CallToolRequest{}, CatalogueInput{})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, fixture(), out.Data)

	var decoded []locale.Locale

	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, fixture(), decoded)
}

func TestHandleCatalogue_LangFilterAndSummary(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &recordingLoader{}, "/app")

	result, out, err := srv.handleCatalogue(context.Background(), &mcpsdk.CallToolRequest{},
		CatalogueInput{Lang: "FR", Summary: true})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, CatalogueSummary{
		Files:     1,
		Keys:      1,
		Languages: []string{"fr"},
		PerLang:   map[string]int{"fr": 1},
	}, out.Data)

	_, out, err = srv.handleCatalogue(context.Background(), &mcpsdk.CallToolRequest{}, CatalogueInput{Lang: "de"})
	require.NoError(t, err)
	assert.Equal(t, []locale.Locale{}, out.Data)
}

func TestHandleCatalogue_LoaderError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &recordingLoader{err: errWalk}, "/app")

	result, _, err := srv.handleCatalogue(context.Background(), &mcpsdk.CallToolRequest{}, CatalogueInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "walk failed")
}

func TestHandleKeyLookup(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &recordingLoader{}, "/app")

	result, out, err := srv.handleKeyLookup(context.Background(), &mcpsdk.CallToolRequest{}, KeyLookupInput{Key: "farewell"})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	got, ok := out.Data.(KeyLookup)
	require.True(t, ok)
	assert.True(t, got.Found)
	require.Len(t, got.Definitions, 1)
	assert.Equal(t, "en", got.Definitions[0].Lang)
	assert.Equal(t, 3, got.Definitions[0].Location.StartLine)
	assert.Equal(t, []string{"fr"}, got.Missing)
	assert.Empty(t, got.Suggestions)

	_, out, err = srv.handleKeyLookup(context.Background(), &mcpsdk.CallToolRequest{}, KeyLookupInput{Key: "nope"})
	require.NoError(t, err)

	got, ok = out.Data.(KeyLookup)
	require.True(t, ok)
	assert.False(t, got.Found)
	assert.Empty(t, got.Definitions)
	assert.Equal(t, []string{"en", "fr"}, got.Missing)
	assert.Empty(t, got.Suggestions)

	_, out, err = srv.handleKeyLookup(context.Background(), &mcpsdk.CallToolRequest{}, KeyLookupInput{Key: "greting"})
	require.NoError(t, err)

	got, ok = out.Data.(KeyLookup)
	require.True(t, ok)
	assert.False(t, got.Found)
	assert.Equal(t, []string{"greeting"}, got.Suggestions)
}

func TestHandleKeyLookup_EmptyKey(t *testing.T) {
	t.Parallel()

	loader := &recordingLoader{}
	srv := newTestServer(t, loader, "/app")

	result, _, err := srv.handleKeyLookup(context.Background(), &mcpsdk.CallToolRequest{}, KeyLookupInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "key parameter is required")
	assert.Empty(t, loader.roots)
}
