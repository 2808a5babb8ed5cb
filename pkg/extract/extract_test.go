package extract_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/localekeys/pkg/extract"
	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
	"github.com/Sumatoshi-tech/localekeys/pkg/syntax"
)

func newExtractor(t *testing.T, files map[string]string) *extract.Extractor {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	ex, err := extract.New(extract.Deps{Fs: fs})
	require.NoError(t, err)

	return ex
}

func keyNames(keys []locale.Key) []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Key
	}

	return names
}

func TestExtractFile_SpreadOfDefaultImport(t *testing.T) {
	t.Parallel()

	ex := newExtractor(t, map[string]string{
		"/locales/en.ts":     "import shared from './shared.ts'\nexport default { greeting: 'Hi', ...shared }\n",
		"/locales/shared.ts": "export default { farewell: 'Bye' }\n",
	})

	keys, err := ex.ExtractFile(context.Background(), "/locales/en.ts")
	require.NoError(t, err)
	require.Len(t, keys, 2)

	assert.Equal(t, locale.Key{
		Key:        "greeting",
		Location:   locale.Location{StartLine: 2, StartColumn: 17, EndLine: 2, EndColumn: 25},
		FilePath:   "/locales/en.ts",
		SourcePath: "/locales/en.ts",
	}, keys[0])

	assert.Equal(t, locale.Key{
		Key:        "farewell",
		Location:   locale.Location{StartLine: 1, StartColumn: 17, EndLine: 1, EndColumn: 25},
		FilePath:   "/locales/en.ts",
		SourcePath: "/locales/shared.ts",
	}, keys[1])

	assert.False(t, keys[0].Spread())
	assert.True(t, keys[1].Spread())
}

func TestExtractFile_NoDefaultExport(t *testing.T) {
	t.Parallel()

	ex := newExtractor(t, map[string]string{
		"/locales/fr.ts": "export const greeting = 'Salut'\n",
	})

	keys, err := ex.ExtractFile(context.Background(), "/locales/fr.ts")
	require.NoError(t, err)
	assert.Nil(t, keys)
}

func TestExtractFile_DefaultExportShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{name: "not_object", src: "export default 'hello'\n", want: nil},
		{name: "function", src: "export default function () { return { a: 1 } }\n", want: nil},
		{name: "identifier", src: "const m = { a: 1 }\nexport default m\n", want: nil},
		{name: "empty_object", src: "export default {}\n", want: []string{}},
		{name: "as_const", src: "export default { a: 'x', b: 'y' } as const\n", want: []string{"a", "b"}},
		{name: "as_type", src: "export default { a: 'x' } as Messages\n", want: []string{"a"}},
		{name: "satisfies", src: "export default { a: 'x' } satisfies Messages\n", want: []string{"a"}},
		{name: "angle_assertion", src: "export default <Messages>{ a: 'x' }\n", want: []string{"a"}},
		{name: "double_assertion", src: "export default { a: 'x' } as unknown as Messages\n", want: nil},
		{name: "first_default_wins", src: "export default { a: 'x' }\nexport default { b: 'y' }\n", want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ex := newExtractor(t, map[string]string{"/l/en.ts": tt.src})

			keys, err := ex.ExtractFile(context.Background(), "/l/en.ts")
			require.NoError(t, err)

			if tt.want == nil {
				assert.Nil(t, keys)

				return
			}

			require.NotNil(t, keys)
			assert.Equal(t, tt.want, keyNames(keys))
		})
	}
}

func TestExtractFile_PropertyKinds(t *testing.T) {
	t.Parallel()

	ex := newExtractor(t, map[string]string{
		"/l/en.ts": `const short = 'x'
export default {
  plain: 'a',
  'quoted.key': 'b',
  "double": 'c',
  short,
  [computed]: 'd',
  42: 'e',
  '': 'f',
  method() { return 'g' },
  get accessor() { return 'h' },
  ...notImported,
  ...obj.member,
  last: 'z',
}
`,
	})

	keys, err := ex.ExtractFile(context.Background(), "/l/en.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"plain", "quoted.key", "double", "short", "last"}, keyNames(keys))

	for _, k := range keys {
		assert.NotEmpty(t, k.Key)
		assert.LessOrEqual(t, k.Location.StartLine, k.Location.EndLine)
		assert.Equal(t, "/l/en.ts", k.FilePath)
	}
}

func TestExtractFile_PlainKeysMatchPropertyCount(t *testing.T) {
	t.Parallel()

	var b strings.Builder

	b.WriteString("export default {\n")

	for i := range 25 {
		if i%2 == 0 {
			b.WriteString("  key" + strings.Repeat("x", i) + ": 'v',\n")
		} else {
			b.WriteString("  'str" + strings.Repeat("y", i) + "': 'v',\n")
		}
	}

	b.WriteString("}\n")

	ex := newExtractor(t, map[string]string{"/l/en.js": b.String()})

	keys, err := ex.ExtractFile(context.Background(), "/l/en.js")
	require.NoError(t, err)
	require.Len(t, keys, 25)

	for i, k := range keys {
		assert.Equal(t, i+2, k.Location.StartLine)
		assert.LessOrEqual(t, k.Location.StartLine, k.Location.EndLine)
		assert.Equal(t, 2, k.Location.StartColumn)
	}
}

func TestExtractFile_SpreadPosition(t *testing.T) {
	t.Parallel()

	ex := newExtractor(t, map[string]string{
		"/l/en.ts":     "import common from './common'\nexport default { first: 1, ...common, last: 2 }\n",
		"/l/common.ts": "export default { c1: 1, c2: 2 }\n",
	})

	keys, err := ex.ExtractFile(context.Background(), "/l/en.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "c1", "c2", "last"}, keyNames(keys))
}

func TestExtractFile_SpreadIsTransitive(t *testing.T) {
	t.Parallel()

	ex := newExtractor(t, map[string]string{
		"/l/en.ts":          "import mid from './mid'\nexport default { own: 1, ...mid }\n",
		"/l/mid.ts":         "import leaf from './nested/leaf'\nexport default { m: 1, ...leaf }\n",
		"/l/nested/leaf.js": "export default { deep: 1 }\n",
	})

	keys, err := ex.ExtractFile(context.Background(), "/l/en.ts")
	require.NoError(t, err)
	require.Equal(t, []string{"own", "m", "deep"}, keyNames(keys))

	assert.Equal(t, "/l/mid.ts", keys[1].SourcePath)
	assert.Equal(t, "/l/nested/leaf.js", keys[2].SourcePath)

	for _, k := range keys {
		assert.Equal(t, "/l/en.ts", k.FilePath)
	}
}

func TestExtractFile_DuplicatesAreKept(t *testing.T) {
	t.Parallel()

	ex := newExtractor(t, map[string]string{
		"/l/en.ts":     "import common from './common'\nexport default { c1: 0, ...common, ...common }\n",
		"/l/common.ts": "export default { c1: 1 }\n",
	})

	keys, err := ex.ExtractFile(context.Background(), "/l/en.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c1", "c1"}, keyNames(keys))
}

func TestExtractFile_UnresolvedSpreads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{name: "no_import", src: "export default { a: 1, ...shared, b: 2 }\n"},
		{name: "named_import", src: "import { shared } from './shared'\nexport default { a: 1, ...shared, b: 2 }\n"},
		{name: "namespace_import", src: "import * as shared from './shared'\nexport default { a: 1, ...shared, b: 2 }\n"},
		{name: "missing_target", src: "import shared from './missing'\nexport default { a: 1, ...shared, b: 2 }\n"},
		{name: "local_binding", src: "const shared = { x: 1 }\nexport default { a: 1, ...shared, b: 2 }\n"},
		{name: "member_spread", src: "import shared from './shared'\nexport default { a: 1, ...shared.inner, b: 2 }\n"},
		{name: "call_spread", src: "import shared from './shared'\nexport default { a: 1, ...shared(), b: 2 }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ex := newExtractor(t, map[string]string{
				"/l/en.ts":     tt.src,
				"/l/shared.ts": "export default { x: 1 }\n",
			})

			keys, err := ex.ExtractFile(context.Background(), "/l/en.ts")
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, keyNames(keys))
		})
	}
}

func TestExtractFile_CandidateOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		files  map[string]string
		source string
	}{
		{
			name: "bare_path_preferred",
			files: map[string]string{
				"/l/shared":    "export default { bare: 1 }\n",
				"/l/shared.js": "export default { js: 1 }\n",
				"/l/shared.ts": "export default { ts: 1 }\n",
			},
			source: "bare",
		},
		{
			name: "js_over_ts",
			files: map[string]string{
				"/l/shared.js": "export default { js: 1 }\n",
				"/l/shared.ts": "export default { ts: 1 }\n",
			},
			source: "js",
		},
		{
			name: "ts_last",
			files: map[string]string{
				"/l/shared.ts": "export default { ts: 1 }\n",
			},
			source: "ts",
		},
		{
			name: "directory_is_skipped",
			files: map[string]string{
				"/l/shared/index.ts": "export default { index: 1 }\n",
				"/l/shared.ts":       "export default { ts: 1 }\n",
			},
			source: "ts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.files["/l/en.ts"] = "import shared from './shared'\nexport default { ...shared }\n"
			ex := newExtractor(t, tt.files)

			keys, err := ex.ExtractFile(context.Background(), "/l/en.ts")
			require.NoError(t, err)
			assert.Equal(t, []string{tt.source}, keyNames(keys))
		})
	}
}

func TestExtractFile_SpreadCycle(t *testing.T) {
	t.Parallel()

	ex := newExtractor(t, map[string]string{
		"/l/a.ts": "import b from './b'\nexport default { a: 1, ...b }\n",
		"/l/b.ts": "import a from './a'\nexport default { b: 1, ...a }\n",
		"/l/c.ts": "import c from './c'\nexport default { c: 1, ...c }\n",
	})

	ctx := context.Background()

	keysA, err := ex.ExtractFile(ctx, "/l/a.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keyNames(keysA))

	keysB, err := ex.ExtractFile(ctx, "/l/b.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, keyNames(keysB))

	keysC, err := ex.ExtractFile(ctx, "/l/c.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, keyNames(keysC))
}

func TestExtractFile_CacheRespectsCycleGuard(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/l/a.ts": "import b from './b'\nexport default { a: 1, ...b }\n",
		"/l/b.ts": "import c from './c'\nexport default { b: 1, ...c }\n",
		"/l/c.ts": "import a from './a'\nexport default { c: 1, ...a }\n",
	}

	fresh := func(path string) []string {
		keys, err := newExtractor(t, files).ExtractFile(context.Background(), path)
		require.NoError(t, err)

		return keyNames(keys)
	}

	shared := newExtractor(t, files)

	for _, path := range []string{"/l/a.ts", "/l/b.ts", "/l/c.ts", "/l/b.ts", "/l/a.ts"} {
		keys, err := shared.ExtractFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, fresh(path), keyNames(keys), path)
	}

	assert.Equal(t, []string{"a", "b", "c"}, fresh("/l/a.ts"))
	assert.Equal(t, []string{"c", "a", "b"}, fresh("/l/c.ts"))
}

func TestExtractFile_ResultsAreIndependentCopies(t *testing.T) {
	t.Parallel()

	ex := newExtractor(t, map[string]string{"/l/en.ts": "export default { a: 1 }\n"})

	first, err := ex.ExtractFile(context.Background(), "/l/en.ts")
	require.NoError(t, err)

	first[0].Key = "mutated"

	second, err := ex.ExtractFile(context.Background(), "/l/en.ts")
	require.NoError(t, err)
	assert.Equal(t, "a", second[0].Key)
}

func TestExtractFile_ParseErrors(t *testing.T) {
	t.Parallel()

	ex := newExtractor(t, map[string]string{
		"/l/broken.ts": "export default { a: 'x', b: }\n",
		"/l/en.ts":     "import broken from './broken'\nexport default { ok: 1, ...broken }\n",
	})

	for _, path := range []string{"/l/broken.ts", "/l/en.ts"} {
		keys, err := ex.ExtractFile(context.Background(), path)
		require.Error(t, err, path)
		assert.Nil(t, keys)
		assert.True(t, errors.Is(err, syntax.ErrSyntax), path)

		var parseErr *syntax.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "/l/broken.ts", parseErr.Path)
	}
}

func TestExtractFile_ReadErrors(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/l/big.ts", []byte("export default { a: '"+strings.Repeat("x", 256)+"' }\n"), 0o644))
	require.NoError(t, fs.MkdirAll("/l/dir.ts", 0o755))

	ex, err := extract.New(extract.Deps{Fs: fs, MaxFileSize: 64})
	require.NoError(t, err)

	_, err = ex.ExtractFile(context.Background(), "/l/missing.ts")
	require.Error(t, err)

	_, err = ex.ExtractFile(context.Background(), "/l/big.ts")
	require.ErrorIs(t, err, extract.ErrFileTooLarge)

	_, err = ex.ExtractFile(context.Background(), "/l/dir.ts")
	require.ErrorIs(t, err, extract.ErrNotRegularFile)
}

func TestExtractFile_CanceledContext(t *testing.T) {
	t.Parallel()

	ex := newExtractor(t, map[string]string{"/l/en.ts": "export default { a: 1 }\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ex.ExtractFile(ctx, "/l/en.ts")
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractFile_WithoutCache(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/l/en.ts", []byte("import s from './s'\nexport default { ...s }\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/l/s.ts", []byte("export default { s: 1 }\n"), 0o644))

	ex, err := extract.New(extract.Deps{Fs: fs, CacheSize: -1})
	require.NoError(t, err)

	for range 2 {
		keys, err := ex.ExtractFile(context.Background(), "/l/en.ts")
		require.NoError(t, err)
		assert.Equal(t, []string{"s"}, keyNames(keys))
	}
}

func TestExtractFile_CacheFollowsSpreadTargetChanges(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/l/en.ts",
		[]byte("import shared from './shared.ts'\nexport default { a: 1, ...shared }\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/l/shared.ts", []byte("export default { old: 1 }\n"), 0o644))

	ex, err := extract.New(extract.Deps{Fs: fs})
	require.NoError(t, err)

	keys, err := ex.ExtractFile(context.Background(), "/l/en.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "old"}, keyNames(keys))

	require.NoError(t, afero.WriteFile(fs, "/l/shared.ts", []byte("export default { fresh: 1, other: 2 }\n"), 0o644))

	keys, err = ex.ExtractFile(context.Background(), "/l/en.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "fresh", "other"}, keyNames(keys))

	require.NoError(t, fs.Remove("/l/shared.ts"))

	keys, err = ex.ExtractFile(context.Background(), "/l/en.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keyNames(keys))
}

func TestExtractFile_CacheFollowsNewCandidates(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/l/en.ts",
		[]byte("import shared from './shared'\nexport default { ...shared }\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/l/shared.ts", []byte("export default { ts: 1 }\n"), 0o644))

	ex, err := extract.New(extract.Deps{Fs: fs})
	require.NoError(t, err)

	keys, err := ex.ExtractFile(context.Background(), "/l/en.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"ts"}, keyNames(keys))

	require.NoError(t, afero.WriteFile(fs, "/l/shared.js", []byte("export default { js: 1 }\n"), 0o644))

	keys, err = ex.ExtractFile(context.Background(), "/l/en.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"js"}, keyNames(keys))
}
