package syntax

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unsafe"

	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/src-d/enry/v2"
)

// Dialect selects the tree-sitter grammar used for a file.
type Dialect string

// Supported dialects.
const (
	DialectTypeScript Dialect = "typescript"
	DialectTSX        Dialect = "tsx"
	DialectJavaScript Dialect = "javascript"
)

// Grammar chains, tried in order until one parses without errors. The
// typescript and tsx grammars disagree only on `<T>x` assertions versus JSX,
// and tsx accepts type syntax in JavaScript files.
var (
	typeScriptChain = []Dialect{DialectTypeScript, DialectTSX}
	tsxChain        = []Dialect{DialectTSX}
	javaScriptChain = []Dialect{DialectTSX, DialectJavaScript}
)

var extensionDialects = map[string][]Dialect{
	".ts":  typeScriptChain,
	".mts": typeScriptChain,
	".cts": typeScriptChain,
	".tsx": tsxChain,
	".js":  javaScriptChain,
	".mjs": javaScriptChain,
	".cjs": javaScriptChain,
	".jsx": javaScriptChain,
}

// enryDialects maps linguist language names to grammar chains.
var enryDialects = map[string][]Dialect{
	"TypeScript": typeScriptChain,
	"TSX":        tsxChain,
	"JavaScript": javaScriptChain,
}

// Dialects lists the grammars tried for path, in order. The extension decides
// when it is known; otherwise linguist detection runs on the content, and
// TypeScript is the fallback since it accepts plain JavaScript object modules
// too.
func Dialects(path string, content []byte) []Dialect {
	chain, ok := extensionDialects[strings.ToLower(filepath.Ext(path))]
	if !ok {
		chain, ok = enryDialects[enry.GetLanguage(filepath.Base(path), content)]
	}

	if !ok {
		chain = typeScriptChain
	}

	return slices.Clone(chain)
}

// DetectDialect returns the first grammar tried for path.
func DetectDialect(path string, content []byte) Dialect {
	return Dialects(path, content)[0]
}

// SupportedExtension reports whether path has an extension with a fixed dialect.
func SupportedExtension(path string) bool {
	_, ok := extensionDialects[strings.ToLower(filepath.Ext(path))]

	return ok
}

var languageFuncs = map[Dialect]func() unsafe.Pointer{
	DialectTypeScript: typescript.GetLanguage,
	DialectTSX:        tsx.GetLanguage,
	DialectJavaScript: javascript.GetLanguage,
}

var languageCache sync.Map

// language returns the tree-sitter Language for d, or nil if not supported.
func language(d Dialect) *sitter.Language {
	if cached, ok := languageCache.Load(d); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	fn, ok := languageFuncs[d]
	if !ok {
		return nil
	}

	var lang *sitter.Language

	func() {
		defer func() {
			_ = recover() //nolint:errcheck // a broken grammar reports as unsupported
		}()

		lang = sitter.NewLanguage(fn())
	}()

	if lang == nil {
		return nil
	}

	languageCache.Store(d, lang)

	return lang
}
