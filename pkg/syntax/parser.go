// Package syntax parses TypeScript and JavaScript locale modules with tree-sitter
// and lowers the tree into the small closed node model the key extractor matches on.
package syntax

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for parser operations.
var (
	// ErrSyntax is matched by every *ParseError.
	ErrSyntax = errors.New("syntax error")

	errLanguageNotAvailable = errors.New("tree-sitter language not available")
	errNoRootNode           = errors.New("syntax: no root node")
	errPoolType             = errors.New("syntax: pool returned unexpected type")
)

// ParseError reports malformed source. Line is 1-based, Column 0-based UTF-16.
type ParseError struct {
	Path   string
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: syntax error at %d:%d", e.Path, e.Line, e.Column)
}

// Unwrap makes errors.Is(err, ErrSyntax) hold.
func (e *ParseError) Unwrap() error {
	return ErrSyntax
}

// Parser turns source text into a Module. It is safe for concurrent use; each
// dialect keeps a pool of tree-sitter parsers.
type Parser struct {
	mu    sync.Mutex
	pools map[Dialect]*sync.Pool
}

// NewParser creates a Parser. Grammars are initialized on first use.
func NewParser() *Parser {
	return &Parser{pools: make(map[Dialect]*sync.Pool)}
}

func (p *Parser) pool(d Dialect) (*sync.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pool, ok := p.pools[d]; ok {
		return pool, nil
	}

	lang := language(d)
	if lang == nil {
		return nil, fmt.Errorf("%w: %s", errLanguageNotAvailable, d)
	}

	pool := &sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}
	p.pools[d] = pool

	return pool, nil
}

// Parse parses content with the grammars listed by Dialects, keeping the
// first that yields a tree without ERROR or MISSING nodes. When every grammar
// fails, the *ParseError of the first one is returned.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*Module, error) {
	var first error

	for _, dialect := range Dialects(path, content) {
		mod, err := p.parseAs(ctx, dialect, path, content)
		if err == nil {
			return mod, nil
		}

		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			return nil, err
		}

		if first == nil {
			first = err
		}
	}

	return nil, first
}

func (p *Parser) parseAs(ctx context.Context, dialect Dialect, path string, content []byte) (*Module, error) {
	pool, err := p.pool(dialect)
	if err != nil {
		return nil, err
	}

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("syntax: failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	low := &lowerer{src: content}

	if root.HasError() {
		span := low.span(firstErrorNode(root))

		return nil, &ParseError{Path: path, Line: span.StartLine, Column: span.StartColumn}
	}

	return &Module{
		Path:       path,
		Dialect:    dialect,
		Statements: low.statements(root),
	}, nil
}

// firstErrorNode descends through the first erroneous child at each level and
// returns the innermost ERROR or MISSING node reached.
func firstErrorNode(n sitter.Node) sitter.Node {
	for i := range n.ChildCount() {
		child := n.Child(i)
		if child.IsNull() {
			continue
		}

		if child.IsMissing() {
			return child
		}

		if child.IsError() || child.HasError() {
			return firstErrorNode(child)
		}
	}

	return n
}
