package syntax

import (
	"unicode/utf8"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Tree-sitter node kinds the lowering understands.
const (
	kindExportStatement     = "export_statement"
	kindImportStatement     = "import_statement"
	kindImportClause        = "import_clause"
	kindNamedImports        = "named_imports"
	kindNamespaceImport     = "namespace_import"
	kindImportSpecifier     = "import_specifier"
	kindObject              = "object"
	kindPair                = "pair"
	kindShorthandProperty   = "shorthand_property_identifier"
	kindSpreadElement       = "spread_element"
	kindComment             = "comment"
	kindAsExpression        = "as_expression"
	kindSatisfiesExpression = "satisfies_expression"
	kindTypeAssertion       = "type_assertion"
	kindParenthesized       = "parenthesized_expression"
	kindIdentifier          = "identifier"
	kindPropertyIdentifier  = "property_identifier"
	kindString              = "string"
	kindStringFragment      = "string_fragment"
	kindEscapeSequence      = "escape_sequence"
	tokenDefault            = "default"
	fieldValue              = "value"
	fieldDeclaration        = "declaration"
	fieldSource             = "source"
	fieldKey                = "key"
	fieldName               = "name"
	fieldAlias              = "alias"
)

// lowerer converts tree-sitter nodes of one file into the Module model.
type lowerer struct {
	src []byte
}

func (l *lowerer) statements(root sitter.Node) []Statement {
	stmts := make([]Statement, 0, root.NamedChildCount())

	for i := range root.NamedChildCount() {
		child := root.NamedChild(i)

		switch child.Type() {
		case kindComment:
			continue
		case kindExportStatement:
			stmts = append(stmts, l.export(child))
		case kindImportStatement:
			stmts = append(stmts, l.importDecl(child))
		default:
			stmts = append(stmts, &OtherStatement{Kind: child.Type()})
		}
	}

	return stmts
}

func (l *lowerer) export(n sitter.Node) Statement {
	if !hasToken(n, tokenDefault) {
		return &OtherStatement{Kind: kindExportStatement}
	}

	if value := n.ChildByFieldName(fieldValue); !value.IsNull() {
		return &ExportDefault{Value: l.expr(value)}
	}

	if decl := n.ChildByFieldName(fieldDeclaration); !decl.IsNull() {
		return &ExportDefault{Value: &OpaqueExpr{Kind: decl.Type()}}
	}

	return &ExportDefault{Value: &OpaqueExpr{}}
}

func (l *lowerer) importDecl(n sitter.Node) Statement {
	decl := &ImportDecl{Source: &OpaqueExpr{}}

	if source := n.ChildByFieldName(fieldSource); !source.IsNull() {
		decl.Source = l.expr(source)
	}

	for i := range n.NamedChildCount() {
		clause := n.NamedChild(i)
		if clause.Type() != kindImportClause {
			continue
		}

		for j := range clause.NamedChildCount() {
			decl.Specifiers = append(decl.Specifiers, l.importBindings(clause.NamedChild(j))...)
		}
	}

	return decl
}

func (l *lowerer) importBindings(n sitter.Node) []ImportSpecifier {
	switch n.Type() {
	case kindIdentifier:
		return []ImportSpecifier{{Local: l.text(n), Default: true}}
	case kindNamespaceImport:
		for i := range n.NamedChildCount() {
			if id := n.NamedChild(i); id.Type() == kindIdentifier {
				return []ImportSpecifier{{Local: l.text(id)}}
			}
		}
	case kindNamedImports:
		var specs []ImportSpecifier

		for i := range n.NamedChildCount() {
			spec := n.NamedChild(i)
			if spec.Type() != kindImportSpecifier {
				continue
			}

			local := spec.ChildByFieldName(fieldAlias)
			if local.IsNull() {
				local = spec.ChildByFieldName(fieldName)
			}

			if !local.IsNull() {
				specs = append(specs, ImportSpecifier{Local: l.text(local)})
			}
		}

		return specs
	}

	return nil
}

func (l *lowerer) expr(n sitter.Node) Expr {
	switch n.Type() {
	case kindObject:
		return l.object(n)
	case kindAsExpression, kindSatisfiesExpression:
		if n.NamedChildCount() == 0 {
			return &OpaqueExpr{Kind: n.Type()}
		}

		return &TypeAssertion{Kind: n.Type(), Expr: l.expr(n.NamedChild(0))}
	case kindTypeAssertion:
		// <T>expr: the asserted expression is the last named child.
		count := n.NamedChildCount()
		if count == 0 {
			return &OpaqueExpr{Kind: n.Type()}
		}

		return &TypeAssertion{Kind: n.Type(), Expr: l.expr(n.NamedChild(count - 1))}
	case kindParenthesized:
		// Parentheses carry no meaning of their own.
		for i := range n.NamedChildCount() {
			if inner := n.NamedChild(i); inner.Type() != kindComment {
				return l.expr(inner)
			}
		}

		return &OpaqueExpr{Kind: n.Type()}
	case kindIdentifier, kindPropertyIdentifier, kindShorthandProperty:
		return &Identifier{Name: l.text(n), Span: l.span(n)}
	case kindString:
		return &StringLiteral{Value: l.stringValue(n), Span: l.span(n)}
	default:
		return &OpaqueExpr{Kind: n.Type()}
	}
}

func (l *lowerer) object(n sitter.Node) *ObjectLiteral {
	obj := &ObjectLiteral{Properties: make([]Property, 0, n.NamedChildCount())}

	for i := range n.NamedChildCount() {
		member := n.NamedChild(i)

		switch member.Type() {
		case kindComment:
			continue
		case kindPair:
			key := member.ChildByFieldName(fieldKey)
			if key.IsNull() {
				obj.Properties = append(obj.Properties, &OtherProperty{Kind: kindPair})

				continue
			}

			obj.Properties = append(obj.Properties, &KeyValue{Key: l.expr(key)})
		case kindShorthandProperty:
			obj.Properties = append(obj.Properties, &KeyValue{Key: l.expr(member), Shorthand: true})
		case kindSpreadElement:
			spread := &Spread{Argument: &OpaqueExpr{}}
			if member.NamedChildCount() > 0 {
				spread.Argument = l.expr(member.NamedChild(0))
			}

			obj.Properties = append(obj.Properties, spread)
		default:
			obj.Properties = append(obj.Properties, &OtherProperty{Kind: member.Type()})
		}
	}

	return obj
}

// stringValue decodes the content of a string node, quotes excluded.
func (l *lowerer) stringValue(n sitter.Node) string {
	var buf []byte

	for i := range n.NamedChildCount() {
		part := n.NamedChild(i)

		switch part.Type() {
		case kindStringFragment:
			buf = append(buf, l.text(part)...)
		case kindEscapeSequence:
			buf = append(buf, decodeEscape(l.text(part))...)
		}
	}

	return string(buf)
}

func (l *lowerer) text(n sitter.Node) string {
	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(l.src)) || start > end {
		return ""
	}

	return string(l.src[start:end])
}

func (l *lowerer) span(n sitter.Node) Span {
	start, end := n.StartPoint(), n.EndPoint()

	return Span{
		StartLine:   toInt(start.Row) + 1,
		StartColumn: l.column(n.StartByte(), start.Column),
		EndLine:     toInt(end.Row) + 1,
		EndColumn:   l.column(n.EndByte(), end.Column),
	}
}

// column converts a byte column into UTF-16 code units, which is what editors
// and the Language Server Protocol count in.
func (l *lowerer) column(offset, byteColumn uint) int {
	if byteColumn > offset || offset > uint(len(l.src)) {
		return toInt(byteColumn)
	}

	line := l.src[offset-byteColumn : offset]
	units := 0

	for len(line) > 0 {
		r, size := utf8.DecodeRune(line)
		line = line[size:]

		if r >= 0x10000 {
			units += 2

			continue
		}

		units++
	}

	return units
}

func hasToken(n sitter.Node, token string) bool {
	for i := range n.ChildCount() {
		if child := n.Child(i); !child.IsNamed() && child.Type() == token {
			return true
		}
	}

	return false
}

func toInt(v uint) int {
	const maxInt = int(^uint(0) >> 1)
	if v > uint(maxInt) {
		return maxInt
	}

	return int(v)
}
