package syntax

// Span is the source range of a node. Lines are 1-based, columns are 0-based
// UTF-16 code units.
type Span struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Module is the lowered form of one source file. Only top-level statements are
// kept; everything the extractor does not look at is folded into Other* nodes.
type Module struct {
	Path       string
	Dialect    Dialect
	Statements []Statement
}

// Statement is a top-level statement: ExportDefault, ImportDecl or OtherStatement.
type Statement interface {
	statementNode()
}

// ExportDefault is `export default <Value>`.
type ExportDefault struct {
	Value Expr
}

// ImportDecl is an ES import statement.
type ImportDecl struct {
	Specifiers []ImportSpecifier
	// Source is a *StringLiteral for every well-formed import.
	Source Expr
}

// ImportSpecifier binds one local name introduced by an import.
type ImportSpecifier struct {
	Local   string
	Default bool
}

// OtherStatement is any statement kind the extractor never inspects.
type OtherStatement struct {
	Kind string
}

func (*ExportDefault) statementNode()  {}
func (*ImportDecl) statementNode()     {}
func (*OtherStatement) statementNode() {}

// Expr is an expression: ObjectLiteral, TypeAssertion, Identifier,
// StringLiteral or OpaqueExpr.
type Expr interface {
	exprNode()
}

// ObjectLiteral is `{ ... }`.
type ObjectLiteral struct {
	Properties []Property
}

// TypeAssertion wraps an expression in `as T`, `satisfies T` or `<T>`.
type TypeAssertion struct {
	Kind string
	Expr Expr
}

// Identifier is a bare name. Property-name identifiers lower to this too.
type Identifier struct {
	Name string
	Span Span
}

// StringLiteral holds the decoded value of a quoted string.
type StringLiteral struct {
	Value string
	Span  Span
}

// OpaqueExpr is any expression kind the extractor never inspects.
type OpaqueExpr struct {
	Kind string
}

func (*ObjectLiteral) exprNode() {}
func (*TypeAssertion) exprNode() {}
func (*Identifier) exprNode()    {}
func (*StringLiteral) exprNode() {}
func (*OpaqueExpr) exprNode()    {}

// Property is an object literal member: KeyValue, Spread or OtherProperty.
type Property interface {
	propertyNode()
}

// KeyValue is `key: value` or shorthand `key`. Key is an *Identifier,
// a *StringLiteral, or an *OpaqueExpr for numeric and computed keys.
type KeyValue struct {
	Key       Expr
	Shorthand bool
}

// Spread is `...Argument`.
type Spread struct {
	Argument Expr
}

// OtherProperty is a method, accessor or anything else that is not a plain property.
type OtherProperty struct {
	Kind string
}

func (*KeyValue) propertyNode()      {}
func (*Spread) propertyNode()        {}
func (*OtherProperty) propertyNode() {}
