package jinjac

// Expr is satisfied by every Expression AST node.
type Expr interface {
	Node
	expr()
}

// Operator is a distinct node carrying an operator lexeme and its own
// span.
type Operator struct {
	base
	Value string
}

// Variable is a bare name reference, e.g. `user` or (in member position)
// the right-hand side of a Member node.
type Variable struct {
	base
	Name string
}

func (*Variable) expr()    {}
func (*Variable) pattern() {}

// NumberLit is a numeric literal.
type NumberLit struct {
	base
	Value float64
}

func (*NumberLit) expr() {}

// StringLit is a string literal. Unlike the raw lexer Token, this node
// carries a decoded Value: the lexer emits span-only String tokens, and
// the Parser decodes `\\`, `\n`, `\t`, `\"`, `\'` here and attaches the
// result.
type StringLit struct {
	base
	Value string
}

func (*StringLit) expr() {}

// BoolLit is `true` or `false`.
type BoolLit struct {
	base
	Value bool
}

func (*BoolLit) expr() {}

// BinOp is a binary operator application. Lowering maps Op.Value "=="/"!="
// to "==="/"!=="; the Parser stores the operator verbatim.
type BinOp struct {
	base
	Op    Operator
	Left  Expr
	Right Expr
}

func (*BinOp) expr() {}

// UnaryExpr is a prefix operator application: `not x`, `!x`, or a negative
// sign `-x`.
type UnaryExpr struct {
	base
	Op      Operator
	Operand Expr
}

func (*UnaryExpr) expr() {}

// Member is `object.property`. Lowering keeps a bare Variable property as a
// non-computed `object.property` access and turns any other property into
// a computed `object[property]` access.
type Member struct {
	base
	Object   Expr
	Property Expr
}

func (*Member) expr() {}

// FunctionCall is `function(args...)`.
type FunctionCall struct {
	base
	Function Expr
	Args     []Expr
}

func (*FunctionCall) expr() {}

// Filter is `value | filter`. Chained filters nest: `a | f | g` parses as
// Filter(Filter(a, f), g).
type Filter struct {
	base
	Value  Expr
	Filter Expr
}

func (*Filter) expr() {}

// Unpack is a comma-separated pattern of two or more names, e.g. the
// `k, v` in `{% for k, v in d.items() %}`.
type Unpack struct {
	base
	Names []*Variable
}

func (*Unpack) expr()    {}
func (*Unpack) pattern() {}
