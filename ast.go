package jinjac

// Node is satisfied by every Template AST node. Span coverage is the only
// structural contract every node must honor: Start.Offset <= End.Offset,
// and a parent's span must contain every child's span.
type Node interface {
	Span() Span
}

// Placeable is any node that can appear in a Scope's body.
type Placeable interface {
	Node
	placeable()
}

// Pattern is the left-hand side of a `for` or `set` binding: either a
// single Variable or an Unpack of several names.
type Pattern interface {
	Expr
	pattern()
}

// base carries the span every node embeds.
type base struct{ span Span }

func (b base) Span() Span { return b.span }

// Template is the root node.
type Template struct {
	base
	Extends *TemplateIdentifier
	Blocks  []*Block
	Macros  []*Macro
	Body    *Scope
}

// TemplateIdentifier is a bare name reference (e.g. the argument to
// `extends`). Named to avoid colliding with the Target AST `Identifier`.
type TemplateIdentifier struct {
	base
	Name string
}

// Scope is a body with its own variable-binding frame.
type Scope struct {
	base
	Variables []string
	Body      []Placeable
}

// Text is a raw run of template source outside any tag/placeable.
type Text struct {
	base
	Text string
}

func (*Text) placeable() {}

// PutValue is `{{ expr (| filter)* }}`.
type PutValue struct {
	base
	Value   Expr
	Filters []Expr
}

func (*PutValue) placeable() {}

// Arm is one branch of a CaseStatement (an `if`/`elif`/`else`).
type Arm struct {
	base
	Condition Expr
	Body      []Placeable
}

// CaseStatement is the lowered form of `if`/`elif`/`else`/`endif`.
type CaseStatement struct {
	base
	Arms []*Arm
}

func (*CaseStatement) placeable() {}

// ForLoop is `{% for pattern in iterable [if filter] %}...{% else %}...{% endfor %}`.
//
// Body is a fresh Scope (it introduces pattern's bound names); Alternative
// is a flat placeable list with no fresh scope — this asymmetry is
// observable and intentional.
type ForLoop struct {
	base
	Pattern     Pattern
	Iterable    Expr
	Filter      Expr // optional, nil if absent
	Body        *Scope
	Alternative []Placeable // nil if no `{% else %}` clause
}

func (*ForLoop) placeable() {}

// Argument is one macro parameter, with an optional Number-literal default
// — only Number literals are accepted as defaults.
type Argument struct {
	base
	Name    string
	Default *NumberLit
}

// Macro is a `{% macro name(args) %}...{% endmacro %}` definition.
type Macro struct {
	base
	Name string
	Args []*Argument
	Body *Scope
}

func (*Macro) placeable() {}

// MacroCall is `{% call name(args) %}...{% endcall %}`.
type MacroCall struct {
	base
	Macro string
	Args  []Expr
	Caller *Scope // the `{% call %}...{% endcall %}` body, if any
}

func (*MacroCall) placeable() {}

// CallBlock is the render-site reference to a `{% block name %}` — the
// definition lives by value in Template.Blocks; this node holds only the
// name.
type CallBlock struct {
	base
	Name string
}

func (*CallBlock) placeable() {}

// Block is a `{% block name %}...{% endblock %}` definition.
type Block struct {
	base
	Name string
	Body *Scope
}

// FilterBlock is `{% filter expr %}...{% endfilter %}`. Named to avoid
// colliding with the Expr `Filter` node; the block form is distinguished
// here only by Go identifier, not semantics.
type FilterBlock struct {
	base
	Filter Expr
	Body   *Scope
}

func (*FilterBlock) placeable() {}

// Assign is `{% set pattern = expr %}`.
type Assign struct {
	base
	Pattern Pattern
	Value   Expr
}

func (*Assign) placeable() {}
