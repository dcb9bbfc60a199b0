package jinjac

import "fmt"

// lowerer translates a Template AST into a Target AST. It keeps a stack of
// context-frame identifiers — the lowered equivalent of the Parser's
// context stack, but over runtime variable bindings rather than open tags.
type lowerer struct {
	source       string
	blocksByName map[string]*Block
	macrosByName map[string]*Macro
	ctxStack     []string
	counter      int
}

// Lower runs the Lowerer over a fully-parsed Template.
func Lower(tmpl *Template, sourceName string) *Program {
	l := &lowerer{
		source:       sourceName,
		blocksByName: make(map[string]*Block, len(tmpl.Blocks)),
		macrosByName: make(map[string]*Macro, len(tmpl.Macros)),
	}
	for _, b := range tmpl.Blocks {
		l.blocksByName[b.Name] = b // last definition wins
	}
	for _, m := range tmpl.Macros {
		l.macrosByName[m.Name] = m
	}

	loc := locOf(l.source, tmpl.Span())
	props := []*Property{
		{Type: "Property", Loc: loc, Key: ident(loc, "macros"), Value: l.lowerMacrosObject(tmpl.Macros, loc)},
		{Type: "Property", Loc: loc, Key: ident(loc, "generate"), Value: l.lowerGenerate(tmpl.Body)},
		{Type: "Property", Loc: loc, Key: ident(loc, "render"), Value: l.lowerRender(loc)},
	}
	obj := &ObjectExpression{Type: "ObjectExpression", Loc: loc, Properties: props}
	export := &ExportDefaultDeclaration{Type: "ExportDefaultDeclaration", Loc: loc, Declaration: obj}
	return &Program{Type: "Program", SourceType: "module", Loc: loc, Body: []TStmt{export}}
}

func (l *lowerer) loc(span Span) SourceLoc { return locOf(l.source, span) }

func (l *lowerer) push(name string)  { l.ctxStack = append(l.ctxStack, name) }
func (l *lowerer) pop()              { l.ctxStack = l.ctxStack[:len(l.ctxStack)-1] }
func (l *lowerer) current() string   { return l.ctxStack[len(l.ctxStack)-1] }
func (l *lowerer) parent() string {
	if len(l.ctxStack) < 2 {
		return ""
	}
	return l.ctxStack[len(l.ctxStack)-2]
}

func (l *lowerer) fresh(prefix string) string {
	l.counter++
	return fmt.Sprintf("%s_%d", prefix, l.counter)
}

// freshContext allocates a new lowered context frame for a Scope that
// declares variables: each declared name is initialized from the parent
// context's same-named property (or `null` with no parent), then the
// whole parent is spliced over it via Object.assign so the child frame
// still sees every other binding in scope.
func (l *lowerer) freshContext(declared []string, loc SourceLoc) (string, TNode) {
	name := l.fresh("__j_ctx")
	props := make([]*Property, len(declared))
	parentName := l.current()
	for i, v := range declared {
		var init TExpr
		if parentName == "" {
			init = &Literal{Type: "Literal", Loc: loc, Value: nil, Raw: "null"}
		} else {
			init = member(loc, ident(loc, parentName), ident(loc, v), false)
		}
		props[i] = &Property{Type: "Property", Loc: loc, Key: ident(loc, v), Value: init}
	}
	objLit := &ObjectExpression{Type: "ObjectExpression", Loc: loc, Properties: props}
	var init TExpr = objLit
	if parentName != "" {
		init = call(loc, member(loc, ident(loc, "Object"), ident(loc, "assign"), false), objLit, ident(loc, parentName))
	}
	return name, letDecl(loc, name, init)
}

func constDecl(loc SourceLoc, name string, init TExpr) *VariableDeclaration {
	d := letDecl(loc, name, init)
	d.Kind = "const"
	return d
}

func (l *lowerer) lowerMacrosObject(macros []*Macro, loc SourceLoc) *ObjectExpression {
	props := make([]*Property, len(macros))
	for i, m := range macros {
		props[i] = &Property{Type: "Property", Loc: l.loc(m.Span()), Key: ident(l.loc(m.Span()), m.Name), Value: l.lowerMacro(m)}
	}
	return &ObjectExpression{Type: "ObjectExpression", Loc: loc, Properties: props}
}

// lowerMacro lowers `macro name(args) ... endmacro` into a generator whose
// first parameter is the context object and second is the macro table.
// The incoming context already carries the declared parameter names —
// populated at the call site — so no extra context frame is allocated
// here; MacroCall, not Macro, is where the frame gets built (as the
// argument object literal).
func (l *lowerer) lowerMacro(m *Macro) *FunctionExpression {
	loc := l.loc(m.Span())
	const ctxParam = "context"
	l.push(ctxParam)
	body := l.lowerPlaceables(m.Body.Body)
	l.pop()
	return genFunc(loc, []TPattern{ident(loc, ctxParam), ident(loc, "__j_macros")}, block(loc, body...))
}

func (l *lowerer) lowerGenerate(body *Scope) *FunctionExpression {
	loc := l.loc(body.Span())
	const ctxParam = "context"
	l.push(ctxParam)
	stmts := l.lowerPlaceables(body.Body)
	l.pop()
	return genFunc(loc, []TPattern{ident(loc, ctxParam)}, block(loc, stmts...))
}

// lowerRender builds `render(context) { return Array.from(this.generate(context)).join('') }`.
func (l *lowerer) lowerRender(loc SourceLoc) *FunctionExpression {
	this := &ThisExpression{Type: "ThisExpression", Loc: loc}
	genCall := call(loc, member(loc, this, ident(loc, "generate"), false), ident(loc, "context"))
	fromCall := call(loc, member(loc, ident(loc, "Array"), ident(loc, "from"), false), genCall)
	joinCall := call(loc, member(loc, fromCall, ident(loc, "join"), false), stringLit(loc, ""))
	ret := &ReturnStatement{Type: "ReturnStatement", Loc: loc, Argument: joinCall}
	return plainFunc(loc, []TPattern{ident(loc, "context")}, block(loc, ret))
}

// lowerPlaceables lowers a body list into target statements. Several
// Template AST nodes lower to more than one statement (ForLoop, an unpacking
// Assign) and a Macro to none, so this builds the slice directly rather than
// mapping 1:1.
func (l *lowerer) lowerPlaceables(items []Placeable) []TNode {
	var out []TNode
	for _, item := range items {
		switch n := item.(type) {
		case *Text:
			loc := l.loc(n.Span())
			out = append(out, &ExpressionStatement{Type: "ExpressionStatement", Loc: loc, Expression: yield(loc, stringLit(loc, n.Text), false)})

		case *PutValue:
			loc := l.loc(n.Span())
			value := l.lowerExpr(n.Value)
			for _, f := range n.Filters {
				value = call(loc, l.lowerExpr(f), value)
			}
			out = append(out, &ExpressionStatement{Type: "ExpressionStatement", Loc: loc, Expression: yield(loc, value, false)})

		case *CaseStatement:
			out = append(out, l.lowerCase(n))

		case *ForLoop:
			out = append(out, l.lowerFor(n)...)

		case *Macro:
			// already collected into Template.Macros; a no-op at its
			// render-site position.

		case *MacroCall:
			out = append(out, l.lowerMacroCall(n))

		case *CallBlock:
			out = append(out, l.lowerCallBlock(n))

		case *FilterBlock:
			out = append(out, l.lowerFilterBlock(n))

		case *Assign:
			loc := l.loc(n.Span())
			out = append(out, l.assignPattern(n.Pattern, l.lowerExpr(n.Value), loc)...)

		default:
			panic(fmt.Sprintf("jinjac: unhandled placeable %T", item))
		}
	}
	return out
}

func namesOf(p Pattern) []string { return patternNames(p) }

// assignPattern lowers `pattern = value` into the current context (used
// for both `{% set %}` and a ForLoop's per-iteration binding). A single
// Variable becomes one property assignment; an Unpack destructures a
// stored temporary positionally.
func (l *lowerer) assignPattern(p Pattern, value TExpr, loc SourceLoc) []TNode {
	ctx := l.current()
	switch v := p.(type) {
	case *Variable:
		return []TNode{&ExpressionStatement{Type: "ExpressionStatement", Loc: loc, Expression: assign(loc, member(loc, ident(loc, ctx), ident(loc, v.Name), false), value)}}
	case *Unpack:
		tmp := l.fresh("__j_tmp")
		out := []TNode{constDecl(loc, tmp, value)}
		for i, n := range v.Names {
			elem := member(loc, ident(loc, tmp), numberLit(loc, float64(i)), true)
			out = append(out, &ExpressionStatement{Type: "ExpressionStatement", Loc: loc, Expression: assign(loc, member(loc, ident(loc, ctx), ident(loc, n.Name), false), elem)})
		}
		return out
	default:
		panic(fmt.Sprintf("jinjac: unhandled pattern %T", p))
	}
}

// lowerCase lowers if/elif/else into a chain of nested IfStatements. A
// trailing else arm (condition is the synthesized Boolean(true)) becomes
// the final bare block instead of a redundant `if (true)`.
func (l *lowerer) lowerCase(cs *CaseStatement) TStmt {
	arms := cs.Arms
	n := len(arms)
	end := n
	var tail TStmt
	if n > 0 {
		if b, ok := arms[n-1].Condition.(*BoolLit); ok && b.Value {
			tail = block(l.loc(arms[n-1].Span()), l.lowerPlaceables(arms[n-1].Body)...)
			end = n - 1
		}
	}
	for i := end - 1; i >= 0; i-- {
		arm := arms[i]
		loc := l.loc(arm.Span())
		cons := block(loc, l.lowerPlaceables(arm.Body)...)
		tail = &IfStatement{Type: "IfStatement", Loc: loc, Test: l.lowerExpr(arm.Condition), Consequent: cons, Alternate: tail}
	}
	return tail
}

// lowerFor lowers a ForLoop into an explicit Symbol.iterator protocol
// walk with a fresh context allocated per iteration.
func (l *lowerer) lowerFor(fl *ForLoop) []TNode {
	loc := l.loc(fl.Span())
	loopVar := l.fresh("__j_loop")
	countVar := l.fresh("__j_count")
	itemVar := l.fresh("__j_item")

	iterSymbol := member(loc, ident(loc, "Symbol"), ident(loc, "iterator"), false)
	iterCall := call(loc, member(loc, l.lowerExpr(fl.Iterable), iterSymbol, true))
	loopDecl := letDecl(loc, loopVar, iterCall)
	countDecl := letDecl(loc, countVar, numberLit(loc, 0))

	itemDecl := letDecl(loc, itemVar, call(loc, member(loc, ident(loc, loopVar), ident(loc, "next"), false)))
	breakIf := &IfStatement{Type: "IfStatement", Loc: loc, Test: member(loc, ident(loc, itemVar), ident(loc, "done"), false), Consequent: block(loc, &BreakStatement{Type: "BreakStatement", Loc: loc})}

	newCtx, ctxDecl := l.freshContext(namesOf(fl.Pattern), loc)
	l.push(newCtx)
	patternAssigns := l.assignPattern(fl.Pattern, member(loc, ident(loc, itemVar), ident(loc, "value"), false), loc)

	var filterIf TNode
	if fl.Filter != nil {
		filterIf = &IfStatement{Type: "IfStatement", Loc: loc, Test: unary(loc, "!", l.lowerExpr(fl.Filter)), Consequent: block(loc, &ContinueStatement{Type: "ContinueStatement", Loc: loc})}
	}
	bodyStmts := l.lowerPlaceables(fl.Body.Body)
	l.pop()

	forBody := []TNode{itemDecl, breakIf, ctxDecl}
	forBody = append(forBody, patternAssigns...)
	if filterIf != nil {
		forBody = append(forBody, filterIf)
	}
	forBody = append(forBody, bodyStmts...)

	forStmt := &ForStatement{
		Type: "ForStatement", Loc: loc,
		Update: &UpdateExpression{Type: "UpdateExpression", Loc: loc, Operator: "++", Prefix: true, Argument: ident(loc, countVar)},
		Body:   block(loc, forBody...),
	}

	out := []TNode{loopDecl, countDecl, forStmt}
	if fl.Alternative != nil {
		test := binary(loc, "===", ident(loc, countVar), numberLit(loc, 0))
		out = append(out, &IfStatement{Type: "IfStatement", Loc: loc, Test: test, Consequent: block(loc, l.lowerPlaceables(fl.Alternative)...)})
	}
	return out
}

// lowerMacroCall lowers `call name(args) ... endcall`: positional args are
// zipped against the macro's declared parameters, excess positional args
// are dropped and missing ones take the parameter's declared default, or
// `undefined` if it has none. The
// `{% call %}...{% endcall %}` body, if any, is passed through as a
// `caller` generator on the argument object.
func (l *lowerer) lowerMacroCall(mc *MacroCall) TStmt {
	loc := l.loc(mc.Span())
	def := l.macrosByName[mc.Macro]

	var props []*Property
	if def != nil {
		for i, arg := range def.Args {
			var value TExpr
			switch {
			case i < len(mc.Args):
				value = l.lowerExpr(mc.Args[i])
			case arg.Default != nil:
				value = l.lowerExpr(arg.Default)
			default:
				value = ident(loc, "undefined")
			}
			props = append(props, &Property{Type: "Property", Loc: loc, Key: ident(loc, arg.Name), Value: value})
		}
	}
	if mc.Caller != nil && len(mc.Caller.Body) > 0 {
		callerGen := genFunc(loc, nil, block(loc, l.lowerPlaceables(mc.Caller.Body)...))
		props = append(props, &Property{Type: "Property", Loc: loc, Key: ident(loc, "caller"), Value: callerGen})
	}
	argObj := &ObjectExpression{Type: "ObjectExpression", Loc: loc, Properties: props}

	callee := member(loc, ident(loc, "__j_macros"), ident(loc, mc.Macro), false)
	callExpr := call(loc, callee, argObj, ident(loc, "__j_macros"))
	return &ExpressionStatement{Type: "ExpressionStatement", Loc: loc, Expression: yield(loc, callExpr, true)}
}

// lowerCallBlock lowers the render-site `{% block name %}` reference into
// a delegated yield of an IIFE generator.
func (l *lowerer) lowerCallBlock(cb *CallBlock) TStmt {
	loc := l.loc(cb.Span())
	def := l.blocksByName[cb.Name]
	var stmts []TNode
	if def != nil {
		stmts = l.lowerPlaceables(def.Body.Body)
	}
	gen := genFunc(loc, nil, block(loc, stmts...))
	iife := call(loc, gen)
	return &ExpressionStatement{Type: "ExpressionStatement", Loc: loc, Expression: yield(loc, iife, true)}
}

// lowerFilterBlock lowers `filter expr ... endfilter`: the body's output is
// collected into a string and passed through the filter expression once.
func (l *lowerer) lowerFilterBlock(fb *FilterBlock) TStmt {
	loc := l.loc(fb.Span())
	innerGen := genFunc(loc, nil, block(loc, l.lowerPlaceables(fb.Body.Body)...))
	iife := call(loc, innerGen)
	fromCall := call(loc, member(loc, ident(loc, "Array"), ident(loc, "from"), false), iife)
	joined := call(loc, member(loc, fromCall, ident(loc, "join"), false), stringLit(loc, ""))
	filtered := call(loc, l.lowerExpr(fb.Filter), joined)
	return &ExpressionStatement{Type: "ExpressionStatement", Loc: loc, Expression: yield(loc, filtered, false)}
}

// lowerExpr lowers an Expression AST node.
func (l *lowerer) lowerExpr(e Expr) TExpr {
	loc := l.loc(e.Span())
	switch v := e.(type) {
	case *Variable:
		return member(loc, ident(loc, l.current()), ident(loc, v.Name), false)
	case *NumberLit:
		return numberLit(loc, v.Value)
	case *StringLit:
		return stringLit(loc, v.Value)
	case *BoolLit:
		return boolLit(loc, v.Value)
	case *BinOp:
		op := v.Op.Value
		switch op {
		case "==":
			op = "==="
		case "!=":
			op = "!=="
		}
		return binary(loc, op, l.lowerExpr(v.Left), l.lowerExpr(v.Right))
	case *UnaryExpr:
		return unary(loc, v.Op.Value, l.lowerExpr(v.Operand))
	case *Member:
		obj := l.lowerExpr(v.Object)
		prop, computed := l.lowerMemberProperty(v.Property)
		return member(loc, obj, prop, computed)
	case *FunctionCall:
		callee := l.lowerExpr(v.Function)
		args := make([]TExpr, len(v.Args))
		for i, a := range v.Args {
			args[i] = l.lowerExpr(a)
		}
		return call(loc, callee, args...)
	case *Filter:
		return call(loc, l.lowerExpr(v.Filter), l.lowerExpr(v.Value))
	default:
		panic(fmt.Sprintf("jinjac: unhandled expression %T", e))
	}
}

// lowerMemberProperty lowers the right-hand side of a Member node: a bare
// name stays an Identifier (non-computed); anything else lowers normally
// and is accessed computed.
func (l *lowerer) lowerMemberProperty(e Expr) (TExpr, bool) {
	if v, ok := e.(*Variable); ok {
		return ident(l.loc(v.Span()), v.Name), false
	}
	return l.lowerExpr(e), true
}
