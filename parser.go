package jinjac

import (
	"strings"
)

// Parser turns a token stream into a Template AST. It keeps its own small
// pushback buffer on top of the Lexer so that expression parsing can peek
// one token ahead without the Lexer itself needing any lookahead state:
// peek() is simply next() followed by a putback.
type Parser struct {
	name   string
	lexer  *Lexer
	buf    []Token // pushback stack; last element is returned first
	blocks []*Block
	macros []*Macro
}

func NewParser(name, src string) *Parser {
	return &Parser{name: name, lexer: NewLexer(name, src)}
}

func (p *Parser) next(allowStrings bool) (Token, error) {
	if n := len(p.buf); n > 0 {
		tok := p.buf[n-1]
		p.buf = p.buf[:n-1]
		return tok, nil
	}
	return p.lexer.Next(allowStrings)
}

func (p *Parser) putback(tok Token) {
	p.buf = append(p.buf, tok)
}

// peek returns the next token without consuming it. Expression parsing
// always peeks in string-allowing mode; the raw-text scanner in parseBody
// never peeks, it only ever consumes directly.
func (p *Parser) peek() (Token, error) {
	tok, err := p.next(true)
	if err != nil {
		return Token{}, err
	}
	p.putback(tok)
	return tok, nil
}

// consume pops the token most recently returned by peek. It must only be
// called right after a successful peek, so the pushback buffer is always
// non-empty and no Lexer error can occur.
func (p *Parser) consume() Token {
	tok, _ := p.next(true)
	return tok
}

func (p *Parser) errorAt(tok Token, format string, args ...any) error {
	return newSyntaxError(tok.Span, format, args...)
}

func (p *Parser) expectSymbol(val string) (Token, error) {
	tok, err := p.next(true)
	if err != nil {
		return Token{}, err
	}
	if tok.Typ != TokenSymbol || tok.Val != val {
		return Token{}, p.errorAt(tok, "expected %q", val)
	}
	return tok, nil
}

func (p *Parser) expectIdentifier() (Token, error) {
	tok, err := p.next(true)
	if err != nil {
		return Token{}, err
	}
	if tok.Typ != TokenIdentifier {
		return Token{}, p.errorAt(tok, "expected a name")
	}
	if _, reserved := keywords[tok.Val]; reserved {
		return Token{}, p.errorAt(tok, "%q is a reserved word and cannot be used as a name", tok.Val)
	}
	return tok, nil
}

// Parse runs the parser to completion and returns the Template root.
func (p *Parser) Parse() (*Template, error) {
	start := Position{Line: 1, Column: 0}
	body, stop, err := p.parseBody(rootStops)
	if err != nil {
		return nil, err
	}
	if stop != "" {
		return nil, newSyntaxError(Span{start, start}, "unexpected tag %q at top level", stop)
	}
	end := start
	if len(body) > 0 {
		end = body[len(body)-1].Span().End
	}
	scope := &Scope{base: base{Span{start, end}}, Body: body}
	return &Template{
		base:   base{Span{start, end}},
		Blocks: p.blocks,
		Macros: p.macros,
		Body:   scope,
	}, nil
}

// parseBody scans raw template text and nested tags until a keyword in
// stops is encountered (returned, not consumed past) or EOF (only valid
// when stops is empty, i.e. at the template root).
func (p *Parser) parseBody(stops map[string]struct{}) ([]Placeable, string, error) {
	var body []Placeable
	runStart := -1
	var runStartPos Position

	// flush materializes the pending raw-text run as a Text node. A run
	// is a straight byte slice of the source, except that any `{# ... #}`
	// comments lexed within it (invisible to this loop — the Lexer
	// consumes them without emitting a token) must be cut back out.
	flush := func(endOffset int, endPos Position) {
		if runStart >= 0 && endOffset > runStart {
			var sb strings.Builder
			cursor := runStart
			for _, c := range p.lexer.CommentsBetween(runStart, endOffset) {
				sb.WriteString(p.lexer.Substr(cursor, c.Start.Offset))
				cursor = c.End.Offset
			}
			sb.WriteString(p.lexer.Substr(cursor, endOffset))
			if sb.Len() > 0 {
				body = append(body, &Text{base: base{Span{runStartPos, endPos}}, Text: sb.String()})
			}
		}
		runStart = -1
	}

	for {
		// A raw-text run starts where the previous token ended, so the
		// whitespace the Lexer skips ahead of the next token stays in the
		// Text node.
		before := p.lexer.pos()
		tok, err := p.next(false)
		if err != nil {
			return nil, "", err
		}
		if runStart < 0 {
			runStart = before.Offset
			runStartPos = before
		}

		switch {
		case tok.Typ == TokenEOF:
			flush(tok.Span.Start.Offset, tok.Span.Start)
			if len(stops) > 0 {
				return nil, "", p.errorAt(tok, "unexpected end of input, a closing tag was expected")
			}
			return body, "", nil

		case tok.Typ == TokenSymbol && tok.Val == "{{":
			flush(tok.Span.Start.Offset, tok.Span.Start)
			pv, err := p.parsePutValue(tok)
			if err != nil {
				return nil, "", err
			}
			body = append(body, pv)

		case tok.Typ == TokenSymbol && tok.Val == "{%":
			// Tag names are reserved words, so expectIdentifier (which
			// rejects them) does not apply here.
			kw, err := p.next(true)
			if err != nil {
				return nil, "", err
			}
			if kw.Typ != TokenIdentifier {
				return nil, "", p.errorAt(kw, "expected a tag name")
			}
			if _, ok := stops[kw.Val]; ok {
				flush(tok.Span.Start.Offset, tok.Span.Start)
				return body, kw.Val, nil
			}
			flush(tok.Span.Start.Offset, tok.Span.Start)
			node, err := p.parseStatement(kw)
			if err != nil {
				return nil, "", err
			}
			body = append(body, node)

		default:
			// part of the pending raw-text run
		}
	}
}

// parsePutValue parses `{{ expr (| filter)* }}`. The value expression and
// every filter expression are each terminated by either "|" or "}}".
func (p *Parser) parsePutValue(open Token) (*PutValue, error) {
	term := syms("}}", "|")
	value, err := p.ParseExpression(term)
	if err != nil {
		return nil, err
	}
	var filters []Expr
	for {
		tok, err := p.next(true)
		if err != nil {
			return nil, err
		}
		if tok.Typ == TokenSymbol && tok.Val == "}}" {
			end := tok.Span.End
			return &PutValue{base: base{Span{open.Span.Start, end}}, Value: value, Filters: filters}, nil
		}
		if tok.Typ == TokenSymbol && tok.Val == "|" {
			f, err := p.ParseExpression(term)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
			continue
		}
		return nil, p.errorAt(tok, "expected '|' or '}}'")
	}
}

func (p *Parser) parseStatement(kw Token) (Placeable, error) {
	switch kw.Val {
	case "if":
		return p.parseIf(kw)
	case "for":
		return p.parseFor(kw)
	case "macro":
		return p.parseMacro(kw)
	case "call":
		return p.parseCall(kw)
	case "filter":
		return p.parseFilterBlock(kw)
	case "block":
		return p.parseBlockTag(kw)
	case "set":
		return p.parseAssign(kw)
	default:
		return nil, p.errorAt(kw, "unexpected tag %q", kw.Val)
	}
}

// parseIf parses `if`/`elif`/`else`/`endif` into a single CaseStatement.
func (p *Parser) parseIf(kw Token) (*CaseStatement, error) {
	var arms []*Arm

	cond, err := p.ParseExpression(syms("%}"))
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("%}"); err != nil {
		return nil, err
	}
	body, stop, err := p.parseBody(ifStops)
	if err != nil {
		return nil, err
	}
	armEnd := cond.Span().End
	if len(body) > 0 {
		armEnd = body[len(body)-1].Span().End
	}
	arms = append(arms, &Arm{base: base{Span{kw.Span.Start, armEnd}}, Condition: cond, Body: body})

	for stop == "elif" {
		elifCond, err := p.ParseExpression(syms("%}"))
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol("%}"); err != nil {
			return nil, err
		}
		elifBody, nextStop, err := p.parseBody(elifStops)
		if err != nil {
			return nil, err
		}
		end := elifCond.Span().End
		if len(elifBody) > 0 {
			end = elifBody[len(elifBody)-1].Span().End
		}
		arms = append(arms, &Arm{base: base{Span{elifCond.Span().Start, end}}, Condition: elifCond, Body: elifBody})
		stop = nextStop
	}

	if stop == "else" {
		elseEndTok, err := p.expectSymbol("%}")
		if err != nil {
			return nil, err
		}
		elseBody, nextStop, err := p.parseBody(elseStops)
		if err != nil {
			return nil, err
		}
		end := elseEndTok.Span.End
		if len(elseBody) > 0 {
			end = elseBody[len(elseBody)-1].Span().End
		}
		// The else arm's condition is a Boolean(true) literal with a
		// zero-width span at the `{% else %}` tag's closing `%}`.
		trueLit := &BoolLit{base: base{Span{elseEndTok.Span.End, elseEndTok.Span.End}}, Value: true}
		arms = append(arms, &Arm{base: base{Span{elseEndTok.Span.End, end}}, Condition: trueLit, Body: elseBody})
		stop = nextStop
	}

	endTok, err := p.expectSymbol("%}")
	if err != nil {
		return nil, err
	}
	_ = stop // stop == "endif" here; its own closing "%}" was just consumed above
	return &CaseStatement{base: base{Span{kw.Span.Start, endTok.Span.End}}, Arms: arms}, nil
}

// parsePattern parses a `for`/`set` binding: a single name or a
// comma-separated Unpack.
func (p *Parser) parsePattern() (Pattern, error) {
	first, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	names := []*Variable{{base: base{first.Span}, Name: first.Val}}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Typ == TokenSymbol && tok.Val == "," {
			p.consume()
			id, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			names = append(names, &Variable{base: base{id.Span}, Name: id.Val})
			continue
		}
		break
	}
	if len(names) == 1 {
		return names[0], nil
	}
	sp := Span{names[0].Span().Start, names[len(names)-1].Span().End}
	return &Unpack{base: base{sp}, Names: names}, nil
}

// patternNames lists the bound names of a Pattern, used to populate a
// Scope's Variables field: only a Scope with at least one declared
// variable allocates a fresh lowering context.
func patternNames(p Pattern) []string {
	switch v := p.(type) {
	case *Variable:
		return []string{v.Name}
	case *Unpack:
		names := make([]string, len(v.Names))
		for i, n := range v.Names {
			names[i] = n.Name
		}
		return names
	default:
		return nil
	}
}

func argNames(args []*Argument) []string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Name
	}
	return names
}

// parseFor parses `for pattern in iterable [if filter] [else] endfor`.
func (p *Parser) parseFor(kw Token) (*ForLoop, error) {
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	inTok, err := p.next(true)
	if err != nil {
		return nil, err
	}
	if inTok.Typ != TokenIdentifier || inTok.Val != "in" {
		return nil, p.errorAt(inTok, "expected 'in'")
	}
	iterable, err := p.ParseExpression(syms("%}").withKeyword("if"))
	if err != nil {
		return nil, err
	}

	var filter Expr
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Typ == TokenIdentifier && tok.Val == "if" {
		p.consume()
		filter, err = p.ParseExpression(syms("%}"))
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectSymbol("%}"); err != nil {
		return nil, err
	}

	bodyList, stop, err := p.parseBody(forStops)
	if err != nil {
		return nil, err
	}
	bodyEnd := kw.Span.End
	if len(bodyList) > 0 {
		bodyEnd = bodyList[len(bodyList)-1].Span().End
	}
	bodyScope := &Scope{base: base{Span{kw.Span.End, bodyEnd}}, Variables: patternNames(pattern), Body: bodyList}

	var alt []Placeable
	if stop == "else" {
		if _, err := p.expectSymbol("%}"); err != nil {
			return nil, err
		}
		alt, stop, err = p.parseBody(forElseStop)
		if err != nil {
			return nil, err
		}
	}
	endTok, err := p.expectSymbol("%}")
	if err != nil {
		return nil, err
	}

	return &ForLoop{
		base:        base{Span{kw.Span.Start, endTok.Span.End}},
		Pattern:     pattern,
		Iterable:    iterable,
		Filter:      filter,
		Body:        bodyScope,
		Alternative: alt,
	}, nil
}

// parseArgList parses the literal `(name [= number], ...)` parameter list
// of a macro definition. Only Number literal defaults are accepted.
func (p *Parser) parseArgList() ([]*Argument, error) {
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var args []*Argument
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Typ == TokenSymbol && tok.Val == ")" {
		p.consume()
		return args, nil
	}
	for {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		arg := &Argument{base: base{name.Span}, Name: name.Val}
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Typ == TokenSymbol && tok.Val == "=" {
			p.consume()
			numTok, err := p.next(true)
			if err != nil {
				return nil, err
			}
			if numTok.Typ != TokenNumber {
				return nil, p.errorAt(numTok, "macro argument defaults must be a number literal")
			}
			arg.Default = &NumberLit{base: base{numTok.Span}, Value: numTok.Number}
			arg.span.End = numTok.Span.End
		}
		args = append(args, arg)
		sep, err := p.next(true)
		if err != nil {
			return nil, err
		}
		if sep.Typ == TokenSymbol && sep.Val == "," {
			continue
		}
		if sep.Typ == TokenSymbol && sep.Val == ")" {
			return args, nil
		}
		return nil, p.errorAt(sep, "expected ',' or ')'")
	}
}

// parseExprArgList parses a literal `(expr, expr, ...)` call-argument list,
// used by `call name(args)`. Unlike a Yard-detected function call, the
// parentheses here are consumed directly by the tag.
func (p *Parser) parseExprArgList() ([]Expr, error) {
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var args []Expr
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Typ == TokenSymbol && tok.Val == ")" {
		p.consume()
		return args, nil
	}
	for {
		arg, err := p.ParseExpression(syms(",", ")"))
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		sep, err := p.next(true)
		if err != nil {
			return nil, err
		}
		if sep.Typ == TokenSymbol && sep.Val == "," {
			continue
		}
		if sep.Typ == TokenSymbol && sep.Val == ")" {
			return args, nil
		}
		return nil, p.errorAt(sep, "expected ',' or ')'")
	}
}

// parseMacro parses `macro name(args) ... endmacro`. Every macro is both
// left in place as a Placeable (a no-op at render time) and collected into
// the Template's flat Macros list for lowering.
func (p *Parser) parseMacro(kw Token) (*Macro, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("%}"); err != nil {
		return nil, err
	}
	bodyList, _, err := p.parseBody(macroStops)
	if err != nil {
		return nil, err
	}
	endTok, err := p.expectSymbol("%}")
	if err != nil {
		return nil, err
	}
	bodyEnd := kw.Span.End
	if len(bodyList) > 0 {
		bodyEnd = bodyList[len(bodyList)-1].Span().End
	}
	macro := &Macro{
		base: base{Span{kw.Span.Start, endTok.Span.End}},
		Name: name.Val,
		Args: args,
		Body: &Scope{base: base{Span{kw.Span.End, bodyEnd}}, Variables: argNames(args), Body: bodyList},
	}
	p.macros = append(p.macros, macro)
	return macro, nil
}

// parseCall parses `call name(args) ... endcall`, producing a MacroCall
// whose Caller scope holds the body.
func (p *Parser) parseCall(kw Token) (*MacroCall, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	args, err := p.parseExprArgList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("%}"); err != nil {
		return nil, err
	}
	bodyList, _, err := p.parseBody(callStops)
	if err != nil {
		return nil, err
	}
	endTok, err := p.expectSymbol("%}")
	if err != nil {
		return nil, err
	}
	bodyEnd := kw.Span.End
	if len(bodyList) > 0 {
		bodyEnd = bodyList[len(bodyList)-1].Span().End
	}
	return &MacroCall{
		base:   base{Span{kw.Span.Start, endTok.Span.End}},
		Macro:  name.Val,
		Args:   args,
		Caller: &Scope{base: base{Span{kw.Span.End, bodyEnd}}, Body: bodyList},
	}, nil
}

// parseFilterBlock parses `filter expr ... endfilter`.
func (p *Parser) parseFilterBlock(kw Token) (*FilterBlock, error) {
	filter, err := p.ParseExpression(syms("%}"))
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("%}"); err != nil {
		return nil, err
	}
	bodyList, _, err := p.parseBody(filterStops)
	if err != nil {
		return nil, err
	}
	endTok, err := p.expectSymbol("%}")
	if err != nil {
		return nil, err
	}
	bodyEnd := kw.Span.End
	if len(bodyList) > 0 {
		bodyEnd = bodyList[len(bodyList)-1].Span().End
	}
	return &FilterBlock{
		base:   base{Span{kw.Span.Start, endTok.Span.End}},
		Filter: filter,
		Body:   &Scope{base: base{Span{kw.Span.End, bodyEnd}}, Body: bodyList},
	}, nil
}

// parseBlockTag parses `block name ... endblock`. The definition is
// collected by value into the Template's flat Blocks list; the body
// position gets only a CallBlock reference.
func (p *Parser) parseBlockTag(kw Token) (*CallBlock, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("%}"); err != nil {
		return nil, err
	}
	bodyList, _, err := p.parseBody(blockStops)
	if err != nil {
		return nil, err
	}
	endTok, err := p.expectSymbol("%}")
	if err != nil {
		return nil, err
	}
	bodyEnd := kw.Span.End
	if len(bodyList) > 0 {
		bodyEnd = bodyList[len(bodyList)-1].Span().End
	}
	block := &Block{
		base: base{Span{kw.Span.Start, endTok.Span.End}},
		Name: name.Val,
		Body: &Scope{base: base{Span{kw.Span.End, bodyEnd}}, Body: bodyList},
	}
	p.blocks = append(p.blocks, block)
	return &CallBlock{base: base{block.span}, Name: name.Val}, nil
}

// parseAssign parses `set pattern = expr`.
func (p *Parser) parseAssign(kw Token) (*Assign, error) {
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("="); err != nil {
		return nil, err
	}
	value, err := p.ParseExpression(syms("%}"))
	if err != nil {
		return nil, err
	}
	endTok, err := p.expectSymbol("%}")
	if err != nil {
		return nil, err
	}
	return &Assign{base: base{Span{kw.Span.Start, endTok.Span.End}}, Pattern: pattern, Value: value}, nil
}
