package jinjac

import "testing"

func parse(t *testing.T, src string) *Template {
	t.Helper()
	tmpl, err := NewParser("t", src).Parse()
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return tmpl
}

// spanContains reports whether inner lies within outer (the
// parent-contains-child span invariant for a single pair).
func spanContains(outer, inner Span) bool {
	return outer.Start.Offset <= inner.Start.Offset && inner.End.Offset <= outer.End.Offset
}

func TestParsePutValueSimple(t *testing.T) {
	tmpl := parse(t, "{{ name }}")
	if len(tmpl.Body.Body) != 1 {
		t.Fatalf("got %d placeables, want 1", len(tmpl.Body.Body))
	}
	pv, ok := tmpl.Body.Body[0].(*PutValue)
	if !ok {
		t.Fatalf("got %T, want *PutValue", tmpl.Body.Body[0])
	}
	v, ok := pv.Value.(*Variable)
	if !ok || v.Name != "name" {
		t.Fatalf("got %#v, want Variable{Name: \"name\"}", pv.Value)
	}
	if !spanContains(tmpl.Span(), pv.Span()) {
		t.Errorf("PutValue span %+v not contained in Template span %+v", pv.Span(), tmpl.Span())
	}
}

func TestParsePutValueWithFilters(t *testing.T) {
	tmpl := parse(t, "{{ name | upper | trim }}")
	pv := tmpl.Body.Body[0].(*PutValue)
	if len(pv.Filters) != 2 {
		t.Fatalf("got %d filters, want 2", len(pv.Filters))
	}
}

func TestParseTextAroundTags(t *testing.T) {
	tmpl := parse(t, "hello {{ name }} world")
	if len(tmpl.Body.Body) != 3 {
		t.Fatalf("got %d placeables, want 3", len(tmpl.Body.Body))
	}
	first, ok := tmpl.Body.Body[0].(*Text)
	if !ok || first.Text != "hello " {
		t.Fatalf("first placeable = %#v", tmpl.Body.Body[0])
	}
	last, ok := tmpl.Body.Body[2].(*Text)
	if !ok || last.Text != " world" {
		t.Fatalf("last placeable = %#v", tmpl.Body.Body[2])
	}
}

func TestParseIfElifElse(t *testing.T) {
	tmpl := parse(t, "{% if a %}A{% elif b %}B{% else %}C{% endif %}")
	cs, ok := tmpl.Body.Body[0].(*CaseStatement)
	if !ok {
		t.Fatalf("got %T, want *CaseStatement", tmpl.Body.Body[0])
	}
	if len(cs.Arms) != 3 {
		t.Fatalf("got %d arms, want 3", len(cs.Arms))
	}
	elseArm := cs.Arms[2]
	b, ok := elseArm.Condition.(*BoolLit)
	if !ok || !b.Value {
		t.Fatalf("else arm condition = %#v, want BoolLit{true}", elseArm.Condition)
	}
	if b.Span().Start != b.Span().End {
		t.Errorf("else arm synthetic condition should have a zero-width span, got %+v", b.Span())
	}
}

func TestParseIfWithoutElse(t *testing.T) {
	tmpl := parse(t, "{% if a %}A{% endif %}")
	cs := tmpl.Body.Body[0].(*CaseStatement)
	if len(cs.Arms) != 1 {
		t.Fatalf("got %d arms, want 1", len(cs.Arms))
	}
}

func TestParseForLoop(t *testing.T) {
	tmpl := parse(t, "{% for item in items %}{{ item }}{% endfor %}")
	fl, ok := tmpl.Body.Body[0].(*ForLoop)
	if !ok {
		t.Fatalf("got %T, want *ForLoop", tmpl.Body.Body[0])
	}
	v, ok := fl.Pattern.(*Variable)
	if !ok || v.Name != "item" {
		t.Fatalf("pattern = %#v", fl.Pattern)
	}
	if len(fl.Body.Variables) != 1 || fl.Body.Variables[0] != "item" {
		t.Fatalf("Body.Variables = %v, want [\"item\"]", fl.Body.Variables)
	}
}

func TestParseForLoopUnpackPattern(t *testing.T) {
	tmpl := parse(t, "{% for k, v in items %}{{ k }}{% endfor %}")
	fl := tmpl.Body.Body[0].(*ForLoop)
	up, ok := fl.Pattern.(*Unpack)
	if !ok || len(up.Names) != 2 {
		t.Fatalf("pattern = %#v", fl.Pattern)
	}
	want := []string{"k", "v"}
	for i, n := range up.Names {
		if n.Name != want[i] {
			t.Errorf("Names[%d] = %q, want %q", i, n.Name, want[i])
		}
	}
	if len(fl.Body.Variables) != 2 {
		t.Fatalf("Body.Variables = %v", fl.Body.Variables)
	}
}

func TestParseForLoopWithFilterAndElse(t *testing.T) {
	tmpl := parse(t, "{% for x in xs if x %}{{ x }}{% else %}none{% endfor %}")
	fl := tmpl.Body.Body[0].(*ForLoop)
	if fl.Filter == nil {
		t.Fatal("expected a non-nil Filter")
	}
	if fl.Alternative == nil || len(fl.Alternative) != 1 {
		t.Fatalf("Alternative = %#v", fl.Alternative)
	}
}

func TestParseMacroDeclaresArgsAsScopeVariables(t *testing.T) {
	tmpl := parse(t, "{% macro greet(name, greeting=1) %}hi{% endmacro %}")
	if len(tmpl.Macros) != 1 {
		t.Fatalf("got %d macros, want 1", len(tmpl.Macros))
	}
	m := tmpl.Macros[0]
	if m.Name != "greet" {
		t.Fatalf("name = %q", m.Name)
	}
	if len(m.Args) != 2 || m.Args[1].Default == nil || m.Args[1].Default.Value != 1 {
		t.Fatalf("args = %#v", m.Args)
	}
	if len(m.Body.Variables) != 2 || m.Body.Variables[0] != "name" || m.Body.Variables[1] != "greeting" {
		t.Fatalf("Body.Variables = %v", m.Body.Variables)
	}
	// A macro definition is also left in place as a Placeable no-op.
	if _, ok := tmpl.Body.Body[0].(*Macro); !ok {
		t.Fatalf("got %T at render position, want *Macro", tmpl.Body.Body[0])
	}
}

func TestParseMacroDefaultMustBeNumber(t *testing.T) {
	if _, err := NewParser("t", `{% macro f(x="no") %}{% endmacro %}`).Parse(); err == nil {
		t.Fatal("expected an error for a non-number macro default")
	}
}

func TestParseCallBlockAndMacroCall(t *testing.T) {
	tmpl := parse(t, "{% call greet(1, 2) %}inner{% endcall %}")
	mc, ok := tmpl.Body.Body[0].(*MacroCall)
	if !ok {
		t.Fatalf("got %T, want *MacroCall", tmpl.Body.Body[0])
	}
	if mc.Macro != "greet" || len(mc.Args) != 2 {
		t.Fatalf("got %#v", mc)
	}
	if mc.Caller == nil || len(mc.Caller.Body) != 1 {
		t.Fatalf("Caller = %#v", mc.Caller)
	}
}

func TestParseBlockRegistersDefinitionAndLeavesCallBlock(t *testing.T) {
	tmpl := parse(t, "{% block content %}hi{% endblock %}")
	if len(tmpl.Blocks) != 1 || tmpl.Blocks[0].Name != "content" {
		t.Fatalf("Blocks = %#v", tmpl.Blocks)
	}
	cb, ok := tmpl.Body.Body[0].(*CallBlock)
	if !ok || cb.Name != "content" {
		t.Fatalf("got %#v, want CallBlock{Name: content}", tmpl.Body.Body[0])
	}
}

func TestParseLastBlockDefinitionWins(t *testing.T) {
	tmpl := parse(t, "{% block a %}one{% endblock %}{% block a %}two{% endblock %}")
	if len(tmpl.Blocks) != 2 {
		t.Fatalf("got %d block definitions, want 2 (both kept; lowering picks the last)", len(tmpl.Blocks))
	}
}

func TestParseFilterBlock(t *testing.T) {
	tmpl := parse(t, "{% filter upper %}hi{% endfilter %}")
	fb, ok := tmpl.Body.Body[0].(*FilterBlock)
	if !ok {
		t.Fatalf("got %T, want *FilterBlock", tmpl.Body.Body[0])
	}
	if _, ok := fb.Filter.(*Variable); !ok {
		t.Fatalf("Filter = %#v", fb.Filter)
	}
}

func TestParseAssignSingleAndUnpack(t *testing.T) {
	tmpl := parse(t, "{% set x = 1 %}")
	as := tmpl.Body.Body[0].(*Assign)
	if _, ok := as.Pattern.(*Variable); !ok {
		t.Fatalf("Pattern = %#v", as.Pattern)
	}

	tmpl2 := parse(t, "{% set a, b = pair %}")
	as2 := tmpl2.Body.Body[0].(*Assign)
	if _, ok := as2.Pattern.(*Unpack); !ok {
		t.Fatalf("Pattern = %#v", as2.Pattern)
	}
}

func TestParseRejectsReservedWordAsVariableName(t *testing.T) {
	if _, err := NewParser("t", "{% set if = 1 %}").Parse(); err == nil {
		t.Fatal("expected an error using a reserved word as a set target")
	}
}

func TestParseUnexpectedTopLevelTagIsError(t *testing.T) {
	if _, err := NewParser("t", "{% endif %}").Parse(); err == nil {
		t.Fatal("expected an error for a stray endif at the template root")
	}
}

func TestParseUnterminatedTagIsError(t *testing.T) {
	if _, err := NewParser("t", "{% if a %}body").Parse(); err == nil {
		t.Fatal("expected an error for a template ending before its closing tag")
	}
}

func TestParseCommentsContributeNoNode(t *testing.T) {
	tmpl := parse(t, "a{# nothing #}b")
	if len(tmpl.Body.Body) != 1 {
		t.Fatalf("got %d placeables, want 1 (comment contributes none)", len(tmpl.Body.Body))
	}
	text := tmpl.Body.Body[0].(*Text)
	if text.Text != "ab" {
		t.Errorf("Text = %q, want %q", text.Text, "ab")
	}
}
