package jinjac

import (
	"testing"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func TestIssues(t *testing.T) { TestingT(t) }

type IssueTestSuite struct{}

var _ = Suite(&IssueTestSuite{})

// A regression suite for specific bugs, following the same shape as the
// upstream issue tracker's own tests: one method per fixed defect.

func (s *IssueTestSuite) TestCommentDoesNotLeakIntoSurroundingText(c *C) {
	tmpl, err := NewParser("t", "a{# drop me #}b").Parse()
	c.Assert(err, IsNil)
	c.Assert(tmpl.Body.Body, HasLen, 1)
	text, ok := tmpl.Body.Body[0].(*Text)
	c.Assert(ok, Equals, true)
	c.Check(text.Text, Equals, "ab")
}

func (s *IssueTestSuite) TestElseArmConditionIsZeroWidthBooleanTrue(c *C) {
	tmpl, err := NewParser("t", "{% if a %}x{% else %}y{% endif %}").Parse()
	c.Assert(err, IsNil)
	cs := tmpl.Body.Body[0].(*CaseStatement)
	elseArm := cs.Arms[len(cs.Arms)-1]
	b, ok := elseArm.Condition.(*BoolLit)
	c.Assert(ok, Equals, true)
	c.Check(b.Value, Equals, true)
	c.Check(b.Span().Start, Equals, b.Span().End)
}

func (s *IssueTestSuite) TestMacroArgumentDefaultMustBeNumber(c *C) {
	_, err := NewParser("t", `{% macro f(x="s") %}{% endmacro %}`).Parse()
	c.Assert(err, NotNil)
}

func (s *IssueTestSuite) TestLastBlockDefinitionWinsAtLowering(c *C) {
	tmpl, err := NewParser("t", "{% block a %}one{% endblock %}{% block a %}two{% endblock %}").Parse()
	c.Assert(err, IsNil)
	c.Assert(tmpl.Blocks, HasLen, 2)
	program := Lower(tmpl, "t")
	c.Assert(program, NotNil)
	generate := program.Body[0].(*ExportDefaultDeclaration).Declaration.(*ObjectExpression).Properties[1].Value.(*FunctionExpression)
	c.Assert(generate.Body.Body, HasLen, 2)
	for _, stmt := range generate.Body.Body {
		iife := stmt.(*ExpressionStatement).Expression.(*YieldExpression).Argument.(*CallExpression)
		inner := iife.Callee.(*FunctionExpression).Body.Body[0].(*ExpressionStatement).Expression.(*YieldExpression)
		c.Check(inner.Argument.(*Literal).Value, Equals, "two")
	}
}

func (s *IssueTestSuite) TestMacroCallExcessArgsAreIgnored(c *C) {
	tmpl, err := NewParser("t", "{% macro f(a) %}{{ a }}{% endmacro %}{% call f(1, 2, 3) %}{% endcall %}").Parse()
	c.Assert(err, IsNil)
	program := Lower(tmpl, "t")
	c.Assert(program, NotNil)
	generate := program.Body[0].(*ExportDefaultDeclaration).Declaration.(*ObjectExpression).Properties[1].Value.(*FunctionExpression)
	c.Assert(generate.Body.Body, HasLen, 1)
	callExpr := generate.Body.Body[0].(*ExpressionStatement).Expression.(*YieldExpression).Argument.(*CallExpression)
	argObj := callExpr.Args[0].(*ObjectExpression)
	c.Assert(argObj.Properties, HasLen, 1)
	c.Check(argObj.Properties[0].Key.(*Identifier).Name, Equals, "a")
}

func (s *IssueTestSuite) TestReservedWordRejectedInForPattern(c *C) {
	_, err := NewParser("t", "{% for if in items %}{% endfor %}").Parse()
	c.Assert(err, NotNil)
}

func (s *IssueTestSuite) TestUnaryNotAndBangAreEquivalent(c *C) {
	p1 := NewParser("t", "not a %}")
	e1, err := p1.ParseExpression(syms("%}"))
	c.Assert(err, IsNil)
	p2 := NewParser("t", "!a %}")
	e2, err := p2.ParseExpression(syms("%}"))
	c.Assert(err, IsNil)
	c.Check(e1.(*UnaryExpr).Op.Value, Equals, e2.(*UnaryExpr).Op.Value)
}
