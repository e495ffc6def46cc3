package nanohs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseModule(t *testing.T, src string) *Node {
	t.Helper()
	interner := NewInterner()
	lex := NewLexer([]byte(src), interner, nil)
	p := NewParser(lex, interner, nil)
	node, err := p.ParseModule()
	require.NoError(t, err)
	return node
}

func TestParser_ModuleHeaderWithSingleBinding(t *testing.T) {
	decls := ListElems(parseModule(t, "module M where { x = 1 }"))
	require.Len(t, decls, 1)

	bind := decls[0]
	require.Equal(t, AstBinding, bind.Tag)
	assert.Equal(t, "x", bind.Name.String())

	pats := ListElems(bind.Children[0])
	assert.Len(t, pats, 0, "a binding with no arguments has an empty pattern list")

	switches := ListElems(bind.Children[1])
	require.Len(t, switches, 1)
	sw := switches[0]
	require.Equal(t, AstSwitch, sw.Tag)
	rhs := sw.Children[1]
	require.Equal(t, AstNumLit, rhs.Tag)
	assert.EqualValues(t, 1, rhs.Number)
}

func TestParser_BareTopDeclsWithoutModuleHeader(t *testing.T) {
	decls := ListElems(parseModule(t, "x = 1"))
	require.Len(t, decls, 1)
	assert.Equal(t, AstBinding, decls[0].Tag)
}

func TestParser_MultipleBindingsLayoutSeparated(t *testing.T) {
	decls := ListElems(parseModule(t, "x = 1\ny = 2"))
	require.Len(t, decls, 2)
	assert.Equal(t, "x", decls[0].Name.String())
	assert.Equal(t, "y", decls[1].Name.String())
}

func TestParser_FunctionBindingWithArguments(t *testing.T) {
	decls := ListElems(parseModule(t, "add x y = x"))
	require.Len(t, decls, 1)
	bind := decls[0]
	assert.Equal(t, "add", bind.Name.String())
	pats := ListElems(bind.Children[0])
	require.Len(t, pats, 2)
	assert.Equal(t, AstPatVar, pats[0].Tag)
	assert.Equal(t, "x", pats[0].Name.String())
	assert.Equal(t, "y", pats[1].Name.String())
}

func TestParser_LambdaExpression(t *testing.T) {
	decls := ListElems(parseModule(t, `f = \x -> x`))
	rhs := decls[0].Children[1].Children[0].Children[1]
	require.Equal(t, AstLambda, rhs.Tag)
	pats := ListElems(rhs.Children[0])
	require.Len(t, pats, 1)
	assert.Equal(t, "x", pats[0].Name.String())
}

func TestParser_IfExpression(t *testing.T) {
	decls := ListElems(parseModule(t, "f = if x then 1 else 2"))
	rhs := decls[0].Children[1].Children[0].Children[1]
	require.Equal(t, AstIf, rhs.Tag)
	assert.Equal(t, AstVar, rhs.Children[0].Tag)
	assert.Equal(t, AstNumLit, rhs.Children[1].Tag)
	assert.Equal(t, AstNumLit, rhs.Children[2].Tag)
}

func TestParser_CaseExpressionWithLayout(t *testing.T) {
	src := "f = case x of\n  A -> 1\n  B -> 2"
	decls := ListElems(parseModule(t, src))
	rhs := decls[0].Children[1].Children[0].Children[1]
	require.Equal(t, AstCase, rhs.Tag)
	branches := ListElems(rhs.Children[1])
	require.Len(t, branches, 2)
	assert.Equal(t, AstBranch, branches[0].Tag)
	assert.Equal(t, AstPatCon, branches[0].Children[0].Tag)
	assert.Equal(t, "A", branches[0].Children[0].QualName.Name.String())
}

func TestParser_TupleExpression(t *testing.T) {
	decls := ListElems(parseModule(t, "f = (1, 2, 3)"))
	rhs := decls[0].Children[1].Children[0].Children[1]
	// (1,2,3) desugars to TUPLE(3) applied three times.
	require.Equal(t, AstApply, rhs.Tag)
	var arity int
	n := rhs
	for n.Tag == AstApply {
		n = n.Children[0]
	}
	require.Equal(t, AstTuple, n.Tag)
	arity = n.Int
	assert.Equal(t, 3, arity)
}

func TestParser_ParenthesizedSingleExprCollapses(t *testing.T) {
	decls := ListElems(parseModule(t, "f = (1)"))
	rhs := decls[0].Children[1].Children[0].Children[1]
	assert.Equal(t, AstParens, rhs.Tag)
	assert.Equal(t, AstNumLit, rhs.Children[0].Tag)
}

func TestParser_LetExpression(t *testing.T) {
	decls := ListElems(parseModule(t, "f = let y = 1 in y"))
	rhs := decls[0].Children[1].Children[0].Children[1]
	require.Equal(t, AstLet, rhs.Tag)
	inner := ListElems(rhs.Children[0])
	require.Len(t, inner, 1)
	assert.Equal(t, AstBinding, inner[0].Tag)
}

func TestParser_DoBlockLayout(t *testing.T) {
	src := "f = do\n  a\n  b"
	decls := ListElems(parseModule(t, src))
	rhs := decls[0].Children[1].Children[0].Children[1]
	require.Equal(t, AstDo, rhs.Tag)
	stmts := ListElems(rhs.Children[0])
	require.Len(t, stmts, 2)
}

func TestParser_GuardedRhs(t *testing.T) {
	src := "f x\n  | x = 1\n  | otherwise = 2"
	decls := ListElems(parseModule(t, src))
	switches := ListElems(decls[0].Children[1])
	require.Len(t, switches, 2)
	for _, sw := range switches {
		assert.Equal(t, AstSwitch, sw.Tag)
	}
}

func TestParser_FixityDeclaration(t *testing.T) {
	decls := ListElems(parseModule(t, "infixl 6 + ; x = 1"))
	require.Len(t, decls, 2)
	assert.Equal(t, AstInfixl, decls[0].Tag)
	assert.Equal(t, 6, decls[0].Int)
	assert.Equal(t, "+", decls[0].QualName.Name.String())
}

func TestParser_TypeSignature(t *testing.T) {
	decls := ListElems(parseModule(t, "x :: Int\nx = 1"))
	require.Len(t, decls, 2)
	assert.Equal(t, AstHasType, decls[0].Tag)
	assert.Equal(t, "x", decls[0].Name.String())
	assert.Equal(t, AstTypeCon, decls[0].Children[0].Tag)
}

func TestParser_BacktickInfixApplicationIsUnresolvedOperator(t *testing.T) {
	decls := ListElems(parseModule(t, "f = a `op` b"))
	rhs := decls[0].Children[1].Children[0].Children[1]
	require.Equal(t, AstUOperator, rhs.Tag)
	assert.Equal(t, AstVar, rhs.Children[0].Tag)
	assert.Equal(t, "op", rhs.Children[0].QualName.Name.String())
}

func TestParser_MalformedInputIsFatal(t *testing.T) {
	interner := NewInterner()
	lex := NewLexer([]byte("x = = ="), interner, nil)
	p := NewParser(lex, interner, nil)
	_, err := p.ParseModule()
	require.Error(t, err)
	_, ok := err.(ParseError)
	assert.True(t, ok)
}

func TestParser_TrailingGarbageIsFatal(t *testing.T) {
	interner := NewInterner()
	lex := NewLexer([]byte("x = 1 garbage )"), interner, nil)
	p := NewParser(lex, interner, nil)
	_, err := p.ParseModule()
	require.Error(t, err)
}

func TestParser_DepthCapIsEnforced(t *testing.T) {
	// Deeply nested parentheses should hit the recursion cap rather than
	// overflow the Go call stack.
	src := "f = " + nestedParens(5000) + "1" + closeParens(5000)
	interner := NewInterner()
	lex := NewLexer([]byte(src), interner, nil)
	cfg := NewConfig()
	cfg.SetInt("parser.max_depth", 64)
	p := NewParser(lex, interner, cfg)
	_, err := p.ParseModule()
	require.Error(t, err)
	pe, ok := err.(ParseError)
	require.True(t, ok)
	assert.Contains(t, pe.Message, "recursion depth exceeded")
}

func TestParser_SpansAreStableAcrossEquivalentWhitespace(t *testing.T) {
	// "x = 1" and "x = 1\n" should give the right-hand side the same span:
	// a trailing newline does not move anything before it. go-cmp gives a
	// readable diff straight down through Span/Position if that ever
	// drifts.
	a := parseModule(t, "x = 1")
	b := parseModule(t, "x = 1\n")

	declsA := ListElems(a)
	declsB := ListElems(b)
	require.Len(t, declsA, 1)
	require.Len(t, declsB, 1)

	spanA := declsA[0].Children[1].Children[0].Children[1].Span
	spanB := declsB[0].Children[1].Children[0].Children[1].Span
	if diff := cmp.Diff(spanA, spanB); diff != "" {
		t.Errorf("rhs span mismatch (-a +b):\n%s", diff)
	}
}

func nestedParens(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += "("
	}
	return s
}

func closeParens(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += ")"
	}
	return s
}
