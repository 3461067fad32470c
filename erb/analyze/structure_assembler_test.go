package analyze

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/herbcore/herb/erb"
	"github.com/herbcore/herb/erb/ruby"
)

// openerFragment builds an ERBContent whose Analyzed classifies as an
// unclosed compound opener of the given ruby kind, the shape a real
// isolated sub-parse produces for e.g. a bare "if x" fragment.
func openerFragment(word string, kind ruby.NodeKind) *erb.ERBContent {
	tok := erb.Token{Type: erb.TokenText, Value: word}
	f := &erb.ERBContent{TagOpeningToken: tok, ContentToken: tok, TagClosingToken: tok}
	f.Analyzed = &erb.AnalyzedRuby{
		UnclosedControlFlowCount: 1,
		Root:                     &ruby.Node{NodeKind: kind, OpenerLocation: tok.Location},
	}
	return f
}

// counterFragment builds an ERBContent whose Analyzed classifies via a
// diagnostic-driven counter (elsif/else/end/when/in/rescue/ensure/}).
func counterFragment(word string, set func(*erb.AnalyzedRuby)) *erb.ERBContent {
	tok := erb.Token{Type: erb.TokenText, Value: word}
	f := &erb.ERBContent{TagOpeningToken: tok, ContentToken: tok, TagClosingToken: tok}
	ar := &erb.AnalyzedRuby{}
	set(ar)
	f.Analyzed = ar
	return f
}

func endFragment() *erb.ERBContent    { return counterFragment("end", func(ar *erb.AnalyzedRuby) { ar.EndCount = 1 }) }
func elseFragment() *erb.ERBContent   { return counterFragment("else", func(ar *erb.AnalyzedRuby) { ar.ElseCount = 1 }) }
func elsifFragment() *erb.ERBContent  { return counterFragment("elsif", func(ar *erb.AnalyzedRuby) { ar.ElsifCount = 1 }) }
func whenFragment() *erb.ERBContent   { return counterFragment("when", func(ar *erb.AnalyzedRuby) { ar.WhenCount = 1 }) }
func inFragment() *erb.ERBContent     { return counterFragment("in", func(ar *erb.AnalyzedRuby) { ar.InCount = 1 }) }
func rescueFragment() *erb.ERBContent { return counterFragment("rescue", func(ar *erb.AnalyzedRuby) { ar.RescueCount = 1 }) }
func ensureFragment() *erb.ERBContent { return counterFragment("ensure", func(ar *erb.AnalyzedRuby) { ar.EnsureCount = 1 }) }

func literalFragment(text string) *erb.ERBContent {
	tok := erb.Token{Type: erb.TokenText, Value: text}
	f := &erb.ERBContent{TagOpeningToken: tok, ContentToken: tok, TagClosingToken: tok, Valid: true}
	f.Analyzed = &erb.AnalyzedRuby{Valid: true}
	return f
}

func TestAssemblerSimpleIfEnd(t *testing.T) {
	nodes := []erb.ASTNode{openerFragment("if x", ruby.KindIf), literalFragment("body"), endFragment()}
	out := newAssembler().Run(nodes)

	require.Len(t, out, 1)
	ifNode, ok := out[0].(*erb.ERBIf)
	require.True(t, ok)
	require.Len(t, ifNode.Statements, 1)
	require.Nil(t, ifNode.Subsequent)
	require.NotNil(t, ifNode.EndNode)
}

func TestAssemblerIfElseEnd(t *testing.T) {
	nodes := []erb.ASTNode{
		openerFragment("if x", ruby.KindIf),
		literalFragment("a"),
		elseFragment(),
		literalFragment("b"),
		endFragment(),
	}
	out := newAssembler().Run(nodes)
	require.Len(t, out, 1)
	ifNode := out[0].(*erb.ERBIf)
	require.NotNil(t, ifNode.Subsequent)
	elseNode, ok := ifNode.Subsequent.(*erb.ERBElse)
	require.True(t, ok)
	require.Len(t, elseNode.Statements, 1)
	require.NotNil(t, ifNode.EndNode, "the End belongs to the chain's originating If")
}

func TestAssemblerIfElsifElseEndChainOwnership(t *testing.T) {
	nodes := []erb.ASTNode{
		openerFragment("if a", ruby.KindIf),
		literalFragment("a-body"),
		elsifFragment(),
		literalFragment("b-body"),
		elseFragment(),
		literalFragment("c-body"),
		endFragment(),
	}
	out := newAssembler().Run(nodes)
	require.Len(t, out, 1)

	top := out[0].(*erb.ERBIf)
	require.NotNil(t, top.EndNode, "only the outermost node of the chain owns EndNode")

	link, ok := top.Subsequent.(*erb.ERBIf)
	require.True(t, ok, "an elsif folds into another ERBIf link")
	require.Nil(t, link.EndNode, "an intermediate elsif link never owns the End")

	elseNode, ok := link.Subsequent.(*erb.ERBElse)
	require.True(t, ok)
	require.Len(t, elseNode.Statements, 1)
}

func TestAssemblerUnlessElseEnd(t *testing.T) {
	nodes := []erb.ASTNode{
		openerFragment("unless x", ruby.KindUnless),
		literalFragment("a"),
		elseFragment(),
		literalFragment("b"),
		endFragment(),
	}
	out := newAssembler().Run(nodes)
	require.Len(t, out, 1)
	unlessNode := out[0].(*erb.ERBUnless)
	require.NotNil(t, unlessNode.ElseClause)
	require.NotNil(t, unlessNode.EndNode)
}

func TestAssemblerCaseWhenWhenElseEnd(t *testing.T) {
	nodes := []erb.ASTNode{
		openerFragment("case x", ruby.KindCase),
		whenFragment(),
		literalFragment("a"),
		whenFragment(),
		literalFragment("b"),
		elseFragment(),
		literalFragment("c"),
		endFragment(),
	}
	out := newAssembler().Run(nodes)
	require.Len(t, out, 1)
	caseNode := out[0].(*erb.ERBCase)
	require.Len(t, caseNode.Conditions, 2)
	require.NotNil(t, caseNode.ElseClause)
	require.NotNil(t, caseNode.EndNode)
	require.Len(t, caseNode.Conditions[0].Statements, 1)
	require.Len(t, caseNode.Conditions[1].Statements, 1)
}

func TestAssemblerCaseConditionsPreserveSourceOrder(t *testing.T) {
	nodes := []erb.ASTNode{
		openerFragment("case x", ruby.KindCase),
		counterFragment("when :a", func(ar *erb.AnalyzedRuby) { ar.WhenCount = 1 }),
		literalFragment("a"),
		counterFragment("when :b", func(ar *erb.AnalyzedRuby) { ar.WhenCount = 1 }),
		literalFragment("b"),
		endFragment(),
	}
	out := newAssembler().Run(nodes)
	require.Len(t, out, 1)
	caseNode := out[0].(*erb.ERBCase)

	var got []string
	for _, w := range caseNode.Conditions {
		got = append(got, w.Content.Value)
	}
	want := []string{"when :a", "when :b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("case condition order mismatch (-want +got):\n%s", diff)
	}
}

// TestAssemblerCaseInBuildsCaseMatch proves that a case/in sequence builds
// an ERBCaseMatch even though its opener fragment classifies identically to
// a case/when opener (ruby.KindCase in both cases — the sub-parser never
// constructs a KindCaseMatch node). The In-vs-When shape can only be decided
// by scanning the arms themselves.
func TestAssemblerCaseInBuildsCaseMatch(t *testing.T) {
	nodes := []erb.ASTNode{
		openerFragment("case x", ruby.KindCase),
		inFragment(),
		literalFragment("a"),
		inFragment(),
		literalFragment("b"),
		elseFragment(),
		literalFragment("c"),
		endFragment(),
	}
	out := newAssembler().Run(nodes)
	require.Len(t, out, 1)
	caseMatchNode, ok := out[0].(*erb.ERBCaseMatch)
	require.True(t, ok, "case/in must build an ERBCaseMatch, not an ERBCase")
	require.Len(t, caseMatchNode.Conditions, 2)
	require.NotNil(t, caseMatchNode.ElseClause)
	require.NotNil(t, caseMatchNode.EndNode)
	require.Len(t, caseMatchNode.Conditions[0].Statements, 1)
	require.Len(t, caseMatchNode.Conditions[1].Statements, 1)
}

// TestAssemblerCaseInWithoutElseEnd proves an In arm is never misread as the
// terminating End: the structure must still consume the real end fragment
// and assemble a complete ERBCaseMatch.
func TestAssemblerCaseInWithoutElseEnd(t *testing.T) {
	nodes := []erb.ASTNode{
		openerFragment("case x", ruby.KindCase),
		inFragment(),
		literalFragment("a"),
		endFragment(),
	}
	out := newAssembler().Run(nodes)
	require.Len(t, out, 1)
	caseMatchNode, ok := out[0].(*erb.ERBCaseMatch)
	require.True(t, ok)
	require.Len(t, caseMatchNode.Conditions, 1)
	require.NotNil(t, caseMatchNode.EndNode)
}

func TestAssemblerBeginRescueEnsureEnd(t *testing.T) {
	nodes := []erb.ASTNode{
		openerFragment("begin", ruby.KindBegin),
		literalFragment("body"),
		rescueFragment(),
		literalFragment("handler"),
		ensureFragment(),
		literalFragment("cleanup"),
		endFragment(),
	}
	out := newAssembler().Run(nodes)
	require.Len(t, out, 1)
	beginNode := out[0].(*erb.ERBBegin)
	require.Len(t, beginNode.Statements, 1)
	require.NotNil(t, beginNode.RescueClause)
	require.Len(t, beginNode.RescueClause.Statements, 1)
	require.Nil(t, beginNode.RescueClause.Subsequent)
	require.NotNil(t, beginNode.EnsureClause)
	require.Len(t, beginNode.EnsureClause.Statements, 1)
	require.NotNil(t, beginNode.EndNode)
}

func TestAssemblerNestedIfInsideWhile(t *testing.T) {
	nodes := []erb.ASTNode{
		openerFragment("while x", ruby.KindWhile),
		openerFragment("if y", ruby.KindIf),
		literalFragment("inner"),
		endFragment(),
		endFragment(),
	}
	out := newAssembler().Run(nodes)
	require.Len(t, out, 1)
	whileNode := out[0].(*erb.ERBWhile)
	require.Len(t, whileNode.Statements, 1)
	innerIf, ok := whileNode.Statements[0].(*erb.ERBIf)
	require.True(t, ok)
	require.NotNil(t, innerIf.EndNode)
	require.NotNil(t, whileNode.EndNode)
}

func TestAssemblerStandaloneYieldReplacedInPlace(t *testing.T) {
	tok := erb.Token{Type: erb.TokenText, Value: "yield"}
	f := &erb.ERBContent{TagOpeningToken: tok, ContentToken: tok, TagClosingToken: tok}
	f.Analyzed = &erb.AnalyzedRuby{YieldCount: 1, Root: &ruby.Node{NodeKind: ruby.KindYield}}

	out := newAssembler().Run([]erb.ASTNode{f})
	require.Len(t, out, 1)
	_, ok := out[0].(*erb.ERBYield)
	require.True(t, ok)
}

func TestAssemblerRecursesIntoHtmlElementBody(t *testing.T) {
	elem := &erb.HtmlElement{Body: []erb.ASTNode{
		openerFragment("if x", ruby.KindIf),
		literalFragment("body"),
		endFragment(),
	}}
	out := newAssembler().Run([]erb.ASTNode{elem})
	require.Len(t, out, 1)
	gotElem := out[0].(*erb.HtmlElement)
	require.Len(t, gotElem.Body, 1)
	_, ok := gotElem.Body[0].(*erb.ERBIf)
	require.True(t, ok)
}
