package analyze

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/herbcore/herb/erb"
)

func TestInvalidStructureMissingEndOnIf(t *testing.T) {
	n := &erb.ERBIf{Content: erb.Token{Value: "if x"}}
	newInvalidStructureDetector().Run([]erb.ASTNode{n})

	require.Len(t, n.NodeErrors(), 1)
	missingEnd, ok := n.NodeErrors()[0].(*erb.MissingErbEndError)
	require.True(t, ok)
	require.Equal(t, "if", missingEnd.Keyword)
}

func TestInvalidStructureCompleteIfHasNoError(t *testing.T) {
	n := &erb.ERBIf{Content: erb.Token{Value: "if x"}, EndNode: &erb.ERBEnd{}}
	newInvalidStructureDetector().Run([]erb.ASTNode{n})
	require.Empty(t, n.NodeErrors())
}

func TestInvalidStructureOrphanedElseFragmentBecomesScopeError(t *testing.T) {
	frag := counterFragment("else", func(ar *erb.AnalyzedRuby) { ar.ElseCount = 1 })
	newInvalidStructureDetector().Run([]erb.ASTNode{frag})

	require.Len(t, frag.NodeErrors(), 1)
	scopeErr, ok := frag.NodeErrors()[0].(*erb.ErbControlFlowScopeError)
	require.True(t, ok)
	require.Equal(t, "`<% else %>`", scopeErr.Keyword)
	require.Nil(t, frag.Analyzed.Diagnostics, "the orphan diagnostic is consumed, not re-lifted as a parse error")
}

func TestInvalidStructureBreakInsideRealLoopIsSuppressed(t *testing.T) {
	breakFrag := &erb.ERBContent{Analyzed: &erb.AnalyzedRuby{
		Diagnostics: []erb.RubyDiagnostic{{Message: "Invalid break"}},
	}}
	loop := &erb.ERBWhile{Statements: []erb.ASTNode{breakFrag}, EndNode: &erb.ERBEnd{}}

	newInvalidStructureDetector().Run([]erb.ASTNode{loop})

	require.Empty(t, breakFrag.NodeErrors(), "break is valid once real loop nesting is accounted for")
	require.Empty(t, breakFrag.Analyzed.Diagnostics)
}

func TestInvalidStructureBreakOutsideRealLoopIsFlagged(t *testing.T) {
	breakFrag := &erb.ERBContent{Analyzed: &erb.AnalyzedRuby{
		Diagnostics: []erb.RubyDiagnostic{{Message: "Invalid break"}},
	}}
	newInvalidStructureDetector().Run([]erb.ASTNode{breakFrag})

	require.Len(t, breakFrag.NodeErrors(), 1)
	scopeErr, ok := breakFrag.NodeErrors()[0].(*erb.ErbControlFlowScopeError)
	require.True(t, ok)
	require.Equal(t, "`<% break %>`", scopeErr.Keyword)
}

func TestInvalidStructureRetryInsideRescueIsSuppressed(t *testing.T) {
	retryFrag := &erb.ERBContent{Analyzed: &erb.AnalyzedRuby{
		Diagnostics: []erb.RubyDiagnostic{{Message: "Invalid retry without rescue"}},
	}}
	rescueClause := &erb.ERBRescue{Statements: []erb.ASTNode{retryFrag}}
	beginNode := &erb.ERBBegin{RescueClause: rescueClause, EndNode: &erb.ERBEnd{}}

	newInvalidStructureDetector().Run([]erb.ASTNode{beginNode})

	require.Empty(t, retryFrag.NodeErrors())
	require.Empty(t, retryFrag.Analyzed.Diagnostics)
}

func TestInvalidStructureGenuineParseErrorSurvivesForLift(t *testing.T) {
	frag := &erb.ERBContent{Analyzed: &erb.AnalyzedRuby{
		Diagnostics: []erb.RubyDiagnostic{{Message: "unexpected token"}},
	}}
	newInvalidStructureDetector().Run([]erb.ASTNode{frag})

	require.Empty(t, frag.NodeErrors())
	require.Len(t, frag.Analyzed.Diagnostics, 1, "a genuine parse error is left for the lift stage, not consumed here")
}
