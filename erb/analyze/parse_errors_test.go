package analyze

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/herbcore/herb/erb"
)

func TestLiftParseErrorsPromotesRemainingDiagnostics(t *testing.T) {
	frag := &erb.ERBContent{Analyzed: &erb.AnalyzedRuby{
		Diagnostics: []erb.RubyDiagnostic{{Message: "unexpected token", Location: erb.Location{}}},
	}}
	liftParseErrors([]erb.ASTNode{frag}, "corr-1")

	require.Len(t, frag.NodeErrors(), 1)
	parseErr, ok := frag.NodeErrors()[0].(*erb.RubyParseError)
	require.True(t, ok)
	require.Equal(t, "unexpected token", parseErr.Message)
	require.Equal(t, "corr-1", parseErr.CorrelationID)
	require.Nil(t, frag.Analyzed.Diagnostics)
}

func TestLiftParseErrorsNoopOnCleanFragment(t *testing.T) {
	frag := &erb.ERBContent{Analyzed: &erb.AnalyzedRuby{Valid: true}}
	liftParseErrors([]erb.ASTNode{frag}, "corr-2")
	require.Empty(t, frag.NodeErrors())
}

func TestLiftParseErrorsWalksNestedCompoundStatements(t *testing.T) {
	frag := &erb.ERBContent{Analyzed: &erb.AnalyzedRuby{
		Diagnostics: []erb.RubyDiagnostic{{Message: "bad token"}},
	}}
	ifNode := &erb.ERBIf{
		Statements: []erb.ASTNode{frag},
		Subsequent: &erb.ERBElse{Statements: []erb.ASTNode{}},
	}
	liftParseErrors([]erb.ASTNode{ifNode}, "corr-3")

	require.Len(t, frag.NodeErrors(), 1)
}

func TestNewCorrelationIDIsUnique(t *testing.T) {
	a := newCorrelationID()
	b := newCorrelationID()
	require.NotEqual(t, a, b)
	require.NotEmpty(t, a)
}
