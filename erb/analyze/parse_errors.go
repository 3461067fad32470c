package analyze

import (
	"github.com/google/uuid"

	"github.com/herbcore/herb/erb"
)

// liftParseErrors runs the final step of the pipeline: every diagnostic
// still sitting on a fragment's AnalyzedRuby after InvalidStructureDetector
// has had its say (anything not a control-flow scope violation or an
// orphaned subsequent/terminator keyword, both already consumed and
// converted in P5) is a genuine embedded-parser syntax error and gets
// promoted to a RubyParseError on the fragment's own error array.
//
// A real external Ruby parser would need a synthetic-separator re-parse
// here to re-attribute a diagnostic raised against a multi-statement
// `;`-joined reconstruction back to the one fragment it came from; this
// module's sub-parser already reports fragment-relative, already-precise
// locations directly, so that reattribution step has nothing to do and is
// skipped.
func liftParseErrors(nodes []erb.ASTNode, correlationID string) {
	visitFragments(nodes, func(frag *erb.ERBContent) {
		if frag.Analyzed == nil || len(frag.Analyzed.Diagnostics) == 0 {
			return
		}
		for _, diag := range frag.Analyzed.Diagnostics {
			frag.SetErrors(append(frag.NodeErrors(), &erb.RubyParseError{
				Message:       diag.Message,
				Location:      diag.Location,
				CorrelationID: correlationID,
			}))
		}
		frag.Analyzed.Diagnostics = nil
	})
}

func newCorrelationID() string {
	return uuid.NewString()
}

// visitFragments walks every ERBContent reachable from nodes, recursing into
// every sibling array a compound node owns.
func visitFragments(nodes []erb.ASTNode, fn func(*erb.ERBContent)) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *erb.ERBContent:
			fn(v)
		case *erb.HtmlElement:
			visitFragments(v.Body, fn)
		case *erb.HtmlConditionalElement:
			visitFragments(v.Body, fn)
		case *erb.ERBIf:
			visitFragments(v.Statements, fn)
			visitSubsequentFragments(v.Subsequent, fn)
		case *erb.ERBUnless:
			visitFragments(v.Statements, fn)
			if v.ElseClause != nil {
				visitFragments(v.ElseClause.Statements, fn)
			}
		case *erb.ERBCase:
			visitFragments(v.PreChildren, fn)
			for _, w := range v.Conditions {
				visitFragments(w.Statements, fn)
			}
			if v.ElseClause != nil {
				visitFragments(v.ElseClause.Statements, fn)
			}
		case *erb.ERBCaseMatch:
			visitFragments(v.PreChildren, fn)
			for _, in := range v.Conditions {
				visitFragments(in.Statements, fn)
			}
			if v.ElseClause != nil {
				visitFragments(v.ElseClause.Statements, fn)
			}
		case *erb.ERBWhile:
			visitFragments(v.Statements, fn)
		case *erb.ERBUntil:
			visitFragments(v.Statements, fn)
		case *erb.ERBFor:
			visitFragments(v.Statements, fn)
		case *erb.ERBBlock:
			visitFragments(v.Body, fn)
		case *erb.ERBBegin:
			visitFragments(v.Statements, fn)
			for rc := v.RescueClause; rc != nil; rc = rc.Subsequent {
				visitFragments(rc.Statements, fn)
			}
			if v.ElseClause != nil {
				visitFragments(v.ElseClause.Statements, fn)
			}
			if v.EnsureClause != nil {
				visitFragments(v.EnsureClause.Statements, fn)
			}
		}
	}
}

func visitSubsequentFragments(n erb.ASTNode, fn func(*erb.ERBContent)) {
	switch v := n.(type) {
	case *erb.ERBIf:
		visitFragments(v.Statements, fn)
		visitSubsequentFragments(v.Subsequent, fn)
	case *erb.ERBElse:
		visitFragments(v.Statements, fn)
	}
}
