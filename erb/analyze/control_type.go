package analyze

import (
	"github.com/herbcore/herb/erb"
	"github.com/herbcore/herb/erb/ruby"
)

// Classify implements the control-fragment classifier: given an analysed
// fragment, produce an erb.ControlType from the closed set. A nil record or a
// fragment whose sub-parse was valid always classifies as Unknown: a fragment
// with no diagnostics parsed as a complete, self-contained Ruby program and
// carries no control keyword the assembler needs to act on.
func Classify(ar *erb.AnalyzedRuby) erb.ControlType {
	if ar == nil || ar.Valid {
		return erb.Unknown
	}

	switch {
	case ar.ElsifCount > 0:
		return erb.Elsif
	case ar.ElseCount > 0:
		return erb.Else
	case ar.EndCount > 0:
		return erb.End
	}

	switch {
	case ar.WhenCount > 0 && ar.CaseCount == 0:
		return erb.When
	case ar.InCount > 0 && ar.CaseMatchCount == 0:
		return erb.In
	}

	switch {
	case ar.RescueCount > 0:
		return erb.Rescue
	case ar.EnsureCount > 0:
		return erb.Ensure
	case ar.BlockClosingCount > 0:
		return erb.BlockClose
	}

	if ar.UnclosedControlFlowCount == 0 && ar.YieldCount == 0 {
		return erb.Unknown
	}

	root, _ := ar.Root.(*ruby.Node)
	return findEarliestControlKeyword(root)
}

type candidate struct {
	typ    erb.ControlType
	offset int
	found  bool
}

// findEarliestControlKeyword walks the sub-parsed tree and returns the
// ControlType of the keyword with the smallest byte offset, with the two
// ordering exceptions: a Block candidate always displaces an already-chosen
// Yield (regardless of relative offset), and a Yield candidate never
// displaces an already-chosen Block.
func findEarliestControlKeyword(root *ruby.Node) erb.ControlType {
	if root == nil {
		return erb.Unknown
	}

	var result candidate

	root.Visit(func(n *ruby.Node) {
		current, offset, ok := controlCandidateFor(n)
		if !ok {
			return
		}

		shouldUpdate := !result.found
		if result.found {
			if current == erb.Block && result.typ == erb.Yield {
				shouldUpdate = true
			} else if !(current == erb.Yield && result.typ == erb.Block) {
				shouldUpdate = offset < result.offset
			}
		}

		if shouldUpdate {
			result = candidate{typ: current, offset: offset, found: true}
		}
	})

	if !result.found {
		return erb.Unknown
	}
	return result.typ
}

// controlCandidateFor maps a single sub-parsed node to the (ControlType,
// offset) pair the walker compares, matching the node-type production rules
// of the embedded parser's own keyword walker: If/Unless/Case/CaseMatch/
// While/Until/For/Begin/Yield nodes report their own opener offset directly;
// a do-block (closed or not), a brace-block with no closing brace, and a
// lambda with no close report Block at the node's own start; everything else
// is not a candidate.
func controlCandidateFor(n *ruby.Node) (erb.ControlType, int, bool) {
	switch n.NodeKind {
	case ruby.KindIf:
		return erb.If, n.OpenerLocation.Start.Offset, true
	case ruby.KindUnless:
		return erb.Unless, n.OpenerLocation.Start.Offset, true
	case ruby.KindCase:
		return erb.Case, n.OpenerLocation.Start.Offset, true
	case ruby.KindCaseMatch:
		return erb.CaseMatch, n.OpenerLocation.Start.Offset, true
	case ruby.KindWhile:
		return erb.While, n.OpenerLocation.Start.Offset, true
	case ruby.KindUntil:
		return erb.Until, n.OpenerLocation.Start.Offset, true
	case ruby.KindFor:
		return erb.For, n.OpenerLocation.Start.Offset, true
	case ruby.KindBegin:
		return erb.Begin, n.OpenerLocation.Start.Offset, true
	case ruby.KindYield:
		return erb.Yield, n.OpenerLocation.Start.Offset, true
	case ruby.KindBlock:
		if n.CloserLocation.IsZero() || n.Delimiter == ruby.DelimiterDoEnd {
			return erb.Block, n.OpenerLocation.Start.Offset, true
		}
		return erb.Unknown, 0, false
	case ruby.KindLambda:
		if n.CloserLocation.IsZero() {
			return erb.Block, n.OpenerLocation.Start.Offset, true
		}
		return erb.Unknown, 0, false
	default:
		return erb.Unknown, 0, false
	}
}

// IsSubsequentType reports whether childType is a valid subsequent fragment
// for a compound opener of parentType (e.g. Elsif/Else after If).
func IsSubsequentType(parentType, childType erb.ControlType) bool {
	switch parentType {
	case erb.If, erb.Elsif:
		return childType == erb.Elsif || childType == erb.Else
	case erb.Case, erb.CaseMatch:
		return childType == erb.When || childType == erb.Else || childType == erb.In
	case erb.Begin:
		return childType == erb.Rescue || childType == erb.Else || childType == erb.Ensure
	case erb.Rescue:
		return childType == erb.Rescue || childType == erb.Else || childType == erb.Ensure
	case erb.Unless:
		return childType == erb.Else
	default:
		return false
	}
}

// IsTerminatorType reports whether childType ends the current compound's
// collection of children when parentType is the enclosing context — the
// relation processBlockChildren consults to know when to stop folding.
func IsTerminatorType(parentType, childType erb.ControlType) bool {
	if childType == erb.End {
		return true
	}
	switch parentType {
	case erb.When:
		return childType == erb.When || childType == erb.Else || childType == erb.In
	case erb.In:
		return childType == erb.In || childType == erb.Else
	case erb.Block:
		return childType == erb.BlockClose
	default:
		return IsSubsequentType(parentType, childType)
	}
}
