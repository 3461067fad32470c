package analyze

import "github.com/herbcore/herb/erb"

// fragmentEndPosition implements the location policy for a spent ERBContent
// donor: its own end is, in priority, the tag-closing token's end, else the
// content token's end, else the tag-opening token's end.
func fragmentEndPosition(frag *erb.ERBContent) erb.Position {
	if !frag.TagClosingToken.IsEmpty() {
		return frag.TagClosingToken.Location.End
	}
	if !frag.ContentToken.IsEmpty() {
		return frag.ContentToken.Location.End
	}
	return frag.TagOpeningToken.Location.End
}

// thenKeywordFor extracts the optional `then`-keyword location already
// discovered for this fragment by the sub-parse (the scanner records it
// directly in document coordinates while tokenizing, so there is no
// secondary remap step here — see SPEC_FULL.md's then-keyword note).
func thenKeywordFor(frag *erb.ERBContent) *erb.ThenKeyword {
	if frag.Analyzed == nil || frag.Analyzed.Root == nil {
		return nil
	}
	rn := rubyNodeOf(frag.Analyzed)
	if rn == nil || !rn.HasThen {
		return nil
	}
	return &erb.ThenKeyword{Location: rn.ThenLocation}
}

// compoundLocation computes a compound node's span: start is the opener's
// start; end is, in priority, the end node's end, else the last-subsequent
// clause's end, else the last child's end, else the opener's content-end.
func compoundLocation(opener *erb.ERBContent, body []erb.ASTNode, subsequent erb.ASTNode, endLoc *erb.Location) erb.Location {
	start := opener.TagOpeningToken.Location.Start
	switch {
	case endLoc != nil:
		return erb.Location{Start: start, End: endLoc.End}
	case subsequent != nil:
		return erb.Location{Start: start, End: subsequent.Loc().End}
	case len(body) > 0:
		return erb.Location{Start: start, End: body[len(body)-1].Loc().End}
	default:
		return erb.Location{Start: start, End: fragmentEndPosition(opener)}
	}
}

func buildEnd(frag *erb.ERBContent) *erb.ERBEnd {
	n := &erb.ERBEnd{
		Opening: frag.TagOpeningToken,
		Content: frag.ContentToken,
		Closing: frag.TagClosingToken,
	}
	n.SetLoc(erb.Location{Start: frag.TagOpeningToken.Location.Start, End: fragmentEndPosition(frag)})
	erb.TransferErrors(n, frag)
	return n
}

func buildElse(frag *erb.ERBContent, statements []erb.ASTNode) *erb.ERBElse {
	n := &erb.ERBElse{
		Opening:    frag.TagOpeningToken,
		Content:    frag.ContentToken,
		Closing:    frag.TagClosingToken,
		Statements: statements,
	}
	n.SetLoc(compoundLocation(frag, statements, nil, nil))
	erb.TransferErrors(n, frag)
	return n
}

func buildWhen(frag *erb.ERBContent, statements []erb.ASTNode) *erb.ERBWhen {
	n := &erb.ERBWhen{
		Opening:     frag.TagOpeningToken,
		Content:     frag.ContentToken,
		Closing:     frag.TagClosingToken,
		ThenKeyword: thenKeywordFor(frag),
		Statements:  statements,
	}
	n.SetLoc(compoundLocation(frag, statements, nil, nil))
	erb.TransferErrors(n, frag)
	return n
}

func buildIn(frag *erb.ERBContent, statements []erb.ASTNode) *erb.ERBIn {
	n := &erb.ERBIn{
		Opening:     frag.TagOpeningToken,
		Content:     frag.ContentToken,
		Closing:     frag.TagClosingToken,
		ThenKeyword: thenKeywordFor(frag),
		Statements:  statements,
	}
	n.SetLoc(compoundLocation(frag, statements, nil, nil))
	erb.TransferErrors(n, frag)
	return n
}

func buildRescue(frag *erb.ERBContent, statements []erb.ASTNode) *erb.ERBRescue {
	n := &erb.ERBRescue{
		Opening:    frag.TagOpeningToken,
		Content:    frag.ContentToken,
		Closing:    frag.TagClosingToken,
		Statements: statements,
	}
	n.SetLoc(compoundLocation(frag, statements, nil, nil))
	erb.TransferErrors(n, frag)
	return n
}

func buildEnsure(frag *erb.ERBContent, statements []erb.ASTNode) *erb.ERBEnsure {
	n := &erb.ERBEnsure{
		Opening:    frag.TagOpeningToken,
		Content:    frag.ContentToken,
		Closing:    frag.TagClosingToken,
		Statements: statements,
	}
	n.SetLoc(compoundLocation(frag, statements, nil, nil))
	erb.TransferErrors(n, frag)
	return n
}

func buildYield(frag *erb.ERBContent) *erb.ERBYield {
	n := &erb.ERBYield{
		Opening: frag.TagOpeningToken,
		Content: frag.ContentToken,
		Closing: frag.TagClosingToken,
	}
	n.SetLoc(erb.Location{Start: frag.TagOpeningToken.Location.Start, End: fragmentEndPosition(frag)})
	erb.TransferErrors(n, frag)
	return n
}
