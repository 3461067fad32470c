package analyze

import "github.com/herbcore/herb/erb"

// assembler runs P2: folding the flat sequence of executable ERBContent
// fragments StructureAssembler receives from EmbeddedAnalyzer into compound
// control nodes. Every sibling array in the tree is rebuilt, never edited in
// place, so a rewritten node's children are always a fresh slice.
type assembler struct{}

func newAssembler() *assembler { return &assembler{} }

func (a *assembler) classifyFragment(frag *erb.ERBContent) erb.ControlType {
	return Classify(frag.Analyzed)
}

// Run rewrites nodes and everything reachable from it, returning the new
// top-level slice (the caller, typically Document.Children, replaces its own
// slice with the result).
func (a *assembler) Run(nodes []erb.ASTNode) []erb.ASTNode {
	return a.rewriteSiblings(nodes)
}

// rewriteSiblings scans one array left to right. Non-control fragments and
// non-ERBContent nodes pass through unchanged, except that an HtmlElement's
// own body is recursively rewritten first (its fragments are independent of
// anything at this level). A fragment that classifies as a compound opener
// consumes itself and everything up to and including its terminating `end`
// (or `}`), replacing that whole run with one compound node.
func (a *assembler) rewriteSiblings(nodes []erb.ASTNode) []erb.ASTNode {
	var out []erb.ASTNode
	i := 0
	for i < len(nodes) {
		n := nodes[i]
		if frag, ok := n.(*erb.ERBContent); ok {
			ct := a.classifyFragment(frag)
			switch {
			case ct.IsCompoundOpener():
				built, consumed := a.buildCompound(nodes, i, ct)
				out = append(out, built)
				i += consumed
				continue
			case ct == erb.Yield:
				out = append(out, buildYield(frag))
				i++
				continue
			}
			// Elsif/Else/End/When/In/Rescue/Ensure/BlockClose fragments that
			// reach here have no matching opener at this level and pass
			// through untouched; InvalidStructureDetector (P5) is what flags
			// an orphaned subsequent or terminator as a scope error.
		}
		if elem, ok := n.(*erb.HtmlElement); ok {
			elem.Body = a.rewriteSiblings(elem.Body)
		}
		out = append(out, n)
		i++
	}
	return out
}

// scanBody scans forward from start for the first fragment that terminates
// (or continues) a compound opener of type ct at the current nesting level,
// tracking depth so a nested compound's own subsequent/terminator fragments
// are not mistaken for this one's. Returns the body slice up to (excluding)
// the boundary fragment and the boundary's index, or -1 if the array ran out
// first (an unterminated compound, left for P5 to report).
func (a *assembler) scanBody(nodes []erb.ASTNode, start int, ct erb.ControlType) ([]erb.ASTNode, int) {
	depth := 0
	for i := start; i < len(nodes); i++ {
		frag, ok := nodes[i].(*erb.ERBContent)
		if !ok {
			continue
		}
		fct := a.classifyFragment(frag)
		if fct == erb.Unknown {
			continue
		}
		if depth == 0 && IsTerminatorType(ct, fct) {
			return nodes[start:i], i
		}
		if fct.IsCompoundOpener() {
			depth++
			continue
		}
		if (fct == erb.End || fct == erb.BlockClose) && depth > 0 {
			depth--
		}
	}
	return nodes[start:], -1
}

func (a *assembler) buildCompound(nodes []erb.ASTNode, idx int, ct erb.ControlType) (erb.ASTNode, int) {
	switch ct {
	case erb.If:
		return a.buildIfChain(nodes, idx)
	case erb.Unless:
		return a.buildUnless(nodes, idx)
	case erb.Case, erb.CaseMatch:
		return a.buildCase(nodes, idx)
	case erb.While, erb.Until, erb.For, erb.Block:
		return a.buildGeneric(nodes, idx, ct)
	case erb.Begin:
		return a.buildBegin(nodes, idx)
	default:
		// Unreachable: ct.IsCompoundOpener() only returns true for the cases
		// handled above.
		frag := nodes[idx].(*erb.ERBContent)
		return frag, 1
	}
}

// buildIfChain builds the top of an if/elsif.../else?/end structure. The End
// node always ends up owned by this top-level node, however many elsif/else
// links down the chain it was actually found.
func (a *assembler) buildIfChain(nodes []erb.ASTNode, idx int) (*erb.ERBIf, int) {
	frag := nodes[idx].(*erb.ERBContent)
	body, boundary := a.scanBody(nodes, idx+1, erb.If)
	processed := a.rewriteSiblings(body)

	n := &erb.ERBIf{
		Opening:     frag.TagOpeningToken,
		Content:     frag.ContentToken,
		Closing:     frag.TagClosingToken,
		ThenKeyword: thenKeywordFor(frag),
		Statements:  processed,
	}
	erb.TransferErrors(n, frag)

	if boundary == -1 {
		n.SetLoc(compoundLocation(frag, processed, nil, nil))
		return n, len(nodes) - idx
	}

	bfrag := nodes[boundary].(*erb.ERBContent)
	switch a.classifyFragment(bfrag) {
	case erb.Elsif:
		sub, endNode, consumedRest := a.buildIfLink(nodes, boundary)
		n.Subsequent = sub
		n.EndNode = endNode
		n.SetLoc(compoundLocation(frag, processed, sub, endLocOf(endNode)))
		return n, (boundary - idx) + consumedRest
	case erb.Else:
		elseNode, endNode, consumedRest := a.buildElseChain(nodes, boundary)
		n.Subsequent = elseNode
		n.EndNode = endNode
		n.SetLoc(compoundLocation(frag, processed, elseNode, endLocOf(endNode)))
		return n, (boundary - idx) + consumedRest
	default: // End
		endNode := buildEnd(bfrag)
		n.EndNode = endNode
		loc := endNode.Loc()
		n.SetLoc(compoundLocation(frag, processed, nil, &loc))
		return n, boundary - idx + 1
	}
}

// buildIfLink builds a single elsif link in the chain. It never owns the
// terminating End itself; it returns it so the original if can attach it.
func (a *assembler) buildIfLink(nodes []erb.ASTNode, idx int) (erb.ASTNode, *erb.ERBEnd, int) {
	frag := nodes[idx].(*erb.ERBContent)
	body, boundary := a.scanBody(nodes, idx+1, erb.Elsif)
	processed := a.rewriteSiblings(body)

	n := &erb.ERBIf{
		Opening:     frag.TagOpeningToken,
		Content:     frag.ContentToken,
		Closing:     frag.TagClosingToken,
		ThenKeyword: thenKeywordFor(frag),
		Statements:  processed,
	}
	erb.TransferErrors(n, frag)

	if boundary == -1 {
		n.SetLoc(compoundLocation(frag, processed, nil, nil))
		return n, nil, len(nodes) - idx
	}

	bfrag := nodes[boundary].(*erb.ERBContent)
	switch a.classifyFragment(bfrag) {
	case erb.Elsif:
		sub, endNode, consumedRest := a.buildIfLink(nodes, boundary)
		n.Subsequent = sub
		n.SetLoc(compoundLocation(frag, processed, sub, endLocOf(endNode)))
		return n, endNode, (boundary - idx) + consumedRest
	case erb.Else:
		elseNode, endNode, consumedRest := a.buildElseChain(nodes, boundary)
		n.Subsequent = elseNode
		n.SetLoc(compoundLocation(frag, processed, elseNode, endLocOf(endNode)))
		return n, endNode, (boundary - idx) + consumedRest
	default:
		endNode := buildEnd(bfrag)
		loc := endNode.Loc()
		n.SetLoc(compoundLocation(frag, processed, nil, &loc))
		return n, endNode, boundary - idx + 1
	}
}

// buildElseChain builds the terminal else clause and returns whatever End
// node follows it (nil if the array ran out first).
func (a *assembler) buildElseChain(nodes []erb.ASTNode, idx int) (*erb.ERBElse, *erb.ERBEnd, int) {
	frag := nodes[idx].(*erb.ERBContent)
	body, boundary := a.scanBody(nodes, idx+1, erb.Else)
	processed := a.rewriteSiblings(body)
	n := buildElse(frag, processed)

	if boundary == -1 {
		return n, nil, len(nodes) - idx
	}
	endFrag := nodes[boundary].(*erb.ERBContent)
	endNode := buildEnd(endFrag)
	n.SetLoc(erb.Location{Start: n.Loc().Start, End: endNode.Loc().End})
	return n, endNode, boundary - idx + 1
}

func (a *assembler) buildUnless(nodes []erb.ASTNode, idx int) (*erb.ERBUnless, int) {
	frag := nodes[idx].(*erb.ERBContent)
	body, boundary := a.scanBody(nodes, idx+1, erb.Unless)
	processed := a.rewriteSiblings(body)

	n := &erb.ERBUnless{
		Opening:     frag.TagOpeningToken,
		Content:     frag.ContentToken,
		Closing:     frag.TagClosingToken,
		ThenKeyword: thenKeywordFor(frag),
		Statements:  processed,
	}
	erb.TransferErrors(n, frag)

	if boundary == -1 {
		n.SetLoc(compoundLocation(frag, processed, nil, nil))
		return n, len(nodes) - idx
	}

	bfrag := nodes[boundary].(*erb.ERBContent)
	switch a.classifyFragment(bfrag) {
	case erb.Else:
		elseNode, endNode, consumedRest := a.buildElseChain(nodes, boundary)
		n.ElseClause = elseNode
		n.EndNode = endNode
		n.SetLoc(compoundLocation(frag, processed, elseNode, endLocOf(endNode)))
		return n, (boundary - idx) + consumedRest
	default: // End
		endNode := buildEnd(bfrag)
		n.EndNode = endNode
		loc := endNode.Loc()
		n.SetLoc(compoundLocation(frag, processed, nil, &loc))
		return n, boundary - idx + 1
	}
}

// buildGeneric handles While/Until/For/Block: a single opener, a flat body,
// and a single End (or, for a brace-delimited Block, a BlockClose fragment
// in the same position).
func (a *assembler) buildGeneric(nodes []erb.ASTNode, idx int, ct erb.ControlType) (erb.ASTNode, int) {
	frag := nodes[idx].(*erb.ERBContent)
	body, boundary := a.scanBody(nodes, idx+1, ct)
	processed := a.rewriteSiblings(body)

	var endNode *erb.ERBEnd
	consumed := len(nodes) - idx
	if boundary != -1 {
		endFrag := nodes[boundary].(*erb.ERBContent)
		endNode = buildEnd(endFrag)
		consumed = boundary - idx + 1
	}

	switch ct {
	case erb.While:
		n := &erb.ERBWhile{Opening: frag.TagOpeningToken, Content: frag.ContentToken, Closing: frag.TagClosingToken, Statements: processed, EndNode: endNode}
		erb.TransferErrors(n, frag)
		n.SetLoc(compoundLocation(frag, processed, nil, endLocOf(endNode)))
		return n, consumed
	case erb.Until:
		n := &erb.ERBUntil{Opening: frag.TagOpeningToken, Content: frag.ContentToken, Closing: frag.TagClosingToken, Statements: processed, EndNode: endNode}
		erb.TransferErrors(n, frag)
		n.SetLoc(compoundLocation(frag, processed, nil, endLocOf(endNode)))
		return n, consumed
	case erb.For:
		n := &erb.ERBFor{Opening: frag.TagOpeningToken, Content: frag.ContentToken, Closing: frag.TagClosingToken, Statements: processed, EndNode: endNode}
		erb.TransferErrors(n, frag)
		n.SetLoc(compoundLocation(frag, processed, nil, endLocOf(endNode)))
		return n, consumed
	default: // Block
		n := &erb.ERBBlock{Opening: frag.TagOpeningToken, Content: frag.ContentToken, Closing: frag.TagClosingToken, Body: processed, EndNode: endNode}
		erb.TransferErrors(n, frag)
		n.SetLoc(compoundLocation(frag, processed, nil, endLocOf(endNode)))
		return n, consumed
	}
}

// buildCase builds a case/when.../end or case/in.../end structure. Any
// siblings between the opener and the first arm (a case with no inline
// when/in on the opener fragment itself, just plain statements before the
// first arm, which Ruby permits as dead code but the analyzer still has to
// place somewhere) are kept as PreChildren. An opener fragment that carries
// its own inline when/in is handled the same way: no arm is synthesized for
// it, and the siblings up to the first separate arm stay in PreChildren.
//
// Which shape results — ERBCase (When arms) or ERBCaseMatch (In arms) — is
// decided only after scanning every arm, never from the opener fragment's
// own classification: the sub-parser produces the same node kind for a bare
// `case x` opener whether the body goes on to use `when` or `in`, so the
// opener alone can never tell the two apart. The presence of any In arm
// wins, matching a real `case/in` never mixing with a `when` arm.
func (a *assembler) buildCase(nodes []erb.ASTNode, idx int) (erb.ASTNode, int) {
	frag := nodes[idx].(*erb.ERBContent)
	pre, boundary := a.scanBody(nodes, idx+1, erb.Case)
	processedPre := a.rewriteSiblings(pre)

	var whenArms []*erb.ERBWhen
	var inArms []*erb.ERBIn
	var elseClause *erb.ERBElse
	var endNode *erb.ERBEnd
	consumed := len(nodes) - idx

	if boundary != -1 {
		cursor := boundary
	scan:
		for cursor < len(nodes) {
			bfrag, ok := nodes[cursor].(*erb.ERBContent)
			if !ok {
				break
			}
			switch a.classifyFragment(bfrag) {
			case erb.When:
				body, next := a.scanBody(nodes, cursor+1, erb.When)
				whenArms = append(whenArms, buildWhen(bfrag, a.rewriteSiblings(body)))
				if next == -1 {
					break scan
				}
				cursor = next
			case erb.In:
				body, next := a.scanBody(nodes, cursor+1, erb.In)
				inArms = append(inArms, buildIn(bfrag, a.rewriteSiblings(body)))
				if next == -1 {
					break scan
				}
				cursor = next
			case erb.Else:
				var consumedRest int
				elseClause, endNode, consumedRest = a.buildElseChain(nodes, cursor)
				consumed = (cursor - idx) + consumedRest
				break scan
			default: // End
				endNode = buildEnd(bfrag)
				consumed = cursor - idx + 1
				break scan
			}
		}
	}

	last := lastCaseArmAnchor(whenArms, inArms, elseClause)
	loc := compoundLocation(frag, processedPre, last, endLocOf(endNode))

	if len(inArms) > 0 {
		n := &erb.ERBCaseMatch{
			Opening:     frag.TagOpeningToken,
			Content:     frag.ContentToken,
			Closing:     frag.TagClosingToken,
			PreChildren: processedPre,
			Conditions:  inArms,
			ElseClause:  elseClause,
			EndNode:     endNode,
		}
		erb.TransferErrors(n, frag)
		n.SetLoc(loc)
		return n, consumed
	}

	n := &erb.ERBCase{
		Opening:     frag.TagOpeningToken,
		Content:     frag.ContentToken,
		Closing:     frag.TagClosingToken,
		PreChildren: processedPre,
		Conditions:  whenArms,
		ElseClause:  elseClause,
		EndNode:     endNode,
	}
	erb.TransferErrors(n, frag)
	n.SetLoc(loc)
	return n, consumed
}

func lastCaseArmAnchor(whenArms []*erb.ERBWhen, inArms []*erb.ERBIn, elseClause *erb.ERBElse) erb.ASTNode {
	if elseClause != nil {
		return elseClause
	}
	if len(inArms) > 0 {
		return inArms[len(inArms)-1]
	}
	if len(whenArms) > 0 {
		return whenArms[len(whenArms)-1]
	}
	return nil
}

// buildBegin builds begin/rescue*/else?/ensure?/end. The rescue chain is
// built left to right, each link pointing at the next via Subsequent; Else
// and Ensure, when present, always follow the last rescue link.
func (a *assembler) buildBegin(nodes []erb.ASTNode, idx int) (*erb.ERBBegin, int) {
	frag := nodes[idx].(*erb.ERBContent)
	body, boundary := a.scanBody(nodes, idx+1, erb.Begin)
	processed := a.rewriteSiblings(body)

	n := &erb.ERBBegin{
		Opening:    frag.TagOpeningToken,
		Content:    frag.ContentToken,
		Closing:    frag.TagClosingToken,
		Statements: processed,
	}
	erb.TransferErrors(n, frag)

	if boundary == -1 {
		n.SetLoc(compoundLocation(frag, processed, nil, nil))
		return n, len(nodes) - idx
	}

	cursor := boundary
	var lastRescue *erb.ERBRescue
	for cursor < len(nodes) {
		bfrag, ok := nodes[cursor].(*erb.ERBContent)
		if !ok {
			break
		}
		switch a.classifyFragment(bfrag) {
		case erb.Rescue:
			rbody, next := a.scanBody(nodes, cursor+1, erb.Rescue)
			rescueNode := buildRescue(bfrag, a.rewriteSiblings(rbody))
			if n.RescueClause == nil {
				n.RescueClause = rescueNode
			} else {
				lastRescue.Subsequent = rescueNode
			}
			lastRescue = rescueNode
			if next == -1 {
				n.SetLoc(compoundLocation(frag, processed, rescueNode, nil))
				return n, len(nodes) - idx
			}
			cursor = next
		case erb.Else:
			elseNode, endNode, consumedRest := a.buildElseChainAfterRescue(nodes, cursor)
			n.ElseClause = elseNode
			if endNode != nil {
				n.EndNode = endNode
				n.SetLoc(compoundLocation(frag, processed, elseNode, endLocOf(endNode)))
				return n, (cursor - idx) + consumedRest
			}
			// else was immediately followed by ensure, not end; fall through
			// to continue scanning from where buildElseChainAfterRescue left off.
			cursor += consumedRest
			n.SetLoc(compoundLocation(frag, processed, elseNode, nil))
			continue
		case erb.Ensure:
			ebody, next := a.scanBody(nodes, cursor+1, erb.Ensure)
			ensureNode := buildEnsure(bfrag, a.rewriteSiblings(ebody))
			n.EnsureClause = ensureNode
			if next == -1 {
				n.SetLoc(compoundLocation(frag, processed, ensureNode, nil))
				return n, len(nodes) - idx
			}
			endFrag, ok := nodes[next].(*erb.ERBContent)
			if ok {
				endNode := buildEnd(endFrag)
				n.EndNode = endNode
				n.SetLoc(compoundLocation(frag, processed, ensureNode, endLocOf(endNode)))
				return n, next - idx + 1
			}
			n.SetLoc(compoundLocation(frag, processed, ensureNode, nil))
			return n, next - idx
		default: // End
			endNode := buildEnd(bfrag)
			n.EndNode = endNode
			anchor := beginAnchor(n)
			loc := endNode.Loc()
			n.SetLoc(compoundLocation(frag, processed, anchor, &loc))
			return n, cursor - idx + 1
		}
	}
	n.SetLoc(compoundLocation(frag, processed, beginAnchor(n), nil))
	return n, len(nodes) - idx
}

// buildElseChainAfterRescue is like buildElseChain but the boundary it finds
// may be Ensure rather than End, in which case it returns a nil End and the
// caller keeps scanning from the boundary it reports.
func (a *assembler) buildElseChainAfterRescue(nodes []erb.ASTNode, idx int) (*erb.ERBElse, *erb.ERBEnd, int) {
	frag := nodes[idx].(*erb.ERBContent)
	_, boundary := a.scanBody(nodes, idx+1, erb.Begin)
	for boundary != -1 {
		if ct := a.classifyFragment(nodes[boundary].(*erb.ERBContent)); ct == erb.Ensure || ct == erb.End {
			break
		}
		_, boundary = a.scanBody(nodes, boundary+1, erb.Begin)
	}
	body := nodes[idx+1:]
	if boundary != -1 {
		body = nodes[idx+1 : boundary]
	}
	processed := a.rewriteSiblings(body)
	n := buildElse(frag, processed)

	if boundary == -1 {
		return n, nil, len(nodes) - idx
	}
	bfrag := nodes[boundary].(*erb.ERBContent)
	if a.classifyFragment(bfrag) == erb.Ensure {
		return n, nil, boundary - idx
	}
	endNode := buildEnd(bfrag)
	n.SetLoc(erb.Location{Start: n.Loc().Start, End: endNode.Loc().End})
	return n, endNode, boundary - idx + 1
}

func beginAnchor(n *erb.ERBBegin) erb.ASTNode {
	if n.EnsureClause != nil {
		return n.EnsureClause
	}
	if n.ElseClause != nil {
		return n.ElseClause
	}
	if n.RescueClause != nil {
		rc := n.RescueClause
		for rc.Subsequent != nil {
			rc = rc.Subsequent
		}
		return rc
	}
	return nil
}

func endLocOf(n *erb.ERBEnd) *erb.Location {
	if n == nil {
		return nil
	}
	l := n.Loc()
	return &l
}
