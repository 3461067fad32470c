package analyze

import (
	"fmt"

	"github.com/herbcore/herb/erb"
)

// invalidStructureDetector runs P5: it walks the fully assembled tree
// looking for two kinds of defect StructureAssembler couldn't resolve on its
// own — a compound node whose terminating `end` was never found, and a
// control-scope keyword (break/next/redo/retry) whose per-fragment sub-parse
// necessarily couldn't see the real loop/rescue nesting it sits inside,
// because each fragment is sub-parsed in isolation.
type invalidStructureDetector struct {
	loopDepth   int
	rescueDepth int
}

func newInvalidStructureDetector() *invalidStructureDetector {
	return &invalidStructureDetector{}
}

func (d *invalidStructureDetector) Run(nodes []erb.ASTNode) {
	d.visit(nodes)
}

func (d *invalidStructureDetector) visit(nodes []erb.ASTNode) {
	for _, n := range nodes {
		d.visitNode(n)
	}
}

func (d *invalidStructureDetector) visitNode(n erb.ASTNode) {
	switch v := n.(type) {
	case *erb.ERBContent:
		d.checkFragment(v)
	case *erb.HtmlElement:
		d.visit(v.Body)
	case *erb.HtmlConditionalElement:
		d.visit(v.Body)
	case *erb.ERBIf:
		d.checkEnd(v.EndNode, v, "if")
		d.visit(v.Statements)
		d.visitSubsequent(v.Subsequent)
	case *erb.ERBUnless:
		d.checkEnd(v.EndNode, v, "unless")
		d.visit(v.Statements)
		if v.ElseClause != nil {
			d.visit(v.ElseClause.Statements)
		}
	case *erb.ERBCase:
		d.checkEnd(v.EndNode, v, "case")
		d.visit(v.PreChildren)
		for _, w := range v.Conditions {
			d.visit(w.Statements)
		}
		if v.ElseClause != nil {
			d.visit(v.ElseClause.Statements)
		}
	case *erb.ERBCaseMatch:
		d.checkEnd(v.EndNode, v, "case")
		d.visit(v.PreChildren)
		for _, in := range v.Conditions {
			d.visit(in.Statements)
		}
		if v.ElseClause != nil {
			d.visit(v.ElseClause.Statements)
		}
	case *erb.ERBWhile:
		d.checkEnd(v.EndNode, v, "while")
		d.withLoop(func() { d.visit(v.Statements) })
	case *erb.ERBUntil:
		d.checkEnd(v.EndNode, v, "until")
		d.withLoop(func() { d.visit(v.Statements) })
	case *erb.ERBFor:
		d.checkEnd(v.EndNode, v, "for")
		d.withLoop(func() { d.visit(v.Statements) })
	case *erb.ERBBlock:
		d.checkEnd(v.EndNode, v, "do")
		d.withLoop(func() { d.visit(v.Body) })
	case *erb.ERBBegin:
		d.checkEnd(v.EndNode, v, "begin")
		d.visit(v.Statements)
		d.withRescue(func() {
			for rc := v.RescueClause; rc != nil; rc = rc.Subsequent {
				d.visit(rc.Statements)
			}
		})
		if v.ElseClause != nil {
			d.visit(v.ElseClause.Statements)
		}
		if v.EnsureClause != nil {
			d.visit(v.EnsureClause.Statements)
		}
	}
}

func (d *invalidStructureDetector) visitSubsequent(n erb.ASTNode) {
	switch v := n.(type) {
	case *erb.ERBIf:
		d.visit(v.Statements)
		d.visitSubsequent(v.Subsequent)
	case *erb.ERBElse:
		d.visit(v.Statements)
	}
}

func (d *invalidStructureDetector) withLoop(fn func()) {
	d.loopDepth++
	fn()
	d.loopDepth--
}

func (d *invalidStructureDetector) withRescue(fn func()) {
	d.rescueDepth++
	fn()
	d.rescueDepth--
}

// checkEnd attaches a missing-end diagnostic to any compound node
// StructureAssembler couldn't terminate before its enclosing array ran out.
func (d *invalidStructureDetector) checkEnd(endNode *erb.ERBEnd, owner erb.ASTNode, keyword string) {
	if endNode != nil {
		return
	}
	owner.SetErrors(append(owner.NodeErrors(), &erb.MissingErbEndError{Keyword: keyword, Location: owner.Loc()}))
}

// checkFragment handles a leftover bare ERBContent: either an orphaned
// subsequent/terminator keyword with no matching opener anywhere in the
// document, or a scope-sensitive leaf (break/next/redo/retry) that the
// isolated sub-parse necessarily couldn't validate against real context.
func (d *invalidStructureDetector) checkFragment(frag *erb.ERBContent) {
	if frag.Analyzed == nil {
		return
	}

	if ct := Classify(frag.Analyzed); ct != erb.Unknown {
		keyword := ct.String()
		if ct == erb.BlockClose {
			keyword = "}"
		}
		frag.SetErrors(append(frag.NodeErrors(), &erb.ErbControlFlowScopeError{
			Keyword:  fmt.Sprintf("`<%% %s %%>`", keyword),
			Location: frag.Loc(),
		}))
		frag.Analyzed.Diagnostics = nil
		return
	}

	if frag.Valid {
		return
	}

	remaining := frag.Analyzed.Diagnostics[:0:0]
	for _, diag := range frag.Analyzed.Diagnostics {
		keyword, depthOK := d.scopeKeywordRequirement(diag.Message)
		if keyword == "" {
			remaining = append(remaining, diag)
			continue
		}
		if !depthOK {
			frag.SetErrors(append(frag.NodeErrors(), &erb.ErbControlFlowScopeError{
				Keyword:  fmt.Sprintf("`<%% %s %%>`", keyword),
				Location: diag.Location,
			}))
		}
		// A depth-satisfied scope keyword was only invalid from the
		// isolated sub-parse's point of view; dropping the diagnostic here
		// keeps liftParseErrors from re-reporting it as a Ruby syntax error.
	}
	frag.Analyzed.Diagnostics = remaining
}

// scopeKeywordRequirement maps a scanner scope diagnostic to its keyword and
// whether the real (non-isolated) tree satisfies its depth requirement.
// Returns ("", false) for a diagnostic this detector doesn't own.
func (d *invalidStructureDetector) scopeKeywordRequirement(message string) (string, bool) {
	switch message {
	case "Invalid break":
		return "break", d.loopDepth > 0
	case "Invalid next":
		return "next", d.loopDepth > 0
	case "Invalid redo":
		return "redo", d.loopDepth > 0
	case "Invalid retry without rescue":
		return "retry", d.rescueDepth > 0
	default:
		return "", false
	}
}
