package analyze

import (
	"strings"

	"github.com/herbcore/herb/erb"
)

// conditionalOpenTagRewriter runs P4: an if/elsif*/else chain (or an
// unless/else pair) whose every branch contributes exactly one open tag of
// the same name, with a matching close tag somewhere later in the same
// array, becomes a single HtmlElement wrapping an HtmlConditionalOpenTag.
// This covers the shape P3 doesn't: the open tag itself (its attributes)
// varies by branch condition while its name is shared across every branch
// (an `<a>` vs `<button>` toggle would not qualify), and the close tag is
// unconditional.
type conditionalOpenTagRewriter struct{}

func newConditionalOpenTagRewriter() *conditionalOpenTagRewriter {
	return &conditionalOpenTagRewriter{}
}

func (r *conditionalOpenTagRewriter) Run(nodes []erb.ASTNode) []erb.ASTNode {
	return r.rewrite(nodes)
}

func (r *conditionalOpenTagRewriter) rewrite(nodes []erb.ASTNode) []erb.ASTNode {
	nodes = r.recurseNested(nodes)

	var out []erb.ASTNode
	i := 0
	for i < len(nodes) {
		n := nodes[i]
		condOpen, tagName, isVoid, ok := tryBuildConditionalOpenTag(n)
		if !ok {
			out = append(out, n)
			i++
			continue
		}

		closeIdx := findMatchingCloseTag(nodes, i+1, tagName)
		if closeIdx == -1 {
			out = append(out, n)
			i++
			continue
		}

		closeTag := nodes[closeIdx].(*erb.HtmlCloseTag)
		body := append([]erb.ASTNode{}, nodes[i+1:closeIdx]...)
		elem := &erb.HtmlElement{
			OpenTag:  condOpen,
			CloseTag: closeTag,
			Body:     body,
			IsVoid:   isVoid,
		}
		elem.SetLoc(erb.Location{Start: n.Loc().Start, End: closeTag.Loc().End})
		out = append(out, elem)
		i = closeIdx + 1
	}
	return out
}

// findMatchingCloseTag scans forward from start for a bare HtmlCloseTag
// named tagName, skipping over any already-balanced nested open/close pair
// of the same name so an inner tag of the same name never matches the
// outer chain's close.
func findMatchingCloseTag(nodes []erb.ASTNode, start int, tagName string) int {
	depth := 0
	for i := start; i < len(nodes); i++ {
		switch v := nodes[i].(type) {
		case *erb.HtmlOpenTag:
			if sameTagName(v.TagName(), tagName) && !v.IsVoid {
				depth++
			}
		case *erb.HtmlCloseTag:
			if sameTagName(v.TagName(), tagName) {
				if depth == 0 {
					return i
				}
				depth--
			}
		}
	}
	return -1
}

func sameTagName(a, b string) bool {
	return strings.EqualFold(a, b)
}

// tryBuildConditionalOpenTag reports whether n is an if/elsif*/else chain or
// unless/else pair whose every branch's sole significant child is an open
// tag of the same non-void name, and if so returns the wrapped conditional
// open tag.
func tryBuildConditionalOpenTag(n erb.ASTNode) (*erb.HtmlConditionalOpenTag, string, bool, bool) {
	switch v := n.(type) {
	case *erb.ERBIf:
		branches, elseClause, ok := collectIfChain(v)
		if !ok {
			return nil, "", false, false
		}
		tagName, isVoid, ok := commonOpenTagName(branchStatements(branches, elseClause))
		if !ok {
			return nil, "", false, false
		}
		return &erb.HtmlConditionalOpenTag{InnerConditional: v, TagNameToken: tagNameToken(branches, elseClause), IsVoid: isVoid}, tagName, isVoid, true
	case *erb.ERBUnless:
		if v.ElseClause == nil {
			return nil, "", false, false
		}
		tagName, isVoid, ok := commonOpenTagName([][]erb.ASTNode{v.Statements, v.ElseClause.Statements})
		if !ok {
			return nil, "", false, false
		}
		tok := singleOpenTag(v.Statements).TagNameToken
		return &erb.HtmlConditionalOpenTag{InnerConditional: v, TagNameToken: tok, IsVoid: isVoid}, tagName, isVoid, true
	default:
		return nil, "", false, false
	}
}

// collectIfChain walks an if/elsif* chain and requires it terminate in an
// else; a chain ending directly in End (no else) never qualifies, since
// there would be no open tag for the "didn't match any condition" case.
func collectIfChain(root *erb.ERBIf) ([]*erb.ERBIf, *erb.ERBElse, bool) {
	var branches []*erb.ERBIf
	cur := root
	for {
		branches = append(branches, cur)
		switch sub := cur.Subsequent.(type) {
		case *erb.ERBIf:
			cur = sub
			continue
		case *erb.ERBElse:
			return branches, sub, true
		default:
			return nil, nil, false
		}
	}
}

func branchStatements(branches []*erb.ERBIf, elseClause *erb.ERBElse) [][]erb.ASTNode {
	stmts := make([][]erb.ASTNode, 0, len(branches)+1)
	for _, b := range branches {
		stmts = append(stmts, b.Statements)
	}
	stmts = append(stmts, elseClause.Statements)
	return stmts
}

func tagNameToken(branches []*erb.ERBIf, elseClause *erb.ERBElse) erb.Token {
	return singleOpenTag(branches[0].Statements).TagNameToken
}

// commonOpenTagName reports whether every statements list's sole
// significant child is a non-void open tag of the same name.
func commonOpenTagName(groups [][]erb.ASTNode) (string, bool, bool) {
	var name string
	for i, g := range groups {
		tag := singleOpenTag(g)
		if tag == nil || tag.IsVoid {
			return "", false, false
		}
		if i == 0 {
			name = tag.TagName()
			continue
		}
		if !sameTagName(tag.TagName(), name) {
			return "", false, false
		}
	}
	return name, false, true
}

func singleOpenTag(statements []erb.ASTNode) *erb.HtmlOpenTag {
	sig := significantChildren(statements)
	if len(sig) != 1 {
		return nil
	}
	tag, ok := sig[0].(*erb.HtmlOpenTag)
	if !ok {
		return nil
	}
	return tag
}

func (r *conditionalOpenTagRewriter) recurseNested(nodes []erb.ASTNode) []erb.ASTNode {
	for _, n := range nodes {
		switch v := n.(type) {
		case *erb.HtmlElement:
			v.Body = r.rewrite(v.Body)
		case *erb.HtmlConditionalElement:
			v.Body = r.rewrite(v.Body)
		case *erb.ERBIf:
			v.Statements = r.rewrite(v.Statements)
			switch sub := v.Subsequent.(type) {
			case *erb.ERBIf:
				r.recurseNested([]erb.ASTNode{sub})
			case *erb.ERBElse:
				sub.Statements = r.rewrite(sub.Statements)
			}
		case *erb.ERBUnless:
			v.Statements = r.rewrite(v.Statements)
			if v.ElseClause != nil {
				v.ElseClause.Statements = r.rewrite(v.ElseClause.Statements)
			}
		case *erb.ERBWhile:
			v.Statements = r.rewrite(v.Statements)
		case *erb.ERBUntil:
			v.Statements = r.rewrite(v.Statements)
		case *erb.ERBFor:
			v.Statements = r.rewrite(v.Statements)
		case *erb.ERBBlock:
			v.Body = r.rewrite(v.Body)
		case *erb.ERBBegin:
			v.Statements = r.rewrite(v.Statements)
			for rc := v.RescueClause; rc != nil; rc = rc.Subsequent {
				rc.Statements = r.rewrite(rc.Statements)
			}
			if v.ElseClause != nil {
				v.ElseClause.Statements = r.rewrite(v.ElseClause.Statements)
			}
			if v.EnsureClause != nil {
				v.EnsureClause.Statements = r.rewrite(v.EnsureClause.Statements)
			}
		case *erb.ERBCase:
			v.PreChildren = r.rewrite(v.PreChildren)
			for _, w := range v.Conditions {
				w.Statements = r.rewrite(w.Statements)
			}
			if v.ElseClause != nil {
				v.ElseClause.Statements = r.rewrite(v.ElseClause.Statements)
			}
		case *erb.ERBCaseMatch:
			v.PreChildren = r.rewrite(v.PreChildren)
			for _, in := range v.Conditions {
				in.Statements = r.rewrite(in.Statements)
			}
			if v.ElseClause != nil {
				v.ElseClause.Statements = r.rewrite(v.ElseClause.Statements)
			}
		}
	}
	return nodes
}
