package analyze

import (
	"strings"

	"github.com/herbcore/herb/erb"
	"github.com/herbcore/herb/erb/ruby"
)

// conditionalElementRewriter runs P3: an if/unless wrapper around a bare
// open tag, paired later in the same array with an if/unless wrapper (same
// kind, equivalent condition) around the matching close tag, becomes a
// single HtmlConditionalElement. This repairs the shape an HTML tokenizer
// produces when a tag's open and close sides are split across a control
// structure the tokenizer itself has no notion of.
type conditionalElementRewriter struct{}

func newConditionalElementRewriter() *conditionalElementRewriter {
	return &conditionalElementRewriter{}
}

func (r *conditionalElementRewriter) Run(nodes []erb.ASTNode) []erb.ASTNode {
	return r.rewrite(nodes)
}

type openCandidate struct {
	tagName     string
	kind        erb.ConditionalKind
	condition   string
	wrapperNode erb.ASTNode
	openTag     *erb.HtmlOpenTag
	outIndex    int
}

func (r *conditionalElementRewriter) rewrite(nodes []erb.ASTNode) []erb.ASTNode {
	nodes = r.recurseNested(nodes)

	var out []erb.ASTNode
	var stack []openCandidate

	for _, n := range nodes {
		if wrapper, openTag, kind, cond, ok := asSimpleOpenWrapper(n); ok {
			out = append(out, n)
			stack = append(stack, openCandidate{
				tagName:     openTag.TagName(),
				kind:        kind,
				condition:   cond,
				wrapperNode: wrapper,
				openTag:     openTag,
				outIndex:    len(out) - 1,
			})
			continue
		}

		if wrapper, closeTag, kind, cond, ok := asSimpleCloseWrapper(n); ok {
			matchIdx, mismatch := r.findMatch(stack, closeTag.TagName(), kind, cond)
			if mismatch != nil {
				attachConditionMismatch(wrapper, mismatch, cond)
			}
			if matchIdx == -1 {
				out = append(out, n)
				continue
			}
			cand := stack[matchIdx]
			body := append([]erb.ASTNode{}, out[cand.outIndex+1:]...)
			elem := buildConditionalElement(cand, closeTag, wrapper, body)
			out = out[:cand.outIndex]
			out = append(out, elem)
			stack = stack[:matchIdx]
			continue
		}

		out = append(out, n)
	}
	return out
}

// findMatch searches the open stack from the innermost (most recently
// pushed) entry outward for one whose tag name and kind match; the first
// such entry whose condition doesn't match is remembered and returned as
// mismatch (for the caller to attach a diagnostic to) but the search keeps
// going past it, since a further-out entry might still match exactly.
func (r *conditionalElementRewriter) findMatch(stack []openCandidate, tagName string, kind erb.ConditionalKind, condition string) (int, *openCandidate) {
	var mismatch *openCandidate
	for i := len(stack) - 1; i >= 0; i-- {
		cand := stack[i]
		if !strings.EqualFold(cand.tagName, tagName) || cand.kind != kind {
			continue
		}
		if !ruby.ConditionsEquivalent(cand.condition, condition) {
			if mismatch == nil {
				c := cand
				mismatch = &c
			}
			continue
		}
		return i, nil
	}
	return -1, mismatch
}

// recurseNested applies the same rewrite to every independent sibling array
// reachable from nodes: an HtmlElement's body, and the statement/body arrays
// already folded into a compound control node by StructureAssembler. Each is
// its own matching scope; a wrapper pair never spans two different arrays.
func (r *conditionalElementRewriter) recurseNested(nodes []erb.ASTNode) []erb.ASTNode {
	for _, n := range nodes {
		switch v := n.(type) {
		case *erb.HtmlElement:
			v.Body = r.rewrite(v.Body)
		case *erb.ERBIf:
			v.Statements = r.rewrite(v.Statements)
			if sub, ok := v.Subsequent.(*erb.ERBIf); ok {
				r.recurseNested([]erb.ASTNode{sub})
			} else if sub, ok := v.Subsequent.(*erb.ERBElse); ok {
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

// asSimpleOpenWrapper reports whether n is a simple-wrapper ERBIf/ERBUnless
// whose sole significant child is a non-void bare open tag.
func asSimpleOpenWrapper(n erb.ASTNode) (erb.ASTNode, *erb.HtmlOpenTag, erb.ConditionalKind, string, bool) {
	statements, kind, condition, ok := simpleWrapperShape(n)
	if !ok {
		return nil, nil, 0, "", false
	}
	sig := significantChildren(statements)
	if len(sig) != 1 {
		if len(sig) > 1 {
			attachMultipleTagsError(n)
		}
		return nil, nil, 0, "", false
	}
	openTag, ok := sig[0].(*erb.HtmlOpenTag)
	if !ok || openTag.IsVoid {
		return nil, nil, 0, "", false
	}
	return n, openTag, kind, condition, true
}

// asSimpleCloseWrapper mirrors asSimpleOpenWrapper for a bare close tag.
func asSimpleCloseWrapper(n erb.ASTNode) (erb.ASTNode, *erb.HtmlCloseTag, erb.ConditionalKind, string, bool) {
	statements, kind, condition, ok := simpleWrapperShape(n)
	if !ok {
		return nil, nil, 0, "", false
	}
	sig := significantChildren(statements)
	if len(sig) != 1 {
		return nil, nil, 0, "", false
	}
	closeTag, ok := sig[0].(*erb.HtmlCloseTag)
	if !ok {
		return nil, nil, 0, "", false
	}
	return n, closeTag, kind, condition, true
}

func simpleWrapperShape(n erb.ASTNode) ([]erb.ASTNode, erb.ConditionalKind, string, bool) {
	switch v := n.(type) {
	case *erb.ERBIf:
		if !v.IsSimpleWrapper() {
			return nil, 0, "", false
		}
		return v.Statements, erb.ConditionalIf, ruby.StripConditionKeyword(v.Content.Value), true
	case *erb.ERBUnless:
		if !v.IsSimpleWrapper() {
			return nil, 0, "", false
		}
		return v.Statements, erb.ConditionalUnless, ruby.StripConditionKeyword(v.Content.Value), true
	default:
		return nil, 0, "", false
	}
}

func significantChildren(statements []erb.ASTNode) []erb.ASTNode {
	var sig []erb.ASTNode
	for _, s := range statements {
		switch v := s.(type) {
		case *erb.Whitespace:
			continue
		case *erb.HtmlText:
			if erb.IsWhitespace(v.Content) {
				continue
			}
		}
		sig = append(sig, s)
	}
	return sig
}

// attachMultipleTagsError flags a simple wrapper whose significant children
// include more than one open tag or more than one close tag. It is reached
// once per wrapper, from asSimpleOpenWrapper.
func attachMultipleTagsError(n erb.ASTNode) {
	statements, _, _, _ := simpleWrapperShape(n)
	opens, closes := 0, 0
	for _, s := range significantChildren(statements) {
		if _, ok := s.(*erb.HtmlOpenTag); ok {
			opens++
		} else if _, ok := s.(*erb.HtmlCloseTag); ok {
			closes++
		}
	}
	if opens > 1 || closes > 1 {
		n.SetErrors(append(n.NodeErrors(), &erb.ConditionalElementMultipleTagsError{Location: n.Loc()}))
	}
}

func attachConditionMismatch(closeWrapper erb.ASTNode, open *openCandidate, closeCondition string) {
	tagName := open.tagName
	openLoc := open.wrapperNode.Loc()
	closeLoc := closeWrapper.Loc()
	closeWrapper.SetErrors(append(closeWrapper.NodeErrors(), &erb.ConditionalElementConditionMismatchError{
		TagName:        tagName,
		OpenCondition:  open.condition,
		CloseCondition: closeCondition,
		OpenLocation:   openLoc,
		CloseLocation:  closeLoc,
	}))
}

func buildConditionalElement(open openCandidate, closeTag *erb.HtmlCloseTag, closeWrapper erb.ASTNode, body []erb.ASTNode) *erb.HtmlConditionalElement {
	n := &erb.HtmlConditionalElement{
		ConditionString:  open.condition,
		Kind:             open.kind,
		OpenConditional:  open.wrapperNode,
		OpenTag:          open.openTag,
		Body:             body,
		CloseTag:         closeTag,
		CloseConditional: closeWrapper,
		TagNameToken:     open.openTag.TagNameToken,
	}
	erb.TransferErrors(n, open.wrapperNode)
	erb.TransferErrors(n, closeWrapper)
	n.SetLoc(erb.Location{Start: open.wrapperNode.Loc().Start, End: closeWrapper.Loc().End})
	return n
}
