package analyze

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/herbcore/herb/erb"
)

func openTagNode(name string) *erb.HtmlOpenTag {
	return &erb.HtmlOpenTag{TagNameToken: erb.Token{Value: name}}
}

func closeTagNode(name string) *erb.HtmlCloseTag {
	return &erb.HtmlCloseTag{TagNameToken: erb.Token{Value: name}}
}

func ifWrapper(content string, statements ...erb.ASTNode) *erb.ERBIf {
	return &erb.ERBIf{Content: erb.Token{Value: content}, Statements: statements}
}

func unlessWrapper(content string, statements ...erb.ASTNode) *erb.ERBUnless {
	return &erb.ERBUnless{Content: erb.Token{Value: content}, Statements: statements}
}

func TestConditionalElementMatchesEquivalentCondition(t *testing.T) {
	nodes := []erb.ASTNode{
		ifWrapper("if logged_in", openTagNode("div")),
		&erb.HtmlText{Content: "hello"},
		ifWrapper("if logged_in", closeTagNode("div")),
	}
	out := newConditionalElementRewriter().Run(nodes)

	require.Len(t, out, 1)
	elem, ok := out[0].(*erb.HtmlConditionalElement)
	require.True(t, ok)
	require.Equal(t, "logged_in", elem.ConditionString)
	require.Equal(t, erb.ConditionalIf, elem.Kind)
	require.Len(t, elem.Body, 1)
}

func TestConditionalElementMismatchLeavesNodesApartAndFlagsError(t *testing.T) {
	closeWrapper := ifWrapper("if admin", closeTagNode("div"))
	nodes := []erb.ASTNode{
		ifWrapper("if logged_in", openTagNode("div")),
		closeWrapper,
	}
	out := newConditionalElementRewriter().Run(nodes)

	require.Len(t, out, 2, "a condition mismatch must not be folded into one element")
	require.NotEmpty(t, closeWrapper.NodeErrors())
	_, ok := closeWrapper.NodeErrors()[0].(*erb.ConditionalElementConditionMismatchError)
	require.True(t, ok)
}

func TestConditionalElementDifferentKindDoesNotMatch(t *testing.T) {
	nodes := []erb.ASTNode{
		ifWrapper("if x", openTagNode("div")),
		unlessWrapper("unless x", closeTagNode("div")),
	}
	out := newConditionalElementRewriter().Run(nodes)
	require.Len(t, out, 2)
}

func TestConditionalElementVoidOpenTagNeverQualifies(t *testing.T) {
	voidOpen := openTagNode("img")
	voidOpen.IsVoid = true
	nodes := []erb.ASTNode{
		ifWrapper("if x", voidOpen),
	}
	out := newConditionalElementRewriter().Run(nodes)
	require.Len(t, out, 1)
	_, ok := out[0].(*erb.HtmlConditionalElement)
	require.False(t, ok)
}

func TestConditionalElementSkipsOverUnmatchedInnerCandidate(t *testing.T) {
	// The "if outer" wrappers hold the div, but an unrelated inner "if other" wrapping a span
	// open tag (no matching close) sits in between; the outer if/if div match
	// must still be found by searching past the inner candidate on the stack.
	nodes := []erb.ASTNode{
		ifWrapper("if outer", openTagNode("div")),
		ifWrapper("if other", openTagNode("span")),
		ifWrapper("if outer", closeTagNode("div")),
	}
	out := newConditionalElementRewriter().Run(nodes)
	require.Len(t, out, 1)
	elem, ok := out[0].(*erb.HtmlConditionalElement)
	require.True(t, ok)
	require.Equal(t, "outer", elem.ConditionString)
}

func TestConditionalElementRecursesIntoHtmlElementBody(t *testing.T) {
	elem := &erb.HtmlElement{Body: []erb.ASTNode{
		ifWrapper("if x", openTagNode("p")),
		ifWrapper("if x", closeTagNode("p")),
	}}
	out := newConditionalElementRewriter().Run([]erb.ASTNode{elem})
	require.Len(t, out, 1)
	gotElem := out[0].(*erb.HtmlElement)
	require.Len(t, gotElem.Body, 1)
	_, ok := gotElem.Body[0].(*erb.HtmlConditionalElement)
	require.True(t, ok)
}
