package erb

import (
	"strings"

	"golang.org/x/net/html/atom"
)

// voidElements mirrors the HTML living-standard void element list. The
// tokenizer that hands us HtmlOpenTag nodes is an external collaborator and
// doesn't carry this classification itself (it only carries the tag-name
// token), so IsVoidTagName resolves it here the same way a forked x/net/html
// tokenizer would have, via golang.org/x/net/html/atom. The rewriters
// themselves read HtmlOpenTag.IsVoid as set on the node; they do not call
// IsVoidTagName.
var voidElements = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Base:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Source: true,
	atom.Track:  true,
	atom.Wbr:    true,
}

// IsVoidTagName reports whether name (case-insensitive) names a void HTML
// element, one that never carries a matching close tag and so is never
// eligible for conditional-element or conditional-open-tag rewriting.
func IsVoidTagName(name string) bool {
	a := atom.Lookup([]byte(strings.ToLower(name)))
	if a == 0 {
		return false
	}
	return voidElements[a]
}

// HtmlOpenTag is opaque to the core beyond IsVoid and the tag name; its
// Attributes payload is carried through untouched by every pass.
type HtmlOpenTag struct {
	baseNode
	TagNameToken Token
	Attributes   []HtmlAttribute
	IsVoid       bool
}

// HtmlAttribute is an opaque key/value pair on an open tag. The core never
// inspects attribute values; it only ever reads TagNameToken on the owning
// open or close tag.
type HtmlAttribute struct {
	NameToken  Token
	ValueToken Token
	HasValue   bool
}

// HtmlCloseTag closes a matching HtmlOpenTag by tag name.
type HtmlCloseTag struct {
	baseNode
	TagNameToken Token
}

// TagName returns the tag's resolved name, used for case-insensitive
// comparisons throughout P3/P4.
func (t *HtmlOpenTag) TagName() string  { return t.TagNameToken.Value }
func (t *HtmlCloseTag) TagName() string { return t.TagNameToken.Value }

// HtmlElement pairs an open tag with its body and, unless void, a close tag.
// OpenTag is either an *HtmlOpenTag or, after P4 rewrites a conditional open
// tag chain, an *HtmlConditionalOpenTag.
type HtmlElement struct {
	baseNode
	OpenTag  ASTNode // *HtmlOpenTag or *HtmlConditionalOpenTag
	CloseTag *HtmlCloseTag
	Body     []ASTNode
	IsVoid   bool
}

// HtmlConditionalElement is produced by ConditionalElementRewriter (P3) when
// two ERBIf/ERBUnless wrappers with an equivalent condition surround a
// matching open/close HTML tag pair.
type HtmlConditionalElement struct {
	baseNode
	ConditionString  string
	Kind             ConditionalKind // If or Unless
	OpenConditional  ASTNode         // the donor *ERBIf or *ERBUnless that wrapped the open tag
	OpenTag          *HtmlOpenTag
	Body             []ASTNode
	CloseTag         *HtmlCloseTag
	CloseConditional ASTNode // the donor wrapper that wrapped the close tag
	TagNameToken     Token
}

// ConditionalKind distinguishes an `if`-wrapper from an `unless`-wrapper;
// a conditional-element or conditional-open-tag match requires both sides
// to share this kind, not just an equivalent condition string.
type ConditionalKind int

const (
	ConditionalIf ConditionalKind = iota
	ConditionalUnless
)

// HtmlConditionalOpenTag is produced by ConditionalOpenTagRewriter (P4). It
// wraps the full if/elsif*/else (or unless/else) chain whose every branch
// contributed exactly one open tag of the same name; InnerConditional is the
// ERBIf or ERBUnless root of that chain, already assembled by P2.
type HtmlConditionalOpenTag struct {
	baseNode
	InnerConditional ASTNode // *ERBIf or *ERBUnless
	TagNameToken     Token
	IsVoid           bool
}

func (t *HtmlConditionalOpenTag) TagName() string { return t.TagNameToken.Value }

var (
	_ ASTNode = (*HtmlOpenTag)(nil)
	_ ASTNode = (*HtmlCloseTag)(nil)
	_ ASTNode = (*HtmlElement)(nil)
	_ ASTNode = (*HtmlConditionalElement)(nil)
	_ ASTNode = (*HtmlConditionalOpenTag)(nil)
)
