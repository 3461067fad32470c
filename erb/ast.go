package erb

// ASTNode is the tagged-variant type every node in a document tree
// satisfies. The core never type-switches on a closed set from outside this
// package; consumers that need to distinguish variants use a type switch
// over the concrete struct types below, all of which implement this
// interface solely as a marker.
type ASTNode interface {
	astNode()

	// Loc returns the node's own source span. For compound nodes this is
	// computed per the location policy (opener start, terminator-chain end);
	// for leaves it is the underlying token's span.
	Loc() Location

	// NodeErrors returns the node's own error array; nil until the first
	// error is set, and nil again after TransferErrors empties a donor.
	// Callers that need to append use SetErrors, not in-place mutation of
	// the slice a caller doesn't own.
	NodeErrors() []NodeError

	// SetErrors replaces the node's error array. Used by the move-ownership
	// transfer: the donor's array is appended to the recipient, then the
	// donor is pointed at a nil slice so the transfer cannot be observed
	// twice.
	SetErrors([]NodeError)
}

// baseNode centralises the Loc/errors bookkeeping shared by every variant so
// individual node structs only declare their own shape-specific fields.
type baseNode struct {
	location Location
	errors   []NodeError
}

func (b *baseNode) astNode() {}

func (b *baseNode) Loc() Location { return b.location }

// SetLoc sets the node's own source span. Used by the builders in
// erb/analyze when constructing a compound node per the location policy
// (opener start, terminator-chain end).
func (b *baseNode) SetLoc(l Location) { b.location = l }

func (b *baseNode) NodeErrors() []NodeError { return b.errors }

func (b *baseNode) SetErrors(errs []NodeError) { b.errors = errs }

// TransferErrors implements the error-transfer invariant: the donor's errors
// are appended onto the recipient and the donor is left with none. Call this
// exactly once per donor; calling it twice would silently duplicate nothing
// (the donor is already empty) but signals a bug in the caller's bookkeeping.
func TransferErrors(recipient, donor ASTNode) {
	recipient.SetErrors(append(recipient.NodeErrors(), donor.NodeErrors()...))
	donor.SetErrors(nil)
}

// Document is the root of a parsed tree.
type Document struct {
	baseNode
	Children []ASTNode
}

// Literal is an inert chunk of source text the core never interprets, such
// as the body of a `<%# comment %>` literal-opener fragment.
type Literal struct {
	baseNode
	Content string
}

// HtmlText is a run of non-whitespace-only character data between tags.
type HtmlText struct {
	baseNode
	Content string
}

// Whitespace is a run of whitespace-only character data, kept distinct from
// HtmlText so ConditionalElementRewriter and ConditionalOpenTagRewriter can
// ignore it when looking for the single significant HTML child of a wrapper.
type Whitespace struct {
	baseNode
	Content string
}

// IsWhitespace reports whether content consists only of space, tab, carriage
// return, and newline — the same character class an already-whitespace
// HtmlText node would have been classified as.
func IsWhitespace(content string) bool {
	for _, r := range content {
		switch r {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

var (
	_ ASTNode = (*Document)(nil)
	_ ASTNode = (*Literal)(nil)
	_ ASTNode = (*HtmlText)(nil)
	_ ASTNode = (*Whitespace)(nil)
)
