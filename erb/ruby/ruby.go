// Package ruby stands in for the third-party embedded-language parser that
// the core treats as an external collaborator. It implements just the
// surface the core needs: sub-parsing a fragment's content into a small node
// tree, classifying nodes by kind, and reporting diagnostics shaped like the
// ones a real Ruby parser would emit for the same malformed input.
//
// This is not a Ruby grammar. It recognises control-flow keywords (if, case,
// when, end, and so on) and a handful of scope-violation shapes (a bare
// break outside a loop) well enough to exercise the core's five passes.
// Condition comparisons (ConditionsEquivalent) are plain byte equality, per
// the original's conditions_are_equivalent.
package ruby

import "github.com/herbcore/herb/erb"

// NodeKind is the closed set of node types the core's per-node type queries
// recognise, named directly from the external-interface list the core
// requires.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindIf
	KindUnless
	KindElsif
	KindElse
	KindCase
	KindCaseMatch
	KindWhen
	KindIn
	KindWhile
	KindUntil
	KindFor
	KindBegin
	KindRescue
	KindEnsure
	KindEnd
	KindYield
	KindBlock
	KindBlockClose
	KindLambda
	KindMatchPredicate
	KindCall
	KindNext
	KindBreak
	KindRedo
	KindRetry
	KindReturn
)

// BlockDelimiter distinguishes a `do ... end` block from a `{ ... }` block,
// the one bit of shape the core needs out of a Block node beyond its kind.
type BlockDelimiter int

const (
	DelimiterNone BlockDelimiter = iota
	DelimiterDoEnd
	DelimiterBrace
)

// Node is a single node in the sub-parsed tree. The scanner that produces
// these does not build a full Ruby AST; it builds a flat sequence of
// keyword-shaped nodes sufficient for the core's control-type classifier and
// InvalidStructureDetector to walk.
type Node struct {
	NodeKind       NodeKind
	OpenerLocation erb.Location
	CloserLocation erb.Location
	ThenLocation   erb.Location
	HasThen        bool
	Delimiter      BlockDelimiter
	Children       []*Node
}

// Kind satisfies erb.RubyNode so *Node can be stored in AnalyzedRuby.Root
// without erb importing this package.
func (n *Node) Kind() string { return kindNames[n.NodeKind] }

var kindNames = map[NodeKind]string{
	KindUnknown:        "unknown",
	KindIf:             "if",
	KindUnless:         "unless",
	KindElsif:          "elsif",
	KindElse:           "else",
	KindCase:           "case",
	KindCaseMatch:      "case_match",
	KindWhen:           "when",
	KindIn:             "in",
	KindWhile:          "while",
	KindUntil:          "until",
	KindFor:            "for",
	KindBegin:          "begin",
	KindRescue:         "rescue",
	KindEnsure:         "ensure",
	KindEnd:            "end",
	KindYield:          "yield",
	KindBlock:          "block",
	KindBlockClose:     "block_close",
	KindLambda:         "lambda",
	KindMatchPredicate: "match_predicate",
	KindCall:           "call",
	KindNext:           "next",
	KindBreak:          "break",
	KindRedo:           "redo",
	KindRetry:          "retry",
	KindReturn:         "return",
}

// Is reports whether the node's kind matches any of the given kinds —
// the per-node type query the core's classifier relies on.
func (n *Node) Is(kinds ...NodeKind) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.NodeKind == k {
			return true
		}
	}
	return false
}

// Visit recurses into the node's children, depth-first, calling fn on every
// node including the receiver. This is the visitor the core requires for
// counters that cannot be derived from diagnostics alone.
func (n *Node) Visit(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Visit(fn)
	}
}

// Diagnostic is a single message/location pair from a sub-parse, matching
// the shape the core's external interface requires.
type Diagnostic struct {
	Message  string
	Location erb.Location
}

// Parser is the interface the core's EmbeddedAnalyzer depends on. Scanner is
// the only implementation in this module; tests may substitute a fake.
type Parser interface {
	// SubParse parses a fragment's raw content and returns its root node
	// (nil if the content is empty or unparseable beyond diagnostics) along
	// with any diagnostics produced.
	SubParse(content []byte, contentStart erb.Position) (*Node, []Diagnostic)

	// ReparseFragment re-parses a single fragment's content in partial-script
	// mode, used by the parse-error lift stage when a synthetic-separator
	// diagnostic needs to be re-attributed to one fragment.
	ReparseFragment(content []byte, contentStart erb.Position) []Diagnostic
}
