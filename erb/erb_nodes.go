package erb

// ControlType is the closed set EmbeddedAnalyzer's classifier resolves an
// executable ERBContent fragment to.
type ControlType int

const (
	Unknown ControlType = iota
	If
	Elsif
	Else
	End
	Case
	CaseMatch
	When
	In
	While
	Until
	For
	Begin
	Rescue
	Ensure
	Unless
	Block
	BlockClose
	Yield
)

func (c ControlType) String() string {
	switch c {
	case If:
		return "if"
	case Elsif:
		return "elsif"
	case Else:
		return "else"
	case End:
		return "end"
	case Case:
		return "case"
	case CaseMatch:
		return "case (pattern match)"
	case When:
		return "when"
	case In:
		return "in"
	case While:
		return "while"
	case Until:
		return "until"
	case For:
		return "for"
	case Begin:
		return "begin"
	case Rescue:
		return "rescue"
	case Ensure:
		return "ensure"
	case Unless:
		return "unless"
	case Block:
		return "block"
	case BlockClose:
		return "block close"
	case Yield:
		return "yield"
	default:
		return "unknown"
	}
}

// IsCompoundOpener reports whether a fragment of this type starts a
// multi-fragment control structure that StructureAssembler must fold.
func (c ControlType) IsCompoundOpener() bool {
	switch c {
	case If, Case, CaseMatch, Begin, Unless, While, Until, For, Block:
		return true
	default:
		return false
	}
}

// AnalyzedRuby is the record EmbeddedAnalyzer (P1) attaches to every
// executable ERBContent. Counters are non-negative and reflect both
// tree-walking and diagnostic-message-driven increments.
type AnalyzedRuby struct {
	Root        RubyNode
	Valid       bool
	Diagnostics []RubyDiagnostic

	IfCount                 int
	ElsifCount              int
	ElseCount               int
	EndCount                int
	BlockCount              int
	BlockClosingCount       int
	CaseCount               int
	CaseMatchCount          int
	WhenCount               int
	InCount                 int
	ForCount                int
	WhileCount              int
	UntilCount              int
	BeginCount              int
	RescueCount             int
	EnsureCount             int
	UnlessCount             int
	YieldCount              int
	ThenKeywordCount        int
	UnclosedControlFlowCount int
}

// RubyNode and RubyDiagnostic are declared here (rather than only in
// erb/ruby) so that ERBContent.Analyzed can reference them without an import
// cycle; erb/ruby's concrete types satisfy this interface/alias directly.
type RubyNode interface {
	Kind() string
}

// RubyDiagnostic mirrors a single diagnostic produced by the embedded
// parser's sub-parse: a message and a location relative to the fragment.
type RubyDiagnostic struct {
	Message  string
	Location Location
}

// ERBContent is the opaque pre-analysis fragment: a single `<% ... %>`
// region before StructureAssembler has had a chance to fold it into a
// compound node, or after P5 if it was never a compound opener at all.
type ERBContent struct {
	baseNode
	TagOpeningToken Token
	ContentToken    Token
	TagClosingToken Token
	Parsed          bool
	Valid           bool
	Analyzed        *AnalyzedRuby
}

// ThenKeyword is the optional `then` token location for arms that support
// trailing `then` (If, Elsif, Unless, When, In), remapped into document
// coordinates once found.
type ThenKeyword struct {
	Location Location
}

// ERBIf is an `if` (or, chained, `elsif`) control node. Subsequent points to
// either the next ERBIf in the elsif chain or the terminating ERBElse; both
// are nil for a simple if/end with no further branches.
type ERBIf struct {
	baseNode
	Opening     Token
	Content     Token
	Closing     Token
	ThenKeyword *ThenKeyword
	Statements  []ASTNode
	Subsequent  ASTNode // *ERBIf, *ERBElse, or nil
	EndNode     *ERBEnd
}

// IsSimpleWrapper reports whether this if carries no elsif/else chain — the
// shape ConditionalElementRewriter and ConditionalOpenTagRewriter require of
// a wrapper candidate.
func (n *ERBIf) IsSimpleWrapper() bool { return n.Subsequent == nil }

// ERBElse terminates an If or Unless chain, or forms the else arm of a Case.
type ERBElse struct {
	baseNode
	Opening    Token
	Content    Token
	Closing    Token
	Statements []ASTNode
}

// ERBUnless is `unless`/else/end.
type ERBUnless struct {
	baseNode
	Opening     Token
	Content     Token
	Closing     Token
	ThenKeyword *ThenKeyword
	Statements  []ASTNode
	ElseClause  *ERBElse
	EndNode     *ERBEnd
}

// IsSimpleWrapper reports whether this unless carries no else clause.
func (n *ERBUnless) IsSimpleWrapper() bool { return n.ElseClause == nil }

// ERBWhen is a single `when` arm of an ERBCase.
type ERBWhen struct {
	baseNode
	Opening     Token
	Content     Token
	Closing     Token
	ThenKeyword *ThenKeyword
	Statements  []ASTNode
}

// ERBIn is a single `in` (pattern-match) arm of an ERBCaseMatch.
type ERBIn struct {
	baseNode
	Opening     Token
	Content     Token
	Closing     Token
	ThenKeyword *ThenKeyword
	Statements  []ASTNode
}

// ERBCase is a `case`/`when`/`else`/`end` structure with only When arms.
type ERBCase struct {
	baseNode
	Opening      Token
	Content      Token
	Closing      Token
	PreChildren  []ASTNode
	Conditions   []*ERBWhen
	ElseClause   *ERBElse
	EndNode      *ERBEnd
}

// ERBCaseMatch is the pattern-matching form, with In arms instead of When.
type ERBCaseMatch struct {
	baseNode
	Opening     Token
	Content     Token
	Closing     Token
	PreChildren []ASTNode
	Conditions  []*ERBIn
	ElseClause  *ERBElse
	EndNode     *ERBEnd
}

// ERBWhile is `while`/end.
type ERBWhile struct {
	baseNode
	Opening    Token
	Content    Token
	Closing    Token
	Statements []ASTNode
	EndNode    *ERBEnd
}

// ERBUntil is `until`/end.
type ERBUntil struct {
	baseNode
	Opening    Token
	Content    Token
	Closing    Token
	Statements []ASTNode
	EndNode    *ERBEnd
}

// ERBFor is `for`/end.
type ERBFor struct {
	baseNode
	Opening    Token
	Content    Token
	Closing    Token
	Statements []ASTNode
	EndNode    *ERBEnd
}

// ERBBlock is a `do ... end` or `{ ... }` block opener, the only compound
// whose terminator set includes BlockClose (`}`) in addition to End.
type ERBBlock struct {
	baseNode
	Opening    Token
	Content    Token
	Closing    Token
	Body       []ASTNode
	EndNode    *ERBEnd // set whether terminated by a literal `end` keyword or a `}` fragment folded here
}

// ERBBegin is `begin`/rescue*/else?/ensure?/end.
type ERBBegin struct {
	baseNode
	Opening       Token
	Content       Token
	Closing       Token
	Statements    []ASTNode
	RescueClause  *ERBRescue
	ElseClause    *ERBElse
	EnsureClause  *ERBEnsure
	EndNode       *ERBEnd
}

// ERBRescue is a single rescue clause in a Begin's rescue chain; Subsequent
// points to the next rescue clause, nil at the end of the chain.
type ERBRescue struct {
	baseNode
	Opening    Token
	Content    Token
	Closing    Token
	Statements []ASTNode
	Subsequent *ERBRescue
}

// ERBEnsure is the ensure clause of a Begin.
type ERBEnsure struct {
	baseNode
	Opening    Token
	Content    Token
	Closing    Token
	Statements []ASTNode
}

// ERBEnd terminates any compound node.
type ERBEnd struct {
	baseNode
	Opening Token
	Content Token
	Closing Token
}

// ERBYield is a standalone `yield` fragment, replaced in place by
// StructureAssembler rather than folded into anything larger.
type ERBYield struct {
	baseNode
	Opening Token
	Content Token
	Closing Token
}

var (
	_ ASTNode = (*ERBContent)(nil)
	_ ASTNode = (*ERBIf)(nil)
	_ ASTNode = (*ERBElse)(nil)
	_ ASTNode = (*ERBUnless)(nil)
	_ ASTNode = (*ERBWhen)(nil)
	_ ASTNode = (*ERBIn)(nil)
	_ ASTNode = (*ERBCase)(nil)
	_ ASTNode = (*ERBCaseMatch)(nil)
	_ ASTNode = (*ERBWhile)(nil)
	_ ASTNode = (*ERBUntil)(nil)
	_ ASTNode = (*ERBFor)(nil)
	_ ASTNode = (*ERBBlock)(nil)
	_ ASTNode = (*ERBBegin)(nil)
	_ ASTNode = (*ERBRescue)(nil)
	_ ASTNode = (*ERBEnsure)(nil)
	_ ASTNode = (*ERBEnd)(nil)
	_ ASTNode = (*ERBYield)(nil)
)
