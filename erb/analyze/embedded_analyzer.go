package analyze

import (
	"log/slog"

	"github.com/cespare/xxhash/v2"

	"github.com/herbcore/herb/erb"
	"github.com/herbcore/herb/erb/ruby"
)

// literalOpeners are the exact strings that mark a fragment as a literal,
// comment, or foreign region: skipped entirely rather than sub-parsed.
var literalOpeners = map[string]bool{
	"<%%":       true,
	"<%%=":      true,
	"<%#":       true,
	"<%graphql": true,
}

// rubyNodeOf unwraps AnalyzedRuby.Root back to the concrete scanner node
// type. Returns nil if Root is nil or came from a different Parser
// implementation that doesn't produce *ruby.Node (a test fake, say) — code
// reading then-keyword or visitor state degrades to "none found" rather
// than panicking.
func rubyNodeOf(ar *erb.AnalyzedRuby) *ruby.Node {
	if ar == nil || ar.Root == nil {
		return nil
	}
	n, _ := ar.Root.(*ruby.Node)
	return n
}

// embeddedAnalyzer runs P1 over every executable ERBContent reachable from a
// list of sibling arrays, caching sub-parse results by content hash so
// repeated identical fragments (a common shape in loop bodies) are analysed
// once.
type embeddedAnalyzer struct {
	opts  Options
	cache map[uint64]*erb.AnalyzedRuby
	log   *slog.Logger
}

func newEmbeddedAnalyzer(opts Options) *embeddedAnalyzer {
	return &embeddedAnalyzer{
		opts:  opts,
		cache: make(map[uint64]*erb.AnalyzedRuby),
		log:   opts.logger(),
	}
}

// Run visits every ERBContent node reachable from nodes (recursing into
// HtmlElement bodies; at this point in the pipeline nothing else nests
// ERBContent yet).
func (a *embeddedAnalyzer) Run(nodes []erb.ASTNode) {
	count := 0
	a.visit(nodes, &count)
	a.log.Debug("embedded-analyzer pass complete", "fragments_analyzed", count)
}

func (a *embeddedAnalyzer) visit(nodes []erb.ASTNode, count *int) {
	for _, n := range nodes {
		switch node := n.(type) {
		case *erb.ERBContent:
			a.analyzeFragment(node)
			*count++
		case *erb.HtmlElement:
			a.visit(node.Body, count)
		}
	}
}

func (a *embeddedAnalyzer) analyzeFragment(frag *erb.ERBContent) {
	if literalOpeners[frag.TagOpeningToken.Value] {
		frag.Parsed = false
		frag.Valid = true
		frag.Analyzed = nil
		return
	}

	key := xxhash.Sum64String(frag.ContentToken.Value)
	if cached, ok := a.cache[key]; ok {
		frag.Parsed = true
		frag.Valid = cached.Valid
		frag.Analyzed = cached
		a.appendFragmentDiagnosticErrors(frag)
		return
	}

	parser := a.opts.parser()
	root, diags := parser.SubParse([]byte(frag.ContentToken.Value), frag.ContentToken.Location.Start)

	ar := &erb.AnalyzedRuby{
		Root:  wrapRubyNode(root),
		Valid: len(diags) == 0,
	}
	for _, d := range diags {
		ar.Diagnostics = append(ar.Diagnostics, erb.RubyDiagnostic{Message: d.Message, Location: d.Location})
	}

	populateTreeCounters(ar, root)
	populateDiagnosticCounters(ar, diags)

	frag.Parsed = true
	frag.Valid = ar.Valid
	frag.Analyzed = ar
	a.cache[key] = ar

	a.appendFragmentDiagnosticErrors(frag)
}

// appendFragmentDiagnosticErrors implements contract steps 4-5: the
// multiple-blocks-in-tag error and, in strict mode, the inline
// case-with-conditions error.
func (a *embeddedAnalyzer) appendFragmentDiagnosticErrors(frag *erb.ERBContent) {
	ar := frag.Analyzed
	if ar == nil || ar.Valid {
		return
	}
	if ar.UnclosedControlFlowCount >= 2 {
		frag.SetErrors(append(frag.NodeErrors(), &erb.ErbMultipleBlocksInTagError{Location: frag.Loc()}))
	}
	if a.opts.Strict && hasInlineCaseCondition(ar) {
		frag.SetErrors(append(frag.NodeErrors(), &erb.ErbCaseWithConditionsError{Location: frag.Loc()}))
	}
}

// hasInlineCaseCondition reports whether a fragment's sub-parse shows both a
// case opener and at least one when/in arm within the same fragment — the
// `<% case x; when y %>` shape strict mode flags.
func hasInlineCaseCondition(ar *erb.AnalyzedRuby) bool {
	return (ar.CaseCount > 0 || ar.CaseMatchCount > 0) && (ar.WhenCount > 0 || ar.InCount > 0)
}

func wrapRubyNode(n *ruby.Node) erb.RubyNode {
	if n == nil {
		return nil
	}
	return n
}

// populateTreeCounters walks the sub-parsed tree once, incrementing the
// counters that reflect actual produced nodes (if/case/while/.../yield/
// block/then), and derives unclosed_control_flow_count: any compound opener
// node whose CloserLocation was never set (it ran off the end of this
// isolated fragment without seeing its terminator) counts, up to the cap of
// 2, excluding postfix conditionals (a statement that starts before the
// keyword — not reachable in this flat scanner's node shape, since it never
// builds nodes for postfix forms in the first place).
func populateTreeCounters(ar *erb.AnalyzedRuby, root *ruby.Node) {
	if root == nil {
		return
	}
	root.Visit(func(n *ruby.Node) {
		switch n.NodeKind {
		case ruby.KindIf:
			ar.IfCount++
		case ruby.KindUnless:
			ar.UnlessCount++
		case ruby.KindCase:
			ar.CaseCount++
		case ruby.KindCaseMatch:
			ar.CaseMatchCount++
		case ruby.KindWhile:
			ar.WhileCount++
		case ruby.KindUntil:
			ar.UntilCount++
		case ruby.KindFor:
			ar.ForCount++
		case ruby.KindBegin:
			ar.BeginCount++
		case ruby.KindYield:
			ar.YieldCount++
		case ruby.KindBlock:
			ar.BlockCount++
		case ruby.KindWhen:
			ar.WhenCount++
		case ruby.KindIn:
			ar.InCount++
		}
		if n.HasThen {
			ar.ThenKeywordCount++
		}
		if isUnclosedOpener(n) && ar.UnclosedControlFlowCount < 2 {
			ar.UnclosedControlFlowCount++
		}
	})
}

func isUnclosedOpener(n *ruby.Node) bool {
	switch n.NodeKind {
	case ruby.KindIf, ruby.KindUnless, ruby.KindCase, ruby.KindCaseMatch,
		ruby.KindWhile, ruby.KindUntil, ruby.KindFor, ruby.KindBegin, ruby.KindBlock,
		ruby.KindLambda:
		return n.CloserLocation.IsZero()
	default:
		return false
	}
}

// populateDiagnosticCounters increments the counters that only a diagnostic
// message can reveal (the sub-parser doesn't build nodes for keywords it
// rejected outright).
func populateDiagnosticCounters(ar *erb.AnalyzedRuby, diags []ruby.Diagnostic) {
	for _, d := range diags {
		counter, ok := ruby.CounterFor(d.Message)
		if !ok {
			continue
		}
		switch counter {
		case "elsif":
			ar.ElsifCount++
		case "else":
			ar.ElseCount++
		case "end":
			ar.EndCount++
		case "block_closing":
			ar.BlockClosingCount++
		case "when":
			ar.WhenCount++
		case "in":
			ar.InCount++
		case "rescue":
			ar.RescueCount++
		case "ensure":
			ar.EnsureCount++
		}
	}
}
