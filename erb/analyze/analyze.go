package analyze

import "github.com/herbcore/herb/erb"

// Analyze runs the full five-pass pipeline over doc, in place: P1
// EmbeddedAnalyzer sub-parses every executable fragment, P2
// StructureAssembler folds the flat result into compound control nodes, P3
// ConditionalElementRewriter and P4 ConditionalOpenTagRewriter repair
// HTML/ERB tag pairs split across control structures, and P5
// InvalidStructureDetector reports scope violations StructureAssembler
// couldn't resolve on its own. A final lift step promotes whatever
// diagnostics survive all five passes into RubyParseError values on their
// owning fragment.
//
// Passes run synchronously and in this fixed order; there is no
// cancellation or timeout support, matching the single-threaded contract
// the rest of this module assumes.
func Analyze(doc *erb.Document, opts Options) *erb.Document {
	newEmbeddedAnalyzer(opts).Run(doc.Children)

	doc.Children = newAssembler().Run(doc.Children)
	doc.Children = newConditionalElementRewriter().Run(doc.Children)
	doc.Children = newConditionalOpenTagRewriter().Run(doc.Children)

	newInvalidStructureDetector().Run(doc.Children)

	liftParseErrors(doc.Children, newCorrelationID())

	opts.logger().Debug("analyze pipeline complete")
	return doc
}
