// Package analyze implements the five-pass semantic analysis pipeline over
// an already-tokenized HTML+ERB document tree: EmbeddedAnalyzer,
// StructureAssembler, ConditionalElementRewriter, ConditionalOpenTagRewriter,
// and InvalidStructureDetector, followed by the embedded-language
// parse-error lift.
package analyze

import (
	"log/slog"

	"github.com/herbcore/herb/erb/ruby"
)

// Options configures a single Analyze call, mirroring the options-struct
// pattern go-pages threads through its handler constructors.
type Options struct {
	// Strict enables ErbCaseWithConditionsError for inline case/when
	// fragments, e.g. `<% case x; when y %>` written as a single tag.
	Strict bool

	// Logger receives Debug-level trace events: one from EmbeddedAnalyzer
	// with the number of fragments it analysed, and one when the pipeline
	// completes. The other passes log nothing. Nil disables tracing entirely.
	Logger *slog.Logger

	// RubyParser is the embedded-language collaborator. Defaults to
	// ruby.NewScanner() when nil.
	RubyParser ruby.Parser
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

func (o Options) parser() ruby.Parser {
	if o.RubyParser != nil {
		return o.RubyParser
	}
	return ruby.NewScanner()
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
