package ruby

import "strings"

// These are the literal diagnostic substrings the core's counters and
// InvalidStructureDetector match against. Centralised here, as a single
// table, per the note that counter updates are a coupling surface that
// should not be duplicated across call sites.
const (
	DiagUnexpectedElsif  = "unexpected 'elsif', ignoring it"
	DiagUnexpectedElse   = "unexpected 'else', ignoring it"
	DiagUnexpectedEnd    = "unexpected 'end', ignoring it"
	DiagUnexpectedEquals = "unexpected '=', ignoring it"
	DiagUnexpectedBrace  = "unexpected '}', ignoring it"
	DiagUnexpectedWhen   = "unexpected 'when', ignoring it"
	DiagUnexpectedIn     = "unexpected 'in', ignoring it"
	DiagUnexpectedRescue = "unexpected 'rescue', ignoring it"
	DiagUnexpectedEnsure = "unexpected 'ensure', ignoring it"

	DiagEmbeddedDocumentEOF = "embedded document meets end of file"

	DiagInvalidBreak          = "Invalid break"
	DiagInvalidNext           = "Invalid next"
	DiagInvalidRedo           = "Invalid redo"
	DiagInvalidRetryNoRescue  = "Invalid retry without rescue"
)

// counterTable maps a diagnostic substring to the AnalyzedRuby counter field
// name it increments, mirroring the table in the core's embedded-analyzer
// contract. erb/analyze reads this via CounterFor rather than re-matching
// the literal strings itself.
var counterTable = []struct {
	substr  string
	exclude string // if non-empty, a diagnostic containing this string is excluded even if it also matches substr
	counter string
}{
	{substr: DiagUnexpectedElsif, counter: "elsif"},
	{substr: DiagUnexpectedElse, counter: "else"},
	{substr: DiagUnexpectedEnd, exclude: DiagUnexpectedEquals, counter: "end"},
	{substr: DiagUnexpectedBrace, counter: "block_closing"},
	{substr: DiagUnexpectedWhen, counter: "when"},
	{substr: DiagUnexpectedIn, counter: "in"},
	{substr: DiagUnexpectedRescue, counter: "rescue"},
	{substr: DiagUnexpectedEnsure, counter: "ensure"},
}

// CounterFor returns the counter name a diagnostic message should increment,
// and whether it matched any entry in the table.
func CounterFor(message string) (string, bool) {
	for _, e := range counterTable {
		if !strings.Contains(message, e.substr) {
			continue
		}
		if e.exclude != "" && strings.Contains(message, e.exclude) {
			continue
		}
		return e.counter, true
	}
	return "", false
}
