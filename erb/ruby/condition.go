package ruby

import "strings"

// StripConditionKeyword removes a leading "if " or "unless " and surrounding
// whitespace from a fragment's content, yielding the condition string
// ConditionalElementRewriter byte-compares.
func StripConditionKeyword(content string) string {
	s := strings.TrimSpace(content)
	for _, kw := range []string{"if", "unless"} {
		if strings.HasPrefix(s, kw) {
			rest := s[len(kw):]
			if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
				return strings.TrimSpace(rest)
			}
		}
	}
	return s
}

// ConditionsEquivalent reports whether two condition strings denote the same
// expression: a plain byte comparison, no parenthesization- or
// whitespace-folding fallback. `if (admin)` and `if admin` are NOT
// equivalent by this rule; a wrapper pair differing only in parens is a
// genuine condition mismatch.
func ConditionsEquivalent(a, b string) bool {
	return a == b
}
