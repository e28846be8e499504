// Package knowledge holds the curated question/answer base and the matching
// heuristics that decide whether a canned answer can replace an LLM call.
package knowledge

import "strings"

// Entry is one canonical question/answer pair. The set is immutable once
// loaded; entries have no identity beyond their question text.
type Entry struct {
	Question string
	Answer   string
}

// Context renders the whole base as LLM background context.
func Context(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Q: ")
		b.WriteString(e.Question)
		b.WriteString("\nA: ")
		b.WriteString(e.Answer)
	}
	return b.String()
}
