package knowledge

import (
	"strings"
	"unicode/utf8"
)

// keywordThreshold is the minimum fraction of query keywords that must appear
// in a candidate question for a keyword match to be accepted.
const keywordThreshold = 0.4

// BestMatch finds the knowledge entry that answers query, or nil.
//
// Stages, first hit wins:
//  1. exact: case-insensitive, trimmed equality with a stored question
//  2. keyword: fraction of query tokens (longer than 2 runes) found as
//     substrings of the candidate question, accepted at >= 0.4, ties broken
//     by base order
//  3. substring: one of query/question contains the other
//
// The function is pure; identical inputs always yield identical results.
func BestMatch(query string, entries []Entry) *Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(entries) == 0 {
		return nil
	}

	for i := range entries {
		if strings.ToLower(strings.TrimSpace(entries[i].Question)) == q {
			return &entries[i]
		}
	}

	if e := bestKeywordMatch(q, entries); e != nil {
		return e
	}

	for i := range entries {
		question := strings.ToLower(entries[i].Question)
		if question == "" {
			continue
		}
		if strings.Contains(question, q) || strings.Contains(q, question) {
			return &entries[i]
		}
	}

	return nil
}

func bestKeywordMatch(q string, entries []Entry) *Entry {
	tokens := keywords(q)
	if len(tokens) == 0 {
		return nil
	}

	best := -1
	bestScore := 0.0
	for i := range entries {
		question := strings.ToLower(entries[i].Question)
		found := 0
		for _, tok := range tokens {
			if strings.Contains(question, tok) {
				found++
			}
		}
		score := float64(found) / float64(len(tokens))
		if score > bestScore {
			bestScore = score
			best = i
		}
	}

	if best >= 0 && bestScore >= keywordThreshold {
		return &entries[best]
	}
	return nil
}

// keywords splits on whitespace and drops tokens of 2 runes or fewer.
func keywords(q string) []string {
	var tokens []string
	for _, tok := range strings.Fields(q) {
		if utf8.RuneCountInString(tok) > 2 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// PartialMatch is the last-resort lookup used when the LLM is unreachable:
// the first entry whose question contains any query keyword.
func PartialMatch(query string, entries []Entry) *Entry {
	tokens := keywords(strings.ToLower(strings.TrimSpace(query)))
	for i := range entries {
		question := strings.ToLower(entries[i].Question)
		for _, tok := range tokens {
			if strings.Contains(question, tok) {
				return &entries[i]
			}
		}
	}
	return nil
}
