// Package intent classifies whether a message is about scheduling. The
// heuristic is tuned for recall: a false positive still gets answered from
// the current slot list, while a false negative would silently drop booking
// context mid-conversation.
package intent

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// 8+ digits, possibly separated by spaces or dashes
	phonePattern    = regexp.MustCompile(`(?:\d[ \-]?){7}\d`)
	clockPattern    = regexp.MustCompile(`\d{1,2}[:.]\d{2}`)
	isoDatePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	dayMonthPattern = regexp.MustCompile(`(?i)\d{1,2}\s+(январ|феврал|март|апрел|ма[яй]|июн|июл|август|сентябр|октябр|ноябр|декабр|jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`)
)

// Substring stems, English and Russian.
var schedulingStems = []string{
	"schedul", "available", "availab", "slot", "appointment", "book", "meeting",
	"today", "tomorrow",
	"расписан", "свободн", "запис", "запиш", "брон", "встреч", "приём", "прием",
	"сегодня", "завтра",
}

// Bare affirmatives are compared as whole tokens so that e.g. "да" inside a
// longer Russian word does not trigger.
var affirmatives = map[string]struct{}{
	"yes": {}, "yep": {}, "ok": {}, "okay": {},
	"да": {}, "ага": {}, "хорошо": {}, "ок": {},
}

// WantsScheduling reports whether query looks schedule-related: contact
// details, scheduling vocabulary, an affirmative, or a time/date pattern.
func WantsScheduling(query string) bool {
	if HasContactInfo(query) {
		return true
	}

	q := strings.ToLower(query)
	for _, stem := range schedulingStems {
		if strings.Contains(q, stem) {
			return true
		}
	}

	for _, tok := range strings.Fields(q) {
		tok = strings.Trim(tok, ".,!?;:()\"'")
		if _, ok := affirmatives[tok]; ok {
			return true
		}
	}

	return clockPattern.MatchString(q) ||
		isoDatePattern.MatchString(q) ||
		dayMonthPattern.MatchString(q)
}

// HasContactInfo reports whether query carries an email-like substring or a
// phone-like digit run.
func HasContactInfo(query string) bool {
	return emailPattern.MatchString(query) || phonePattern.MatchString(query)
}
