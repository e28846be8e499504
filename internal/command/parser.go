// Package command extracts the booking command the LLM is contracted to emit
// inside its free-text reply: a single token of the exact shape
//
//	BOOK:<date>|<time>|<name>|<contact>
//
// terminated by end of line. The token itself must never reach the end user;
// callers replace it with a human-readable outcome via ReplaceToken.
package command

import (
	"fmt"
	"strings"
)

const marker = "BOOK:"

// Booking is a fully validated command. All fields are trimmed and non-empty.
type Booking struct {
	Date    string
	Time    string
	Name    string
	Contact string
}

type Status int

const (
	// Absent: the reply carries no command token at all.
	Absent Status = iota
	// Ok: a token was found and all four fields validate.
	Ok
	// Malformed: a token was found but fails field-presence validation.
	Malformed
)

// Result is the tagged outcome of scanning one LLM reply.
type Result struct {
	Status  Status
	Booking Booking
	Err     error
}

// ValidationError reports an empty mandatory field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("booking command: empty %s field", e.Field)
}

// Parse scans output for a command token and validates it.
func Parse(output string) Result {
	idx := strings.Index(output, marker)
	if idx < 0 {
		return Result{Status: Absent}
	}

	raw := output[idx+len(marker):]
	parts := strings.SplitN(raw, "|", 4)
	if len(parts) < 4 {
		return Result{Status: Malformed, Err: fmt.Errorf("booking command: want 4 fields, got %d", len(parts))}
	}

	// The contact field runs to the end of the token's line.
	contact := parts[3]
	if nl := strings.IndexByte(contact, '\n'); nl >= 0 {
		contact = contact[:nl]
	}

	b := Booking{
		Date:    strings.TrimSpace(parts[0]),
		Time:    strings.TrimSpace(parts[1]),
		Name:    strings.TrimSpace(parts[2]),
		Contact: strings.TrimSpace(contact),
	}
	if err := validate(b); err != nil {
		return Result{Status: Malformed, Err: err}
	}
	return Result{Status: Ok, Booking: b}
}

func validate(b Booking) error {
	switch {
	case b.Date == "":
		return &ValidationError{Field: "date"}
	case b.Time == "":
		return &ValidationError{Field: "time"}
	case b.Name == "":
		return &ValidationError{Field: "name"}
	case b.Contact == "":
		return &ValidationError{Field: "contact"}
	}
	return nil
}

// ReplaceToken substitutes the command token (marker through end of line)
// with replacement, leaving the rest of the reply intact. Output without a
// token is returned unchanged.
func ReplaceToken(output, replacement string) string {
	idx := strings.Index(output, marker)
	if idx < 0 {
		return output
	}

	end := len(output)
	if nl := strings.IndexByte(output[idx:], '\n'); nl >= 0 {
		end = idx + nl
	}
	return strings.TrimSpace(output[:idx] + replacement + output[end:])
}
