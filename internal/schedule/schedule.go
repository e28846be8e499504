// Package schedule defines the shared appointment schedule: the Slot model,
// the narrow store contract a backing row store must satisfy, and rendering
// of slot lists for LLM prompts.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used across the schedule store.
const DateLayout = "2006-01-02"

// Slot is one bookable (date, time) unit. Identity is the (Date, Time) pair,
// unique within the schedule.
type Slot struct {
	Date    string // YYYY-MM-DD
	Time    string // HH:MM
	Name    string
	Contact string
}

// Booked reports whether any occupant field is populated.
func (s Slot) Booked() bool {
	return s.Name != "" || s.Contact != ""
}

// BookingResult is the synchronous outcome of one reservation attempt.
type BookingResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SlotStore is the contract against the externally owned schedule.
//
// Reserve must be a read-modify-write against the single matching row and
// must fail with a descriptive message when the slot is gone or already
// booked. The store gives no transactional guarantee across processes, so a
// narrow double-booking race is accepted rather than solved with distributed
// locking.
type SlotStore interface {
	// ListAvailable returns unbooked, non-past slots, optionally filtered
	// to one date (empty date means all). Ordering is stable within a call.
	ListAvailable(ctx context.Context, date string) ([]Slot, error)
	Reserve(ctx context.Context, date, timeOfDay, name, contact string) (BookingResult, error)
}

// IsPast reports whether date (YYYY-MM-DD) is strictly before today's date.
// Unparseable dates are treated as past so they never surface as available.
func IsPast(date string, now time.Time) bool {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), now.Location())
	if err != nil {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.Before(today)
}

// FormatSlots renders up to limit slots as a numbered list with an
// "...and N more" suffix when truncated.
func FormatSlots(slots []Slot, limit int) string {
	if len(slots) == 0 {
		return "No available slots."
	}
	if limit <= 0 || limit > len(slots) {
		limit = len(slots)
	}

	var b strings.Builder
	for i := 0; i < limit; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s %s", i+1, slots[i].Date, slots[i].Time)
	}
	if remaining := len(slots) - limit; remaining > 0 {
		fmt.Fprintf(&b, "\n...and %d more slots available", remaining)
	}
	return b.String()
}
