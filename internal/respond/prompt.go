package respond

import (
	"fmt"
	"strings"
	"time"

	"github.com/sardorismatullaev707-collab/suprt/internal/knowledge"
)

const persona = `You are a friendly support assistant for a small service business.
Answer briefly and politely, in the same language the customer writes in.
If you do not know the answer, say so and offer to connect the customer with a human.`

// plainPrompt is the system prompt for ordinary questions outside the
// booking flow. The knowledge base is the only allowed source of facts.
func plainPrompt(kb []knowledge.Entry) string {
	var b strings.Builder
	b.WriteString(persona)
	if ctx := knowledge.Context(kb); ctx != "" {
		b.WriteString("\n\nAnswer using only the reference answers below. Do not invent facts, prices or policies that are not listed here; if the answer is not covered, say you don't know and offer to connect the customer with a human.\n\n")
		b.WriteString(ctx)
	}
	return b.String()
}

// schedulePrompt is the system prompt for the booking flow. It carries the
// current date, the live slot list and the command protocol. The model never
// confirms a booking itself; it emits the command and the application
// executes it.
func schedulePrompt(now time.Time, slotList string, kb []knowledge.Entry) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nYou also help customers book appointments.")
	fmt.Fprintf(&b, "\nCurrent date and time: %s, %s.\n",
		now.Weekday(), now.Format("2006-01-02 15:04"))
	b.WriteString("\nAvailable slots:\n")
	b.WriteString(slotList)
	b.WriteString(`

To book, collect the exact date, time, customer name and contact info.
Offer only slots from the list above. When you have all four pieces,
include this command on its own line at the end of your reply:

BOOK:YYYY-MM-DD|HH:MM|name|contact

Example: BOOK:2026-01-31|15:00|Ivan|ivan@mail.com

Never tell the customer a booking is confirmed yourself. The system runs
the command and inserts the real outcome in place of it. If any piece is
still missing, ask for it instead of emitting the command.`)

	if ctx := knowledge.Context(kb); ctx != "" {
		b.WriteString("\n\nReference answers, use them when relevant:\n\n")
		b.WriteString(ctx)
	}
	return b.String()
}
