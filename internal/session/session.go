// Package session keeps per-conversation state: the bounded turn history the
// orchestrator feeds back into LLM prompts, and whether the conversation is
// currently inside a booking exchange.
package session

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is everything remembered about one conversation. The zero value is a
// fresh session.
type State struct {
	Turns []Turn `json:"turns"`
	// BookingContext marks that the previous exchange was in the schedule
	// branch, so follow-ups stay there even when they match the knowledge
	// base.
	BookingContext bool      `json:"booking_context"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store is keyed by the transport's stable conversation identifier. A miss
// returns a zero State, not an error.
type Store interface {
	Get(ctx context.Context, conversationID string) (State, error)
	Put(ctx context.Context, conversationID string, st State) error
}

// TrimTurns bounds history to the most recent max turns.
func TrimTurns(turns []Turn, max int) []Turn {
	if max <= 0 || len(turns) <= max {
		return turns
	}
	return turns[len(turns)-max:]
}
