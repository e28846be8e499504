package session

import (
	"context"
	"testing"
	"time"
)

func TestMemory_PutGet(t *testing.T) {
	m := NewMemory(time.Hour, 10)
	ctx := context.Background()

	st := State{Turns: []Turn{{Role: RoleUser, Content: "hi"}}, BookingContext: true}
	if err := m.Put(ctx, "c1", st); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := m.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Turns) != 1 || got.Turns[0].Content != "hi" || !got.BookingContext {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestMemory_MissReturnsZeroState(t *testing.T) {
	m := NewMemory(time.Hour, 10)
	got, err := m.Get(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Turns) != 0 || got.BookingContext {
		t.Fatalf("expected zero state, got %+v", got)
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := NewMemory(time.Minute, 10)
	base := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	now := base
	m.now = func() time.Time { return now }

	ctx := context.Background()
	if err := m.Put(ctx, "c1", State{Turns: []Turn{{Role: RoleUser, Content: "hi"}}}); err != nil {
		t.Fatalf("put: %v", err)
	}

	now = base.Add(2 * time.Minute)
	got, err := m.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Turns) != 0 {
		t.Fatalf("expired session survived: %+v", got)
	}
}

func TestMemory_CapEvictsStalest(t *testing.T) {
	m := NewMemory(time.Hour, 2)
	base := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	now := base
	m.now = func() time.Time { return now }

	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		now = base.Add(time.Duration(i) * time.Minute)
		if err := m.Put(ctx, id, State{}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	if m.Len() != 2 {
		t.Fatalf("expected cap of 2, got %d", m.Len())
	}
	if got, _ := m.Get(ctx, "a"); len(got.Turns) != 0 && got.UpdatedAt.Equal(base) {
		t.Fatal("stalest session not evicted")
	}
	if got, _ := m.Get(ctx, "c"); got.UpdatedAt.IsZero() {
		t.Fatal("freshest session evicted")
	}
}

func TestTrimTurns(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Content: "1"},
		{Role: RoleAssistant, Content: "2"},
		{Role: RoleUser, Content: "3"},
	}

	got := TrimTurns(turns, 2)
	if len(got) != 2 || got[0].Content != "2" || got[1].Content != "3" {
		t.Fatalf("unexpected trim: %+v", got)
	}
	if got := TrimTurns(turns, 5); len(got) != 3 {
		t.Fatalf("short history must be untouched, got %+v", got)
	}
	if got := TrimTurns(turns, 0); len(got) != 3 {
		t.Fatalf("non-positive max must be untouched, got %+v", got)
	}
}
