package ratelimit

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLimiter_DebouncesPerConversation(t *testing.T) {
	l := New(Config{Interval: 10 * time.Second, Logger: zap.NewNop()})
	defer l.Stop()

	base := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }

	if !l.Allow("c1") {
		t.Fatal("first message must pass")
	}
	now = base.Add(3 * time.Second)
	if l.Allow("c1") {
		t.Fatal("message inside the window must be dropped")
	}
	if !l.Allow("c2") {
		t.Fatal("other conversations must be unaffected")
	}
	now = base.Add(11 * time.Second)
	if !l.Allow("c1") {
		t.Fatal("message after the window must pass")
	}
}

func TestLimiter_DropDoesNotExtendWindow(t *testing.T) {
	l := New(Config{Interval: 10 * time.Second, Logger: zap.NewNop()})
	defer l.Stop()

	base := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }

	l.Allow("c1")
	now = base.Add(9 * time.Second)
	l.Allow("c1")
	now = base.Add(10 * time.Second)
	if !l.Allow("c1") {
		t.Fatal("window must be measured from the last accepted message")
	}
}
