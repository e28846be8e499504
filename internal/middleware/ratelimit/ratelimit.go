// Package ratelimit debounces conversations: one message per conversation
// per configured interval. The key is the conversation ID, not the client
// IP, so one busy chat cannot be starved by another behind the same NAT.
package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Limiter struct {
	lastSeen      map[string]time.Time
	mu            sync.Mutex
	interval      time.Duration
	logger        *zap.Logger
	cleanupTicker *time.Ticker
	now           func() time.Time
}

type Config struct {
	// Interval is the minimum gap between accepted messages per conversation.
	Interval time.Duration
	Logger   *zap.Logger
}

func New(cfg Config) *Limiter {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	l := &Limiter{
		lastSeen:      make(map[string]time.Time),
		interval:      cfg.Interval,
		logger:        cfg.Logger,
		cleanupTicker: time.NewTicker(5 * time.Minute),
		now:           time.Now,
	}

	go l.cleanup()

	return l
}

// Allow reports whether a message for this conversation may be processed
// now, and if so starts the next debounce window.
func (l *Limiter) Allow(conversationID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.lastSeen[conversationID]; ok && now.Sub(last) < l.interval {
		l.logger.Warn("Message debounced",
			zap.String("conversation_id", conversationID),
			zap.Duration("since_last", now.Sub(last)),
		)
		return false
	}

	l.lastSeen[conversationID] = now
	return true
}

func (l *Limiter) cleanup() {
	for range l.cleanupTicker.C {
		l.mu.Lock()
		now := l.now()
		for id, last := range l.lastSeen {
			if now.Sub(last) > 10*time.Minute {
				delete(l.lastSeen, id)
			}
		}
		l.mu.Unlock()
	}
}

func (l *Limiter) Stop() {
	l.cleanupTicker.Stop()
}
