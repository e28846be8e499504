package session

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store with TTL eviction and a hard session cap, so
// the session map cannot grow without bound.
type Memory struct {
	mu          sync.Mutex
	sessions    map[string]State
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
}

func NewMemory(ttl time.Duration, maxSessions int) *Memory {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxSessions <= 0 {
		maxSessions = 1000
	}
	return &Memory{
		sessions:    make(map[string]State),
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, conversationID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[conversationID]
	if !ok || m.now().Sub(st.UpdatedAt) > m.ttl {
		return State{}, nil
	}
	return st, nil
}

func (m *Memory) Put(ctx context.Context, conversationID string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st.UpdatedAt = m.now()
	m.sessions[conversationID] = st

	m.evictLocked()
	return nil
}

// evictLocked drops expired sessions, then the stalest ones while over cap.
func (m *Memory) evictLocked() {
	now := m.now()
	for id, st := range m.sessions {
		if now.Sub(st.UpdatedAt) > m.ttl {
			delete(m.sessions, id)
		}
	}

	for len(m.sessions) > m.maxSessions {
		oldestID := ""
		var oldest time.Time
		for id, st := range m.sessions {
			if oldestID == "" || st.UpdatedAt.Before(oldest) {
				oldestID = id
				oldest = st.UpdatedAt
			}
		}
		delete(m.sessions, oldestID)
	}
}

// Len reports the number of live sessions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
