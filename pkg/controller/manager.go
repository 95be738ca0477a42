package controller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leadcatalyst/leadchat/pkg/logger"
	"github.com/leadcatalyst/leadchat/pkg/webhook"
)

// Manager keeps one in-memory Session per chat id.
type Manager struct {
	sender  webhook.Sender
	timeout time.Duration
	ttl     time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager. Sessions idle for longer than ttl are dropped by
// Sweep; ttl <= 0 keeps them forever.
func NewManager(sender webhook.Sender, timeout, ttl time.Duration) *Manager {
	return &Manager{
		sender:   sender,
		timeout:  timeout,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for chatID, creating it on first use. An empty chatID
// gets a fresh random id.
func (m *Manager) Get(chatID string) *Session {
	if chatID == "" {
		chatID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		s = NewSession(chatID, m.sender, m.timeout)
		m.sessions[chatID] = s
	}
	return s
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(chatID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	return s, ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops idle sessions unused since before now-ttl and reports how many went.
func (m *Manager) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		last, idle := s.idleSince()
		if idle && now.Sub(last) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context, every time.Duration) {
	if m.ttl <= 0 || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				logger.DebugCF("controller", "Expired chat sessions", map[string]interface{}{"removed": n})
			}
		}
	}
}
