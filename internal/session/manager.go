package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ats-checker/internal/shared/telemetry"
)

const defaultTTL = 30 * time.Minute

// Manager is the in-memory registry of live sessions. Sessions share no
// state; the registry lock guards only the map.
type Manager struct {
	extractor Extractor
	analyzer  Analyzer
	recorder  Recorder
	ttl       time.Duration
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(extractor Extractor, analyzer Analyzer, recorder Recorder, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{
		extractor: extractor,
		analyzer:  analyzer,
		recorder:  recorder,
		ttl:       ttl,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Create registers a new idle session.
func (m *Manager) Create() *Session {
	s := New(uuid.NewString(), m.extractor, m.analyzer, m.recorder)
	s.now = m.now
	s.updatedAt = m.now()

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete removes a session and cancels its running operation.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Reset()
	delete(m.sessions, id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the TTL. Busy sessions are kept.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		snap := s.Snapshot()
		if snap.State.Busy() || snap.UpdatedAt.After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	if removed > 0 {
		telemetry.Info("session.swept", map[string]any{"removed": removed, "remaining": len(m.sessions)})
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
