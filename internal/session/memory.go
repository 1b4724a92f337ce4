package session

import (
	"context"
	"sync"
	"time"

	"github.com/example/taxifare/internal/models"
	"github.com/example/taxifare/internal/observability"
)

type memoryEntry struct {
	coords   Coordinates
	lastSeen time.Time
}

// MemoryStore keeps sessions in process memory. Sessions idle for longer than
// the TTL are treated as gone and removed by Sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memoryEntry), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Create(ctx context.Context) (string, error) {
	id := newID()
	m.mu.Lock()
	m.sessions[id] = &memoryEntry{lastSeen: m.now()}
	m.mu.Unlock()
	observability.SessionsActive.Inc()
	return id, nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (Coordinates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return Coordinates{}, ErrNotFound
	}
	e.lastSeen = m.now()
	return e.coords.clone(), nil
}

func (m *MemoryStore) SetSide(ctx context.Context, id string, role models.Role, c models.Coord) (Coordinates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return Coordinates{}, ErrNotFound
	}
	e.coords.Set(role, c)
	e.lastSeen = m.now()
	return e.coords.clone(), nil
}

// Delete drops the session. An expired session that was not swept yet is
// dropped too but reported as ErrNotFound, like Load does.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	observability.SessionsActive.Dec()
	if m.expired(e) {
		return ErrNotFound
	}
	return nil
}

// Sweep removes expired sessions and returns how many were dropped.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, id)
			n++
		}
	}
	observability.SessionsActive.Sub(float64(n))
	return n
}

// Run sweeps every period until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
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

// Len reports the number of sessions held, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// live must be called with mu held.
func (m *MemoryStore) live(id string) (*memoryEntry, bool) {
	e, ok := m.sessions[id]
	if !ok || m.expired(e) {
		return nil, false
	}
	return e, true
}

func (m *MemoryStore) expired(e *memoryEntry) bool {
	return m.ttl > 0 && m.now().Sub(e.lastSeen) > m.ttl
}
