package session

import (
	"crypto/subtle"
	"sync"
	"time"
)

// State is the per-browser state the dashboard tracks: whether this session
// already counted a visit, and whether it authenticated as admin.
type State struct {
	Visited bool
	Admin   bool
}

type entry struct {
	state *State
	ts    time.Time
}

type stamp struct {
	id string
	ts time.Time
}

// Manager keeps a fixed-size set of recently active sessions. Expired or
// evicted sessions simply start over: the visit is counted again and the
// admin login is lost, which is acceptable for this traffic level.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]entry
	order    []stamp
	capacity int
	ttl      time.Duration
}

// NewManager creates a manager with the provided capacity and ttl.
func NewManager(capacity int, ttl time.Duration) *Manager {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		sessions: make(map[string]entry, capacity),
		order:    make([]stamp, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// MarkVisited records a visit for the session and returns true when this is
// the first visit within the session's lifetime. Callers use the result to
// decide whether to bump the daily counter.
func (m *Manager) MarkVisited(id string) bool {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.get(id, now)
	if e.state.Visited {
		return false
	}
	e.state.Visited = true
	return true
}

// SetAdmin records the outcome of an admin login attempt.
func (m *Manager) SetAdmin(id string, admin bool) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.get(id, now).state.Admin = admin
}

// IsAdmin reports whether the session has authenticated as admin.
func (m *Manager) IsAdmin(id string) bool {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[id]; ok && now.Sub(e.ts) <= m.ttl {
		return e.state.Admin
	}
	return false
}

// get returns the live entry for id, creating a fresh one when the session
// is unknown or expired. Caller must hold the lock.
func (m *Manager) get(id string, now time.Time) entry {
	if e, ok := m.sessions[id]; ok && now.Sub(e.ts) <= m.ttl {
		return e
	}

	e := entry{state: &State{}, ts: now}
	m.sessions[id] = e
	m.order = append(m.order, stamp{id: id, ts: now})
	m.compact(now)
	return e
}

func (m *Manager) compact(now time.Time) {
	cutoff := now.Add(-m.ttl)

	for len(m.order) > 0 && (len(m.sessions) > m.capacity || m.order[0].ts.Before(cutoff)) {
		oldest := m.order[0]
		m.order = m.order[1:]

		if e, ok := m.sessions[oldest.id]; ok {
			if e.ts == oldest.ts {
				delete(m.sessions, oldest.id)
			}
		}
	}
}

// Authenticate compares a submitted password against the configured secret
// in constant time. An empty secret never authenticates.
func Authenticate(submitted, secret string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(secret)) == 1
}
