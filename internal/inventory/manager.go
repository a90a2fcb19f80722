package inventory

import (
	"context"
	"sync"
)

// Manager hands out one Session per organization scope, creating and
// initializing it on first use. Request handlers share sessions through the
// manager so the in-memory collection is loaded once per org, not per
// request.
type Manager struct {
	store Store
	opts  Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager builds a manager; opts apply to every session it creates.
func NewManager(store Store, opts Options) *Manager {
	return &Manager{
		store:    store,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for orgID, initializing it on first use. An
// init failure is returned and the session is not retained, so the next
// call retries the load.
func (m *Manager) Session(ctx context.Context, orgID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[orgID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	// Init outside the lock: a slow store load for one org must not block
	// lookups for others. Two concurrent first requests may both init; the
	// second registration wins and the loser is torn down.
	s := New(m.store, orgID, m.opts)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[orgID]; ok {
		s.Teardown()
		return existing, nil
	}
	m.sessions[orgID] = s
	return s, nil
}

// Peek returns the session for orgID if it is already initialized.
func (m *Manager) Peek(orgID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[orgID]
	return s, ok
}

// Orgs lists the organization scopes with live sessions.
func (m *Manager) Orgs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for org := range m.sessions {
		out = append(out, org)
	}
	return out
}

// Teardown tears down every session.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for org, s := range m.sessions {
		s.Teardown()
		delete(m.sessions, org)
	}
}
