package connection

import (
	"sync"
)

// Manager handles all client sessions
type Manager struct {
	sessions   map[string]*Session
	maxClients int
	mutex      sync.RWMutex
}

// NewManager creates a manager accepting at most maxClients sessions (0 means no limit)
func NewManager(maxClients int) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		maxClients: maxClients,
	}
}

// Register adds a session unless the manager is full
func (m *Manager) Register(s *Session) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.maxClients > 0 && len(m.sessions) >= m.maxClients {
		return false
	}
	m.sessions[s.ID()] = s
	return true
}

// Unregister removes a session. Unknown sessions are ignored.
func (m *Manager) Unregister(s *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, s.ID())
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// HasUser reports whether an authenticated session is logged in as user
func (m *Manager) HasUser(user string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, s := range m.sessions {
		if s.State() == StateAuthenticated && s.User() == user {
			return true
		}
	}
	return false
}

// Each calls fn for every session. fn must not call back into the manager.
func (m *Manager) Each(fn func(*Session)) {
	m.mutex.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mutex.RUnlock()

	for _, s := range list {
		fn(s)
	}
}

// CloseAll closes every session without waiting for their queues to drain
func (m *Manager) CloseAll() {
	m.Each(func(s *Session) { s.CloseNow() })
}
