package session

import "sync"

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	session Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Set(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	return nil
}

func (m *MemoryStore) Get() (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	return nil
}

func (m *MemoryStore) IsAuthenticated() bool {
	s, _ := m.Get()
	return s.Authenticated()
}
