package state

import (
	"context"
	"sync"
)

type memorySession struct {
	state State
	data  map[string]string
}

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*memorySession
}

// NewMemoryManager constructs an in-memory Manager implementation for tests and development.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*memorySession),
	}
}

// State returns the stored state for a user, or StateIdle if none exists.
func (m *memoryManager) State(_ context.Context, userID int64) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.state, nil
	}
	return StateIdle, nil
}

// SetState updates the state for a user, creating a new session if necessary.
func (m *memoryManager) SetState(_ context.Context, userID int64, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &memorySession{data: make(map[string]string)}
		m.sessions[userID] = sess
	}
	sess.state = st
	return nil
}

// Data returns a copy of the attribute bag for a user.
func (m *memoryManager) Data(_ context.Context, userID int64) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string)
	if sess, ok := m.sessions[userID]; ok {
		for k, v := range sess.data {
			out[k] = v
		}
	}
	return out, nil
}

// UpdateData merges the patch into the attribute bag for a user.
func (m *memoryManager) UpdateData(_ context.Context, userID int64, patch map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &memorySession{state: StateIdle, data: make(map[string]string)}
		m.sessions[userID] = sess
	}
	for k, v := range patch {
		sess.data[k] = v
	}
	return nil
}

// Clear removes the entire session for a user.
func (m *memoryManager) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
