package memory

import "sync"

// StateMap is an in-process ports.StateStorage.
type StateMap struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewStateMap creates an empty StateMap.
func NewStateMap() *StateMap {
	return &StateMap{data: make(map[string]any)}
}

// SaveState stores state under key.
func (m *StateMap) SaveState(key string, state any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = state
	return nil
}

// LoadState returns the state stored under key, or nil.
func (m *StateMap) LoadState(key string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}
