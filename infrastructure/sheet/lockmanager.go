package sheet

import "sync"

// LockManager tracks sheet ids with a lock transition in flight. It guards
// a single process only.
type LockManager struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewLockManager() *LockManager {
	return &LockManager{inFlight: make(map[string]struct{})}
}

// Acquire returns false when id is already held.
func (m *LockManager) Acquire(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.inFlight[id]; held {
		return false
	}
	m.inFlight[id] = struct{}{}
	return true
}

// Release drops id unconditionally.
func (m *LockManager) Release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, id)
}

// Held reports whether id is currently guarded.
func (m *LockManager) Held(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.inFlight[id]
	return held
}
