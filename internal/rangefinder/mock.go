package rangefinder

import "sync"

// Mock is a hand-driven sensor for development rigs without the
// serial hardware attached.
type Mock struct {
	mu sync.RWMutex
	cm float64
	ok bool
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Set(cm float64) {
	m.mu.Lock()
	m.cm = cm
	m.ok = true
	m.mu.Unlock()
}

func (m *Mock) Clear() {
	m.mu.Lock()
	m.ok = false
	m.mu.Unlock()
}

func (m *Mock) Read() (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cm, m.ok
}
