package gps

import (
	"sync"

	"github.com/sightline-labs/sightline/internal/geo"
)

// Mock walks a scripted path, one waypoint per Advance call. Useful on
// hardware-free hosts and in tests.
type Mock struct {
	mu   sync.Mutex
	path []geo.Coordinate
	idx  int
	ok   bool
}

func NewMock(path ...geo.Coordinate) *Mock {
	return &Mock{path: path, ok: len(path) > 0}
}

func (m *Mock) SetPath(path []geo.Coordinate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = path
	m.idx = 0
	m.ok = len(path) > 0
}

// Advance moves to the next waypoint. The final waypoint is sticky.
func (m *Mock) Advance() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idx < len(m.path)-1 {
		m.idx++
	}
}

// Lose simulates losing the fix until the next SetPath.
func (m *Mock) Lose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ok = false
}

func (m *Mock) Position() (geo.Coordinate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ok || len(m.path) == 0 {
		return geo.Coordinate{}, false
	}
	return m.path[m.idx], true
}
