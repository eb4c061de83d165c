package graph

import "sync"

// Mirror holds the latest snapshot for readers outside the UI goroutine.
type Mirror struct {
	mu   sync.RWMutex
	snap Snapshot
	seq  uint64
}

// Publish replaces the held snapshot.
func (m *Mirror) Publish(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = s
	m.seq++
}

// Latest returns the held snapshot and how many times it was published.
func (m *Mirror) Latest() (Snapshot, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap, m.seq
}
