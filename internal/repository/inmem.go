package repository

import (
	"sync"

	"stock-screener-backend/internal/domain"
)

// InMemorySnapshotRepository keeps the latest screening snapshot for the
// HTTP/WebSocket delivery layer. Each cycle replaces the whole snapshot.
type InMemorySnapshotRepository struct {
	mu   sync.RWMutex
	snap domain.Snapshot
	set  bool
}

func NewInMemorySnapshotRepository() *InMemorySnapshotRepository {
	return &InMemorySnapshotRepository{}
}

func (r *InMemorySnapshotRepository) SaveSnapshot(snap domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = snap
	r.set = true
	return nil
}

func (r *InMemorySnapshotRepository) GetSnapshot() (domain.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap, r.set
}
