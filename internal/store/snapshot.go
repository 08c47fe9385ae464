package store

import (
	"sync"
	"time"

	"github.com/rfjolnisson/belmond-bug-tracker/internal/domain"
)

// SnapshotStore memoizes the last successful full fetch. It holds
// exactly one entry; a snapshot is served while younger than ttl and a
// failed refresh never evicts the held value.
type SnapshotStore struct {
	mu   sync.RWMutex
	snap *domain.Snapshot
	ttl  time.Duration
}

func NewSnapshotStore(ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{ttl: ttl}
}

// Get returns the held snapshot if it is still fresh at now.
func (s *SnapshotStore) Get(now time.Time) (*domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, false
	}
	if now.Sub(s.snap.FetchedAt) >= s.ttl {
		return nil, false
	}
	return s.snap, true
}

// Last returns the held snapshot regardless of age.
func (s *SnapshotStore) Last() (*domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, false
	}
	return s.snap, true
}

func (s *SnapshotStore) Put(snap *domain.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Invalidate drops the held snapshot so the next read refetches.
func (s *SnapshotStore) Invalidate() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
}
