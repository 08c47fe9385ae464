package store

import (
	"testing"
	"time"

	"github.com/rfjolnisson/belmond-bug-tracker/internal/domain"
)

func TestSnapshotStore(t *testing.T) {
	s := NewSnapshotStore(5 * time.Minute)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, ok := s.Get(now); ok {
		t.Fatalf("empty store should miss")
	}

	snap := &domain.Snapshot{ID: "a", FetchedAt: now}
	s.Put(snap)

	if got, ok := s.Get(now.Add(4 * time.Minute)); !ok || got.ID != "a" {
		t.Fatalf("fresh snapshot should hit: %v %v", got, ok)
	}
	if _, ok := s.Get(now.Add(5 * time.Minute)); ok {
		t.Fatalf("snapshot at ttl should miss")
	}
	if got, ok := s.Last(); !ok || got.ID != "a" {
		t.Fatalf("Last should return stale snapshot: %v %v", got, ok)
	}

	s.Invalidate()
	if _, ok := s.Last(); ok {
		t.Fatalf("invalidated store should be empty")
	}
}
