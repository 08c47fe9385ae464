package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rfjolnisson/belmond-bug-tracker/internal/adapters/jira"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/config"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/store"
	"github.com/rs/zerolog"
)

type stubFetcher struct {
	calls  int
	issues []jira.RawIssue
	err    error
}

func (s *stubFetcher) SearchAll(ctx context.Context) ([]jira.RawIssue, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.issues, nil
}

func (s *stubFetcher) TestConnection(ctx context.Context) bool { return true }

func (s *stubFetcher) IssueHistory(ctx context.Context, key string) []jira.ChangeHistory {
	return nil
}

func newTestService(f Fetcher, ttl time.Duration) *Service {
	cfg := config.Config{JiraBaseURL: "https://kaptio.atlassian.net", CacheTTL: ttl}
	return New(cfg, zerolog.Nop(), f, store.NewSnapshotStore(ttl))
}

func TestBugs_MemoizesWithinTTL(t *testing.T) {
	f := &stubFetcher{issues: []jira.RawIssue{{Key: "ST-1"}, {Key: "ST-2"}}}
	svc := newTestService(f, 5*time.Minute)

	first, err := svc.Bugs(context.Background())
	if err != nil {
		t.Fatalf("Bugs: %v", err)
	}
	second, err := svc.Bugs(context.Background())
	if err != nil {
		t.Fatalf("Bugs: %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("fetched %d times, want 1", f.calls)
	}
	if first.ID != second.ID {
		t.Fatalf("snapshot identity changed within TTL")
	}
	if len(first.Bugs) != 2 {
		t.Fatalf("got %d bugs", len(first.Bugs))
	}
}

func TestBugs_RefetchesAfterExpiry(t *testing.T) {
	f := &stubFetcher{issues: []jira.RawIssue{{Key: "ST-1"}}}
	svc := newTestService(f, 5*time.Minute)

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	if _, err := svc.Bugs(context.Background()); err != nil {
		t.Fatalf("Bugs: %v", err)
	}
	clock = clock.Add(6 * time.Minute)
	if _, err := svc.Bugs(context.Background()); err != nil {
		t.Fatalf("Bugs: %v", err)
	}
	if f.calls != 2 {
		t.Fatalf("fetched %d times, want 2", f.calls)
	}
}

func TestForceRefresh_BypassesCache(t *testing.T) {
	f := &stubFetcher{issues: []jira.RawIssue{{Key: "ST-1"}}}
	svc := newTestService(f, time.Hour)

	first, err := svc.Bugs(context.Background())
	if err != nil {
		t.Fatalf("Bugs: %v", err)
	}
	second, err := svc.ForceRefresh(context.Background())
	if err != nil {
		t.Fatalf("ForceRefresh: %v", err)
	}
	if f.calls != 2 {
		t.Fatalf("fetched %d times, want 2", f.calls)
	}
	if first.ID == second.ID {
		t.Fatalf("forced refresh reused snapshot identity")
	}
}

func TestBugs_FetchErrorPropagates(t *testing.T) {
	f := &stubFetcher{err: errors.New("network down")}
	svc := newTestService(f, time.Minute)

	if _, err := svc.Bugs(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestForceRefresh_FailureKeepsNothingStale(t *testing.T) {
	f := &stubFetcher{issues: []jira.RawIssue{{Key: "ST-1"}}}
	svc := newTestService(f, time.Hour)

	if _, err := svc.Bugs(context.Background()); err != nil {
		t.Fatalf("Bugs: %v", err)
	}
	f.err = errors.New("network down")
	if _, err := svc.ForceRefresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	// The next successful fetch starts clean rather than serving the
	// invalidated snapshot.
	f.err = nil
	snap, err := svc.Bugs(context.Background())
	if err != nil {
		t.Fatalf("Bugs after recovery: %v", err)
	}
	if len(snap.Bugs) != 1 {
		t.Fatalf("got %d bugs", len(snap.Bugs))
	}
	if f.calls != 3 {
		t.Fatalf("fetched %d times, want 3", f.calls)
	}
}

func TestList_ExcludesDiscardedStatuses(t *testing.T) {
	f := &stubFetcher{issues: []jira.RawIssue{
		{Key: "ST-1", Fields: jira.RawFields{Status: &jira.Named{Name: "Rejected"}}},
		{Key: "ST-2", Fields: jira.RawFields{Status: &jira.Named{Name: "Won't Fix"}}},
		{Key: "ST-3", Fields: jira.RawFields{Status: &jira.Named{Name: "Cancelled"}}},
		{Key: "ST-4", Fields: jira.RawFields{Status: &jira.Named{Name: "Won't Do"}}},
		{Key: "ST-5", Fields: jira.RawFields{Status: &jira.Named{Name: "To Do"}}},
	}}
	svc := newTestService(f, time.Minute)

	_, bugs, err := svc.List(context.Background(), Filter{}, "key", false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(bugs) != 1 || bugs[0].Key != "ST-5" {
		t.Fatalf("bugs = %#v", bugs)
	}
}
