package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/adapters/jira"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/config"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/domain"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/store"
	"github.com/rs/zerolog"
)

type Fetcher interface {
	SearchAll(ctx context.Context) ([]jira.RawIssue, error)
	TestConnection(ctx context.Context) bool
	IssueHistory(ctx context.Context, key string) []jira.ChangeHistory
}

type Service struct {
	cfg   config.Config
	log   zerolog.Logger
	jira  Fetcher
	store *store.SnapshotStore
	now   func() time.Time

	refreshMu sync.Mutex
}

func New(cfg config.Config, log zerolog.Logger, f Fetcher, st *store.SnapshotStore) *Service {
	return &Service{cfg: cfg, log: log, jira: f, store: st, now: time.Now}
}

// Bugs returns the current snapshot, fetching from Jira only when the
// memoized one has expired.
func (s *Service) Bugs(ctx context.Context) (*domain.Snapshot, error) {
	if snap, ok := s.store.Get(s.now()); ok {
		return snap, nil
	}
	return s.refresh(ctx)
}

// ForceRefresh drops the memoized snapshot and refetches.
func (s *Service) ForceRefresh(ctx context.Context) (*domain.Snapshot, error) {
	s.store.Invalidate()
	return s.refresh(ctx)
}

func (s *Service) refresh(ctx context.Context) (*domain.Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if snap, ok := s.store.Get(s.now()); ok {
		return snap, nil
	}

	raw, err := s.jira.SearchAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("snapshot refresh failed")
		return nil, err
	}
	now := s.now()
	bugs := make([]domain.Bug, 0, len(raw))
	for _, r := range raw {
		bugs = append(bugs, jira.Normalize(r, s.cfg.JiraBaseURL, now))
	}
	snap := &domain.Snapshot{ID: uuid.NewString(), FetchedAt: now, Bugs: bugs}
	s.store.Put(snap)
	s.log.Info().Str("snapshot_id", snap.ID).Int("bugs", len(bugs)).Msg("snapshot refreshed")
	return snap, nil
}

// CheckConnection probes the Jira instance; diagnostic only.
func (s *Service) CheckConnection(ctx context.Context) bool {
	return s.jira.TestConnection(ctx)
}

func (s *Service) History(ctx context.Context, key string) []jira.ChangeHistory {
	return s.jira.IssueHistory(ctx, key)
}

// reportable returns the snapshot's bugs with discarded statuses
// filtered out, the working set every view is computed over.
func (s *Service) reportable(ctx context.Context) (*domain.Snapshot, []domain.Bug, error) {
	snap, err := s.Bugs(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snap, ExcludeRejected(snap.Bugs), nil
}

func (s *Service) Summary(ctx context.Context) (*domain.Snapshot, *domain.Summary, error) {
	snap, bugs, err := s.reportable(ctx)
	if err != nil {
		return nil, nil, err
	}
	sum := BuildSummary(bugs)
	return snap, &sum, nil
}

func (s *Service) Aging(ctx context.Context) (*domain.Snapshot, *domain.AgingReport, error) {
	snap, bugs, err := s.reportable(ctx)
	if err != nil {
		return nil, nil, err
	}
	r := BuildAging(bugs)
	return snap, &r, nil
}

func (s *Service) CycleTime(ctx context.Context) (*domain.Snapshot, []domain.CycleTimeStat, error) {
	snap, bugs, err := s.reportable(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snap, BuildCycleTime(bugs), nil
}

func (s *Service) Velocity(ctx context.Context) (*domain.Snapshot, *domain.VelocityReport, error) {
	snap, bugs, err := s.reportable(ctx)
	if err != nil {
		return nil, nil, err
	}
	r := BuildVelocity(bugs)
	return snap, &r, nil
}

func (s *Service) Workload(ctx context.Context) (*domain.Snapshot, *domain.WorkloadReport, error) {
	snap, bugs, err := s.reportable(ctx)
	if err != nil {
		return nil, nil, err
	}
	r := BuildWorkload(bugs)
	return snap, &r, nil
}

func (s *Service) Blockers(ctx context.Context, f Filter) (*domain.Snapshot, *domain.BlockerReport, error) {
	snap, bugs, err := s.reportable(ctx)
	if err != nil {
		return nil, nil, err
	}
	r := BuildBlockers(bugs, f)
	return snap, &r, nil
}

func (s *Service) FixVersions(ctx context.Context) (*domain.Snapshot, []domain.FixVersionProgress, error) {
	snap, bugs, err := s.reportable(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snap, BuildFixVersions(bugs), nil
}

func (s *Service) StatusFlow(ctx context.Context) (*domain.Snapshot, *domain.StatusFlowReport, error) {
	snap, bugs, err := s.reportable(ctx)
	if err != nil {
		return nil, nil, err
	}
	r := BuildStatusFlow(bugs)
	return snap, &r, nil
}

// List returns the filtered, sorted bug list.
func (s *Service) List(ctx context.Context, f Filter, sortBy string, desc bool) (*domain.Snapshot, []domain.Bug, error) {
	snap, bugs, err := s.reportable(ctx)
	if err != nil {
		return nil, nil, err
	}
	out := FilterBugs(bugs, f)
	SortBugs(out, sortBy, desc)
	return snap, out, nil
}
