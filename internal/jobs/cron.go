package jobs

import (
	"context"
	"time"

	"github.com/rfjolnisson/belmond-bug-tracker/internal/config"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type service interface {
	ForceRefresh(ctx context.Context) (*domain.Snapshot, error)
}

// Cron warms the snapshot on a schedule so interactive reads rarely pay
// the fetch cost. Only started when REFRESH_CRON is configured.
type Cron struct {
	cfg config.Config
	log zerolog.Logger
	svc service
	c   *cron.Cron
}

func New(cfg config.Config, log zerolog.Logger, svc service) *Cron {
	c := cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
	cr := &Cron{cfg: cfg, log: log, svc: svc, c: c}
	_, _ = c.AddFunc(cfg.RefreshCron, cr.refresh)
	return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	cr.log.Info().Msg("cron: snapshot refresh")
	if _, err := cr.svc.ForceRefresh(ctx); err != nil {
		cr.log.Error().Err(err).Msg("cron: refresh failed")
	}
}
