package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rfjolnisson/belmond-bug-tracker/internal/adapters/jira"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/config"
	apphttp "github.com/rfjolnisson/belmond-bug-tracker/internal/http"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/jobs"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/logger"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/services"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg)

	jc := jira.NewClient(cfg, log)
	st := store.NewSnapshotStore(cfg.CacheTTL)
	svc := services.New(cfg, log, jc, st)

	router := apphttp.NewRouter(cfg, log, svc)

	var cr *jobs.Cron
	if cfg.RefreshCron != "" {
		cr = jobs.New(cfg, log, svc)
		cr.Start()
		defer cr.Stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- router.Run(cfg.HTTPAddr) }()
	log.Info().Str("addr", cfg.HTTPAddr).Str("jira", cfg.JiraBaseURL).Msg("belmond bug tracker started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	time.Sleep(500 * time.Millisecond)
}
