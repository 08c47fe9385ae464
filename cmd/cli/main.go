package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rfjolnisson/belmond-bug-tracker/internal/adapters/jira"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/config"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/logger"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/services"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/store"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "belmond",
		Short:         "Belmond bug tracker diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(checkCmd(), fetchCmd(), exportCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newService() (*services.Service, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, err
	}
	log := logger.New(cfg)
	jc := jira.NewClient(cfg, log)
	st := store.NewSnapshotStore(cfg.CacheTTL)
	return services.New(cfg, log, jc, st), cfg, nil
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe the Jira connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := newService()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			if !svc.CheckConnection(ctx) {
				return fmt.Errorf("connection failed")
			}
			fmt.Println("connection ok")
			return nil
		},
	}
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch all tracked bugs and print a short report",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := newService()
			if err != nil {
				return err
			}
			snap, err := svc.Bugs(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("fetched %d bugs (snapshot %s)\n", len(snap.Bugs), snap.ID)
			if len(snap.Bugs) > 0 {
				b := snap.Bugs[0]
				fmt.Printf("  key:         %s\n", b.Key)
				fmt.Printf("  summary:     %s\n", b.Summary)
				fmt.Printf("  status:      %s\n", b.Status)
				fmt.Printf("  priority:    %s\n", b.Priority)
				fmt.Printf("  assignee:    %s\n", b.Assignee)
				fmt.Printf("  fix version: %s\n", b.FixVersion)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tracked bugs to a CSV or XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := newService()
			if err != nil {
				return err
			}
			snap, err := svc.Bugs(cmd.Context())
			if err != nil {
				return err
			}
			bugs := services.ExcludeRejected(snap.Bugs)
			var data []byte
			switch {
			case strings.HasSuffix(out, ".xlsx"):
				data, err = services.ExportXLSX(bugs)
			case strings.HasSuffix(out, ".csv"):
				data, err = services.ExportCSV(bugs)
			default:
				return fmt.Errorf("output file must end in .csv or .xlsx")
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %d bugs to %s\n", len(bugs), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "belmond_bugs.csv", "output file (.csv or .xlsx)")
	return cmd
}
