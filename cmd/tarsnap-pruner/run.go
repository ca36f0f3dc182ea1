package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raoulx24/tarsnap-pruner/internal/history"
	"github.com/raoulx24/tarsnap-pruner/internal/metrics"
	"github.com/raoulx24/tarsnap-pruner/internal/report"
	"github.com/raoulx24/tarsnap-pruner/internal/worker"
)

var runFlags struct {
	dryRun bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Prune every machine once",
	Long: `Prune every machine once and print a summary table.

The exit status is non-zero if any machine failed to list its archives,
failed to refresh its cache, or failed to delete an archive.

Examples:
  # Prune with a config file
  tarsnap-pruner run --config /etc/tarsnap-pruner/config.yaml

  # Compute the schedule but delete nothing
  tarsnap-pruner run --dry-run`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "report what would be pruned without deleting")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(nil)
	sinks := []worker.Sink{collector}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	w := worker.New(worker.Options{
		Policy: cfg.Retention.Policy(),
		DryRun: runFlags.dryRun,
	}, logger, sinks...)
	runner := worker.NewRunner(cfg, w, nil, nil, logger)

	_, reports, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Error("writing metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
		}
	}

	if len(reports) == 0 {
		logger.Warn("no key files found", "directory", cfg.Keys.Directory, "pattern", cfg.Keys.Pattern)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.Table(reports))

	return failures(reports)
}

// failures returns an error naming how many machines did not prune cleanly.
func failures(reports []report.Report) error {
	failed := 0
	for _, r := range reports {
		if !r.OK() {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d machines reported errors", failed, len(reports))
}
