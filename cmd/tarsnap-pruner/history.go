package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/raoulx24/tarsnap-pruner/internal/history"
)

var historyFlags struct {
	limit int
	run   string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs",
	Long: `Show the most recent runs stored in the history database (history.path).

Examples:
  tarsnap-pruner history --limit 50
  tarsnap-pruner history --run 0b6f0c1e-8f43-4f0e-9a39-3c2d7f4c1b2a`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "number of machine runs to show")
	historyCmd.Flags().StringVar(&historyFlags.run, "run", "", "list the deletions of one run")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return errors.New("history.path is not configured")
	}
	if historyFlags.limit < 1 {
		return fmt.Errorf("--limit must be positive, got %d", historyFlags.limit)
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	t := table.New().Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return planCell })

	if historyFlags.run != "" {
		dels, err := store.Deletions(ctx, historyFlags.run)
		if err != nil {
			return err
		}
		t.Headers("HOSTNAME", "KEY FILE", "ARCHIVE", "OUTCOME", "ERROR")
		for _, d := range dels {
			t.Row(d.Hostname, d.KeyFile, d.Archive, d.Outcome, d.Error)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	}

	entries, err := store.Recent(ctx, historyFlags.limit)
	if err != nil {
		return err
	}
	t.Headers("STARTED", "RUN", "HOSTNAME", "KEY FILE", "KEPT", "PRUNED", "FAILED", "UNKNOWN", "DURATION", "ERROR")
	for _, e := range entries {
		pruned := strconv.Itoa(e.Pruned)
		if e.DryRun {
			pruned = "(" + pruned + ")"
		}
		t.Row(
			e.Started.Local().Format(time.DateTime),
			e.RunID,
			e.Hostname,
			e.KeyFile,
			strconv.Itoa(e.Kept),
			pruned,
			strconv.Itoa(e.Failed),
			strconv.Itoa(e.Unknown),
			e.Duration.Round(time.Millisecond).String(),
			e.Error,
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
