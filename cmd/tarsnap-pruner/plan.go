package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/raoulx24/tarsnap-pruner/internal/archive"
	"github.com/raoulx24/tarsnap-pruner/internal/machine"
	"github.com/raoulx24/tarsnap-pruner/internal/retention"
	"github.com/raoulx24/tarsnap-pruner/internal/worker"
)

var planFlags struct {
	machine string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the tier and fate of every archive",
	Long: `List every archive of every machine with its retention tier and whether the
next run keeps or prunes it. Nothing is deleted.

Examples:
  tarsnap-pruner plan
  tarsnap-pruner plan --machine web01`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVarP(&planFlags.machine, "machine", "m", "", "only show the machine with this hostname")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	w := worker.New(worker.Options{Policy: cfg.Retention.Policy(), DryRun: true}, logger)
	runner := worker.NewRunner(cfg, w, nil, nil, logger)

	machines, err := runner.Machines()
	if err != nil {
		return err
	}
	if planFlags.machine != "" {
		machines = slices.DeleteFunc(machines, func(m *machine.Machine) bool {
			return m.Hostname() != planFlags.machine
		})
		if len(machines) == 0 {
			return fmt.Errorf("no machine named %q", planFlags.machine)
		}
	}

	out := cmd.OutOrStdout()
	for _, m := range machines {
		sched, err := w.Schedule(cmd.Context(), m)
		if err != nil {
			return err
		}
		writePlan(out, m.Hostname(), sched)
	}
	return nil
}

var (
	planTitle = lipgloss.NewStyle().Bold(true)
	planCell  = lipgloss.NewStyle().Padding(0, 1)
	pruneCell = planCell.Foreground(lipgloss.Color("9"))
)

// writePlan prints the archives oldest first, then the undated ones.
func writePlan(out io.Writer, hostname string, s *retention.Schedule) {
	all := append(s.Knowns(), s.Unknowns()...)
	rows := make([][]string, 0, len(all))
	for _, a := range all {
		rows = append(rows, []string{a.Name(), string(s.Tier(a)), action(s, a)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ARCHIVE", "TIER", "ACTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row >= 0 && row < len(rows) && rows[row][2] == "prune" {
				return pruneCell
			}
			return planCell
		})

	fmt.Fprintln(out, planTitle.Render(fmt.Sprintf("%s: %d kept, %d to prune (daily < %d days, weekly < %d days)",
		hostname, len(s.ArchivesToKeep()), len(s.ArchivesToPrune()),
		s.Policy().DailyBoundary, s.Policy().WeeklyBoundary)))
	fmt.Fprintln(out, t.Render())
}

func action(s *retention.Schedule, a archive.Archive) string {
	if s.Keeps(a) {
		return "keep"
	}
	return "prune"
}
