// Package worker runs the retention pass for machines: list their archives,
// compute the schedule, delete what it prunes and report the outcome.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/raoulx24/tarsnap-pruner/internal/archive"
	"github.com/raoulx24/tarsnap-pruner/internal/logging"
	"github.com/raoulx24/tarsnap-pruner/internal/machine"
	"github.com/raoulx24/tarsnap-pruner/internal/report"
	"github.com/raoulx24/tarsnap-pruner/internal/retention"
)

// Sink receives every machine report, e.g. metrics or the run history.
type Sink interface {
	Record(ctx context.Context, r report.Report) error
}

// Options configures a Worker.
type Options struct {
	Policy retention.Policy
	DryRun bool
	Clock  clock.Clock // nil means the wall clock
}

// Worker processes one machine per Handle call. It is safe for concurrent use.
type Worker struct {
	mu     sync.RWMutex
	policy retention.Policy
	dryRun bool

	clock clock.Clock
	log   logging.Logger
	sinks []Sink
}

// New creates a worker.
func New(opts Options, log logging.Logger, sinks ...Sink) *Worker {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Worker{
		policy: opts.Policy,
		dryRun: opts.DryRun,
		clock:  clk,
		log:    log,
		sinks:  sinks,
	}
}

// UpdateConfig swaps the retention policy for subsequent jobs.
func (w *Worker) UpdateConfig(policy retention.Policy) {
	w.mu.Lock()
	w.policy = policy
	w.mu.Unlock()
}

// Schedule lists a machine's archives and classifies them against today.
func (w *Worker) Schedule(ctx context.Context, m *machine.Machine) (*retention.Schedule, error) {
	w.mu.RLock()
	policy := w.policy
	w.mu.RUnlock()

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	archives, err := m.Archives(ctx)
	if err != nil {
		return nil, err
	}

	return retention.New(archives, policy, w.clock.Now())
}

// Handle runs one job and returns its report. Failures are carried in the
// report rather than returned.
func (w *Worker) Handle(ctx context.Context, job Job) report.Report {
	m := job.Machine
	w.mu.RLock()
	dryRun := w.dryRun
	w.mu.RUnlock()

	rep := report.Report{
		RunID:    job.RunID,
		Hostname: m.Hostname(),
		KeyFile:  m.KeyFile(),
		Started:  w.clock.Now(),
		DryRun:   dryRun,
	}
	log := w.log.With("hostname", rep.Hostname, "run", job.RunID)

	sched, err := w.Schedule(ctx, m)
	if err != nil {
		rep.Err = err
		return w.finish(ctx, log, rep)
	}

	rep.Daily = len(sched.Dailies())
	rep.Weekly = len(sched.Weeklies())
	rep.Monthly = len(sched.Monthlies())
	rep.Unknown = len(sched.Unknowns())
	rep.Kept = len(sched.ArchivesToKeep())

	toPrune := sched.ArchivesToPrune()
	log.Debug("schedule computed",
		"daily", rep.Daily, "weekly", rep.Weekly, "monthly", rep.Monthly,
		"unknown", rep.Unknown, "prune", len(toPrune))

	if dryRun {
		rep.Pruned = names(toPrune)
		return w.finish(ctx, log, rep)
	}

	res, err := m.Delete(ctx, toPrune)
	rep.Pruned = res.Deleted
	for _, f := range res.Failed {
		rep.Failed = append(rep.Failed, report.Failure{Archive: f.Archive, Error: f.Err.Error()})
	}
	rep.Err = err
	return w.finish(ctx, log, rep)
}

func (w *Worker) finish(ctx context.Context, log logging.Logger, rep report.Report) report.Report {
	rep.Duration = w.clock.Since(rep.Started)

	switch {
	case rep.Err != nil:
		log.Error("machine failed", "error", rep.Err)
	case len(rep.Failed) > 0:
		log.Warn("machine pruned with failures",
			"kept", rep.Kept, "pruned", len(rep.Pruned), "failed", len(rep.Failed), "unknown", rep.Unknown)
	default:
		log.Info("machine pruned",
			"kept", rep.Kept, "pruned", len(rep.Pruned), "failed", 0, "unknown", rep.Unknown, "dry_run", rep.DryRun)
	}

	// an interrupted run still reaches metrics and history
	sinkCtx := context.WithoutCancel(ctx)
	for _, s := range w.sinks {
		if err := s.Record(sinkCtx, rep); err != nil {
			log.Error("recording report", "sink", fmt.Sprintf("%T", s), "error", err)
		}
	}
	return rep
}

func names(as []archive.Archive) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.Name())
	}
	return out
}
