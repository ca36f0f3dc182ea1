package worker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/raoulx24/tarsnap-pruner/internal/config"
	"github.com/raoulx24/tarsnap-pruner/internal/fs"
	"github.com/raoulx24/tarsnap-pruner/internal/logging"
	"github.com/raoulx24/tarsnap-pruner/internal/machine"
	"github.com/raoulx24/tarsnap-pruner/internal/report"
	"github.com/raoulx24/tarsnap-pruner/internal/tarsnap"
)

// RunLoop pulls jobs from the queue until it is drained or ctx is done.
func RunLoop(ctx context.Context, w *Worker, q *Queue, done func(Job, report.Report)) {
	for {
		job, ok := q.Pop(ctx)
		if !ok {
			return
		}
		done(job, w.Handle(ctx, job))
	}
}

// RunAll processes machines with up to concurrency loops and returns one
// report per machine, in machine order. Machines left unprocessed because
// ctx ended get a report carrying the context error.
func (w *Worker) RunAll(ctx context.Context, runID string, machines []*machine.Machine, concurrency int) []report.Report {
	if concurrency < 1 {
		concurrency = 1
	}

	q := NewQueue(len(machines))
	for i, m := range machines {
		q.Push(Job{RunID: runID, Index: i, Machine: m})
	}
	q.Close()

	reports := make([]report.Report, len(machines))
	handled := make([]bool, len(machines))
	var mu sync.Mutex

	var g errgroup.Group
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			RunLoop(ctx, w, q, func(j Job, r report.Report) {
				mu.Lock()
				reports[j.Index] = r
				handled[j.Index] = true
				mu.Unlock()
			})
			return nil
		})
	}
	_ = g.Wait()

	for i, m := range machines {
		if !handled[i] {
			reports[i] = report.Report{RunID: runID, Hostname: m.Hostname(), KeyFile: m.KeyFile(), Err: ctx.Err()}
		}
	}
	return reports
}

// Runner discovers machines from the configuration and runs the worker over
// them. UpdateConfig may be called between runs.
type Runner struct {
	mu      sync.RWMutex
	cfg     *config.Config
	factory func(binary string) tarsnap.Factory
	fs      fs.FS
	worker  *Worker
	log     logging.Logger
}

// NewRunner creates a runner. A nil factory runs the real tarsnap binary.
func NewRunner(cfg *config.Config, w *Worker, filesystem fs.FS, factory func(binary string) tarsnap.Factory, log logging.Logger) *Runner {
	if factory == nil {
		factory = tarsnap.NewFactory
	}
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Runner{cfg: cfg, factory: factory, fs: filesystem, worker: w, log: log}
}

// UpdateConfig applies a reloaded configuration to the next run.
func (r *Runner) UpdateConfig(cfg *config.Config) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
	r.worker.UpdateConfig(cfg.Retention.Policy())
}

// Machines discovers the machines of the current configuration.
func (r *Runner) Machines() ([]*machine.Machine, error) {
	r.mu.RLock()
	cfg := r.cfg
	r.mu.RUnlock()

	return machine.Discover(r.fs, cfg.Keys.Directory, cfg.Keys.Pattern, cfg.Caches.Directory,
		r.factory(cfg.Tarsnap.Command), r.log)
}

// Run prunes every discovered machine under a fresh run ID.
func (r *Runner) Run(ctx context.Context) (string, []report.Report, error) {
	r.mu.RLock()
	concurrency := r.cfg.Concurrency
	r.mu.RUnlock()

	machines, err := r.Machines()
	if err != nil {
		return "", nil, err
	}

	runID := uuid.NewString()
	r.log.Info("run started", "run", runID, "machines", len(machines))
	reports := r.worker.RunAll(ctx, runID, machines, concurrency)
	r.log.Info("run finished", "run", runID)
	return runID, reports, nil
}
