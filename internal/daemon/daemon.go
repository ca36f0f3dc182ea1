// Package daemon keeps the pruner running: it fires runs on a cron schedule,
// coalesces triggers through a single-slot mailbox and applies configuration
// reloads between runs.
package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/tarsnap-pruner/internal/config"
	"github.com/raoulx24/tarsnap-pruner/internal/logging"
	"github.com/raoulx24/tarsnap-pruner/internal/mailbox"
	"github.com/raoulx24/tarsnap-pruner/internal/report"
	"github.com/raoulx24/tarsnap-pruner/internal/worker"
)

// Trigger asks for one run. Triggers that arrive while a run is in progress
// collapse into a single follow-up run.
type Trigger struct {
	Reason string
	At     time.Time
}

// Options configures a Daemon.
type Options struct {
	// Cron is the standard 5-field schedule (descriptors like @daily work too).
	Cron string

	// Load reads and validates the configuration for Reload.
	Load func() (*config.Config, error)

	// AfterRun is called after every run, e.g. to write the metrics textfile.
	AfterRun func(runID string, reports []report.Report, err error)

	// OnReload is called with every configuration Reload accepted.
	OnReload func(cfg *config.Config)
}

// Daemon runs the Runner whenever a trigger lands in its mailbox.
type Daemon struct {
	mu    sync.Mutex
	cron  *cron.Cron
	entry cron.EntryID
	spec  string

	runner *worker.Runner
	box    *mailbox.Mailbox[Trigger]
	opts   Options
	log    logging.Logger
}

// New creates a daemon and registers its schedule. The cron is not started
// until Run.
func New(runner *worker.Runner, opts Options, log logging.Logger) (*Daemon, error) {
	d := &Daemon{
		cron:   cron.New(),
		runner: runner,
		box:    mailbox.New[Trigger](),
		opts:   opts,
		log:    log,
	}
	if err := d.Reschedule(opts.Cron); err != nil {
		return nil, err
	}
	return d, nil
}

// Trigger queues a run. It never blocks.
func (d *Daemon) Trigger(reason string) {
	d.box.Put(Trigger{Reason: reason, At: time.Now()})
}

// Reschedule replaces the cron schedule. An invalid spec leaves the current
// schedule in place.
func (d *Daemon) Reschedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if spec == d.spec && d.entry != 0 {
		return nil
	}
	id, err := d.cron.AddFunc(spec, func() { d.Trigger("schedule") })
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	if d.entry != 0 {
		d.cron.Remove(d.entry)
	}
	d.entry = id
	d.spec = spec
	d.log.Info("schedule set", "cron", spec)
	return nil
}

// Next returns when the schedule fires next. It is zero before Run.
func (d *Daemon) Next() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cron.Entry(d.entry).Next
}

// Reload loads the configuration and applies it to the schedule and the runner.
// A configuration that fails to load or validate is logged and ignored.
func (d *Daemon) Reload() error {
	if d.opts.Load == nil {
		return nil
	}
	cfg, err := d.opts.Load()
	if err != nil {
		d.log.Error("config reload failed, keeping current config", "error", err)
		return err
	}
	if err := d.Reschedule(cfg.Schedule.Cron); err != nil {
		d.log.Error("config reload failed, keeping current config", "error", err)
		return err
	}

	d.runner.UpdateConfig(cfg)
	if d.opts.OnReload != nil {
		d.opts.OnReload(cfg)
	}
	d.log.Info("config reloaded", "cron", cfg.Schedule.Cron, "policy", cfg.Retention.Policy())
	return nil
}

// Run starts the schedule and serves triggers one at a time until ctx is done.
// A run in progress when ctx ends is cancelled through ctx.
func (d *Daemon) Run(ctx context.Context) error {
	d.cron.Start()
	defer func() { <-d.cron.Stop().Done() }()

	d.log.Info("daemon started", "next", d.Next())
	for {
		t, ok := d.box.Take(ctx)
		if !ok {
			d.log.Info("daemon stopped")
			return nil
		}
		d.runOnce(ctx, t)
	}
}

func (d *Daemon) runOnce(ctx context.Context, t Trigger) {
	log := d.log.With("reason", t.Reason)
	log.Debug("run triggered", "at", t.At)

	runID, reports, err := d.runner.Run(ctx)
	if err != nil {
		log.Error("run failed", "error", err)
	} else {
		failed := 0
		for _, r := range reports {
			if !r.OK() {
				failed++
			}
		}
		log.Info("run complete", "run", runID, "machines", len(reports), "failed", failed, "next", d.Next())
	}

	if d.opts.AfterRun != nil {
		d.opts.AfterRun(runID, reports, err)
	}
}
