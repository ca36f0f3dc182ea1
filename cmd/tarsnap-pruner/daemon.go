package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raoulx24/tarsnap-pruner/internal/config"
	"github.com/raoulx24/tarsnap-pruner/internal/daemon"
	"github.com/raoulx24/tarsnap-pruner/internal/history"
	"github.com/raoulx24/tarsnap-pruner/internal/metrics"
	"github.com/raoulx24/tarsnap-pruner/internal/report"
	"github.com/raoulx24/tarsnap-pruner/internal/watcher"
	"github.com/raoulx24/tarsnap-pruner/internal/worker"
)

var daemonFlags struct {
	runNow bool
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Prune on the configured cron schedule",
	Long: `Run in the foreground and prune every machine on schedule.cron.

The configuration is reloaded on SIGHUP and, when configReload.enabled is set,
whenever the config file changes. An invalid configuration is logged and the
previous one stays in effect. SIGINT or SIGTERM stops the daemon, cancelling a
run in progress.

Examples:
  tarsnap-pruner daemon --config /etc/tarsnap-pruner/config.yaml
  tarsnap-pruner daemon --run-now`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().BoolVar(&daemonFlags.runNow, "run-now", false, "run once immediately after start")
}

func runDaemon(cmd *cobra.Command, args []string) error {
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

	w := worker.New(worker.Options{Policy: cfg.Retention.Policy()}, logger, sinks...)
	runner := worker.NewRunner(cfg, w, nil, nil, logger)

	var watch *watcher.Watcher
	textfile := cfg.Metrics.Textfile

	d, err := daemon.New(runner, daemon.Options{
		Cron: cfg.Schedule.Cron,
		Load: loadConfig,
		AfterRun: func(_ string, _ []report.Report, _ error) {
			if textfile == "" {
				return
			}
			if err := collector.WriteTextfile(textfile); err != nil {
				logger.Error("writing metrics textfile", "path", textfile, "error", err)
			}
		},
		OnReload: func(next *config.Config) {
			if watch != nil {
				watch.UpdateConfig(next.ConfigReload)
			}
		},
	}, logger)
	if err != nil {
		return err
	}

	// metrics and history settings only change on restart
	if cfgFile != "" && cfg.ConfigReload.Enabled {
		watch = watcher.New(cfgFile, cfg.ConfigReload, logger, func() {
			logger.Info("config file changed, reloading")
			_ = d.Reload()
		})
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return d.Run(ctx) })
	if watch != nil {
		g.Go(func() error { return watch.Start(ctx) })
	}

	// Hot reload on SIGHUP
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hup:
				logger.Info("SIGHUP received, reloading config")
				_ = d.Reload()
			}
		}
	})

	if cfg.Metrics.Listen != "" {
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: metricsMux(collector), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("metrics listening", "addr", cfg.Metrics.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if daemonFlags.runNow {
		d.Trigger("startup")
	}

	return g.Wait()
}

func metricsMux(c *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
