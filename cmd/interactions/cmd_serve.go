package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alem-hub/interaction-hub/internal/infrastructure/scheduler"
	"github.com/alem-hub/interaction-hub/internal/infrastructure/scheduler/jobs"
	opshttp "github.com/alem-hub/interaction-hub/internal/interface/http"
	"github.com/alem-hub/interaction-hub/pkg/logger"
)

// jobStatus is the /status view of one scheduled job.
type jobStatus struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	Enabled   bool      `json:"enabled"`
	LastRun   time.Time `json:"last_run,omitzero"`
	NextRun   time.Time `json:"next_run"`
	RunCount  int64     `json:"run_count"`
	FailCount int64     `json:"fail_count"`
	LastError string    `json:"last_error,omitempty"`
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadedApp(ctx, appOptions{connectSinks: true, liveClock: true})
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.newScheduler()
	if err != nil {
		return err
	}

	// Fill the gauges before the first scrape.
	if _, err := sched.RunNow(ctx, jobs.RefreshStoreMetricsJobName); err != nil {
		a.log.Warn("initial metrics refresh failed", logger.Err(err))
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}

	var serverErr <-chan error
	var server *opshttp.Server
	if a.cfg.Observability.MetricsEnabled {
		serverCfg := opshttp.DefaultConfig()
		serverCfg.Addr = a.cfg.Observability.MetricsAddr
		server = opshttp.NewServer(serverCfg, opshttp.Dependencies{
			Gatherer: a.registry,
			Health:   a.health,
			Status: func(context.Context) any {
				st := a.status()
				st["jobs"] = jobStatuses(sched.ListJobs())
				return st
			},
			Logger: a.log,
		})
		serverErr = server.StartAsync()
	}

	a.log.Info("interaction hub is running",
		logger.Int("records", a.store.Len()),
		logger.Duration("publish_every", servePublishEvery),
		logger.Bool("ops_server", server != nil),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("received shutdown signal")
	case err, ok := <-serverErr:
		if ok && err != nil {
			runErr = err
		}
	}

	return errors.Join(runErr, a.shutdown(sched, server))
}

// newScheduler registers the periodic jobs and reports their runs to the
// metrics collector.
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	cfg := scheduler.DefaultConfig()
	cfg.Logger = a.log

	sched := scheduler.New(cfg)
	sched.OnJobComplete(func(r scheduler.JobResult) {
		a.collector.ObserveJob(r.JobName, r.Duration, r.Error)
	})

	if err := sched.Register(
		jobs.NewPublishProjectionsJob(a.publisher, servePublishWait, a.log),
		scheduler.NewIntervalSchedule(servePublishEvery),
	); err != nil {
		return nil, err
	}
	if err := sched.Register(
		jobs.NewRefreshStoreMetricsJob(a.store, a.collector),
		scheduler.NewIntervalSchedule(serveMetricsEvery),
	); err != nil {
		return nil, err
	}
	return sched, nil
}

// shutdown stops the scheduler and the ops server, then flushes pending
// changes to the sinks within the configured shutdown timeout.
func (a *app) shutdown(sched *scheduler.Scheduler, server *opshttp.Server) error {
	a.log.Info("starting graceful shutdown...", logger.Duration("timeout", a.cfg.App.ShutdownTimeout))

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
		errs = append(errs, err)
	}
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := a.publisher.Publish(ctx, false); err != nil {
		a.log.Warn("final publish failed", logger.Err(err))
	}

	a.log.Info("shutdown completed")
	return errors.Join(errs...)
}

func jobStatuses(infos []scheduler.JobInfo) []jobStatus {
	out := make([]jobStatus, 0, len(infos))
	for _, info := range infos {
		js := jobStatus{
			Name:      info.Name,
			Schedule:  info.Schedule,
			Enabled:   info.Enabled,
			LastRun:   info.LastRun,
			NextRun:   info.NextRun,
			RunCount:  info.RunCount,
			FailCount: info.FailCount,
		}
		if info.LastResult != nil && info.LastResult.Error != nil {
			js.LastError = info.LastResult.Error.Error()
		}
		out = append(out, js)
	}
	return out
}
