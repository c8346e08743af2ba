package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/internal/api"
	"github.com/wonny/fundlens/internal/api/handlers"
	"github.com/wonny/fundlens/internal/scheduler"
	"github.com/wonny/fundlens/internal/scheduler/jobs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the JSON API and, when REFRESH_CRON is set, the background
scheduler that re-runs the analysis pipeline periodically.

Endpoints:
  GET    /health
  GET    /api/instruments
  POST   /api/instruments
  DELETE /api/instruments/{id}
  GET    /api/instruments/{id}/history
  GET    /api/comparison
  POST   /api/refresh`,
	RunE: runServe,
}

var serveNoRefresh bool

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveNoRefresh, "no-refresh", false, "skip the initial data refresh")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !serveNoRefresh {
		a.log.Info("running initial refresh")
		if err := a.service.Refresh(ctx); err != nil {
			a.log.WithError(err).Warn("initial refresh failed, serving without results")
		}
	}

	handler := handlers.NewInstrumentHandler(a.service, a.describer, a.log)
	server := api.New(a.cfg.API, a.log, api.NewRouter(handler, a.log))

	var sched *scheduler.Scheduler
	if a.cfg.Scheduler.RefreshCron != "" {
		sched = scheduler.New(a.log)
		if err := sched.AddJob(jobs.NewRefreshJob(a.service, a.cfg.Scheduler.RefreshCron, a.log)); err != nil {
			return err
		}
		if err := sched.AddJob(jobs.NewCacheStatsJob(a.store, a.log)); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("fundlens API listening on http://%s:%s\n", a.cfg.API.Host, a.cfg.API.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
