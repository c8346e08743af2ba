// Package jobs holds the scheduled jobs wired into the scheduler.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fundlens/internal/cache"
	"github.com/wonny/fundlens/internal/pipeline"
	"github.com/wonny/fundlens/pkg/logger"
)

// RefreshJob re-runs the analysis pipeline over the registered instruments.
type RefreshJob struct {
	service  *pipeline.Service
	schedule string
	logger   *logger.Logger
}

// NewRefreshJob creates the refresh job. An empty schedule defaults to a
// daily run at 18:00, after European market close.
func NewRefreshJob(svc *pipeline.Service, schedule string, log *logger.Logger) *RefreshJob {
	if schedule == "" {
		schedule = "0 0 18 * * *"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RefreshJob{service: svc, schedule: schedule, logger: log}
}

func (j *RefreshJob) Name() string { return "refresh" }

func (j *RefreshJob) Schedule() string { return j.schedule }

func (j *RefreshJob) Run(ctx context.Context) error {
	j.logger.Info("starting scheduled refresh")

	if err := j.service.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	j.logger.Info("scheduled refresh completed")
	return nil
}

// CacheStatsJob reports cache size and staleness nightly, so a cache that
// stops being written to shows up in the logs before it shows up as slow
// mornings. Expired entries already read as misses; wiping is left to the
// explicit purge command.
type CacheStatsJob struct {
	store  cache.Store
	logger *logger.Logger
}

func NewCacheStatsJob(store cache.Store, log *logger.Logger) *CacheStatsJob {
	if log == nil {
		log = logger.Nop()
	}
	return &CacheStatsJob{store: store, logger: log}
}

func (j *CacheStatsJob) Name() string { return "cache_stats" }

// Schedule runs nightly, before the refresh.
func (j *CacheStatsJob) Schedule() string { return "0 30 3 * * *" }

func (j *CacheStatsJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	stats, err := j.store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"entries": stats.Entries,
		"expired": stats.Expired,
		"bytes":   stats.Bytes,
	}).Info("cache stats")
	return nil
}
