// Package ingestion keeps the local asteroid cache warm by periodically
// pulling the NeoWs feed.
package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-asteroid-impact/internal/config"
	"github.com/mr1hm/go-asteroid-impact/internal/metrics"
	"github.com/mr1hm/go-asteroid-impact/internal/models"
	"github.com/mr1hm/go-asteroid-impact/internal/neows"
	"github.com/mr1hm/go-asteroid-impact/internal/repository"
	"github.com/mr1hm/go-asteroid-impact/internal/worker"
)

type FeedSource interface {
	Feed(ctx context.Context, start, end string) ([]models.AsteroidRecord, error)
}

type Manager struct {
	cfg     *config.Config
	source  FeedSource
	repo    repository.AsteroidRepository
	clock   clockwork.Clock
	metrics *metrics.Metrics
	pool    *worker.WorkerPool[models.AsteroidRecord]
	wg      sync.WaitGroup
}

func NewManager(cfg *config.Config, source FeedSource, repo repository.AsteroidRepository, clock clockwork.Clock, m *metrics.Metrics) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		cfg:     cfg,
		source:  source,
		repo:    repo,
		clock:   clock,
		metrics: m,
	}
}

func (m *Manager) Start(ctx context.Context) {
	processor := func(ctx context.Context, rec models.AsteroidRecord) error {
		exists, err := m.repo.Exists(ctx, rec.ID)
		if err != nil {
			slog.Error("error checking cached asteroid", "id", rec.ID, "error", err)
			return err
		}
		if err := m.repo.Upsert(ctx, &rec, m.clock.Now()); err != nil {
			slog.Error("error caching asteroid", "id", rec.ID, "error", err)
			return err
		}
		m.metrics.ObserveFeedRecord(!exists)
		if !exists {
			slog.Debug("cached new asteroid", "id", rec.ID, "name", rec.Name)
		}
		return nil
	}

	m.pool = worker.NewWorkerPool("feed-sync", m.cfg.Worker.Count, m.cfg.Worker.BufferSize, processor)
	m.pool.Start(ctx)

	if m.cfg.FeedSync.Enabled {
		m.wg.Add(1)
		go m.runPoller(ctx, m.cfg.FeedSync.Interval)
	}
}

func (m *Manager) runPoller(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting feed sync", "interval", interval, "days", m.cfg.FeedSync.Days)

	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	// Initial poll
	m.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("feed sync shutting down")
			return
		case <-ticker.Chan():
			m.poll(ctx)
		}
	}
}

// poll fetches today's window, queues every record for caching and drops
// entries older than the retention period.
func (m *Manager) poll(ctx context.Context) {
	now := m.clock.Now().UTC()
	start := now.Format(neows.DateLayout)
	end := now.AddDate(0, 0, m.cfg.FeedSync.Days).Format(neows.DateLayout)
	slog.Debug("polling feed", "start", start, "end", end)

	records, err := m.source.Feed(ctx, start, end)
	if err != nil {
		slog.Error("feed sync failed", "error", err)
		return
	}

	for _, rec := range records {
		if err := m.pool.Submit(ctx, rec); err != nil {
			slog.Warn("feed sync interrupted", "error", err)
			return
		}
	}

	if m.cfg.FeedSync.Retention > 0 {
		removed, err := m.repo.DeleteOlderThan(ctx, now.Add(-m.cfg.FeedSync.Retention))
		if err != nil {
			slog.Error("error pruning asteroid cache", "error", err)
		} else if removed > 0 {
			slog.Info("pruned asteroid cache", "removed", removed)
		}
	}

	slog.Debug("feed sync complete", "count", len(records))
}

func (m *Manager) Stop() {
	m.wg.Wait()
	m.pool.Stop()
	slog.Info("ingestion manager stopped")
}
