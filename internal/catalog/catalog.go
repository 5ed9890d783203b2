// Package catalog serves asteroid records from the local sqlite cache,
// falling back to NeoWs when a record is missing or stale.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-asteroid-impact/internal/metrics"
	"github.com/mr1hm/go-asteroid-impact/internal/models"
	"github.com/mr1hm/go-asteroid-impact/internal/repository"
)

const cacheName = "asteroids"

// Source is the upstream asteroid catalog, normally *neows.Client.
type Source interface {
	FeedWindow(start, end string) (string, string, error)
	Feed(ctx context.Context, start, end string) ([]models.AsteroidRecord, error)
	Lookup(ctx context.Context, id string) (*models.AsteroidRecord, error)
}

type Catalog struct {
	source  Source
	repo    repository.AsteroidRepository
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds a read-through catalog. A nil repo disables caching.
func New(source Source, repo repository.AsteroidRepository, ttl time.Duration, clock clockwork.Clock, m *metrics.Metrics, logger *slog.Logger) *Catalog {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Catalog{
		source:  source,
		repo:    repo,
		ttl:     ttl,
		clock:   clock,
		metrics: m,
		logger:  logger,
	}
}

// Lookup returns a cached record younger than the TTL, otherwise asks the
// source and refreshes the cache. When the source is down a stale cached
// copy is served instead of failing.
func (c *Catalog) Lookup(ctx context.Context, id string) (*models.AsteroidRecord, error) {
	if id == "" {
		return nil, models.NewValidationError("id", "is required")
	}

	var cached *repository.CachedAsteroid
	if c.repo != nil {
		var err error
		cached, err = c.repo.GetByID(ctx, id)
		if err != nil {
			c.logger.Warn("asteroid cache read failed", "id", id, "error", err)
		}
		if cached != nil && c.clock.Since(cached.FetchedAt) < c.ttl {
			c.metrics.ObserveCache(cacheName, true)
			return &cached.Record, nil
		}
		c.metrics.ObserveCache(cacheName, false)
	}

	rec, err := c.source.Lookup(ctx, id)
	if err != nil {
		if cached != nil && errors.Is(err, models.ErrUpstreamUnavailable) {
			c.logger.Warn("serving stale asteroid record", "id", id, "fetched_at", cached.FetchedAt, "error", err)
			return &cached.Record, nil
		}
		return nil, err
	}

	c.store(ctx, rec)
	return rec, nil
}

// Feed asks the source for the filter's approach window and writes every
// returned record through to the cache before applying the hazard filter.
// When the source is down the listing is rebuilt from cached records, and
// the upstream error is returned only if nothing cached matches.
func (c *Catalog) Feed(ctx context.Context, f repository.Filter) ([]models.AsteroidRecord, error) {
	start, end, err := c.source.FeedWindow(f.ApproachFrom, f.ApproachTo)
	if err != nil {
		return nil, err
	}
	f.ApproachFrom, f.ApproachTo = start, end

	records, err := c.source.Feed(ctx, start, end)
	if err != nil {
		if c.repo != nil && errors.Is(err, models.ErrUpstreamUnavailable) {
			return c.cachedFeed(ctx, f, err)
		}
		return nil, err
	}

	var matched []models.AsteroidRecord
	for i := range records {
		c.store(ctx, &records[i])
		if f.Match(&records[i]) {
			matched = append(matched, records[i])
		}
	}
	return matched, nil
}

func (c *Catalog) cachedFeed(ctx context.Context, f repository.Filter, upstreamErr error) ([]models.AsteroidRecord, error) {
	records, err := c.repo.List(ctx, f)
	if err != nil {
		c.logger.Warn("asteroid cache list failed", "error", err)
		return nil, upstreamErr
	}
	if len(records) == 0 {
		return nil, upstreamErr
	}
	c.logger.Warn("serving cached asteroid feed", "start", f.ApproachFrom, "end", f.ApproachTo, "count", len(records), "error", upstreamErr)
	return records, nil
}

func (c *Catalog) store(ctx context.Context, rec *models.AsteroidRecord) {
	if c.repo == nil {
		return
	}
	if err := c.repo.Upsert(ctx, rec, c.clock.Now()); err != nil {
		c.logger.Warn("asteroid cache write failed", "id", rec.ID, "error", err)
	}
}
