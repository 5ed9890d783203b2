package repository

import (
	"context"
	"time"

	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

// Filter selects asteroids by hazard flag and close-approach window. The
// window bounds are inclusive YYYY-MM-DD dates; an empty bound is open.
type Filter struct {
	ApproachFrom  string
	ApproachTo    string
	HazardousOnly bool
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec *models.AsteroidRecord) bool {
	if f.HazardousOnly && !rec.IsPotentiallyHazardous {
		return false
	}
	_, ok := f.firstApproach(rec)
	return ok
}

// firstApproach returns the earliest close-approach date inside the window.
func (f Filter) firstApproach(rec *models.AsteroidRecord) (string, bool) {
	if f.ApproachFrom == "" && f.ApproachTo == "" {
		return "", true
	}
	first := ""
	for _, ca := range rec.CloseApproachData {
		if f.ApproachFrom != "" && ca.Date < f.ApproachFrom {
			continue
		}
		if f.ApproachTo != "" && ca.Date > f.ApproachTo {
			continue
		}
		if first == "" || ca.Date < first {
			first = ca.Date
		}
	}
	return first, first != ""
}

// CachedAsteroid is a catalog record plus the time it was fetched upstream.
type CachedAsteroid struct {
	Record    models.AsteroidRecord
	FetchedAt time.Time
}

// AsteroidRepository caches NeoWs catalog records. Simulation results are
// never stored.
type AsteroidRepository interface {
	Upsert(ctx context.Context, rec *models.AsteroidRecord, fetchedAt time.Time) error
	GetByID(ctx context.Context, id string) (*CachedAsteroid, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, opts Filter) ([]models.AsteroidRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
