package impact

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/mr1hm/go-asteroid-impact/internal/geocoding"
	"github.com/mr1hm/go-asteroid-impact/internal/metrics"
	"github.com/mr1hm/go-asteroid-impact/internal/models"
	"github.com/mr1hm/go-asteroid-impact/internal/physics"
	"github.com/mr1hm/go-asteroid-impact/internal/population"
)

// Catalog supplies asteroid records by id, normally *catalog.Catalog.
type Catalog interface {
	Lookup(ctx context.Context, id string) (*models.AsteroidRecord, error)
}

type Options struct {
	GeocodeTimeout    time.Duration
	EnrichTimeout     time.Duration
	EnrichMaxRadiusKm float64
}

const (
	defaultEnrichTimeout     = 15 * time.Second
	defaultEnrichMaxRadiusKm = 500.0
)

// Simulator runs the end-to-end impact assessment. It holds no per-request
// state and is safe for concurrent use.
type Simulator struct {
	engine     physics.Engine
	estimator  *population.Estimator
	normalizer *Normalizer
	geocoder   geocoding.Geocoder
	catalog    Catalog
	opts       Options
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewSimulator wires the pipeline. geocoder and catalog may be nil, which
// disables place lookups, enrichment and SimulateAsteroid respectively.
func NewSimulator(engine physics.Engine, estimator *population.Estimator, geocoder geocoding.Geocoder, catalog Catalog, opts Options, m *metrics.Metrics, logger *slog.Logger) *Simulator {
	if opts.EnrichTimeout <= 0 {
		opts.EnrichTimeout = defaultEnrichTimeout
	}
	if opts.EnrichMaxRadiusKm <= 0 {
		opts.EnrichMaxRadiusKm = defaultEnrichMaxRadiusKm
	}
	return &Simulator{
		engine:     engine,
		estimator:  estimator,
		normalizer: NewNormalizer(geocoder, opts.GeocodeTimeout),
		geocoder:   geocoder,
		catalog:    catalog,
		opts:       opts,
		metrics:    m,
		logger:     logger,
	}
}

// Simulate normalizes the request and computes every impact effect. Any
// failing step aborts the run; enrichment failures only drop the enrichment.
func (s *Simulator) Simulate(ctx context.Context, req Request) (*models.SimulationResult, error) {
	result, err := s.simulate(ctx, req)
	if err != nil {
		s.metrics.ObserveSimulation(string(req.Source()), outcome(err), 0)
		return nil, err
	}
	s.metrics.ObserveSimulation(string(req.Source()), "success", result.Energy.MegatonsTNT)
	return result, nil
}

// SimulateAsteroid looks the asteroid up in the catalog and simulates it.
// Direct fields in req still override the catalog values.
func (s *Simulator) SimulateAsteroid(ctx context.Context, id string, req Request) (*models.SimulationResult, error) {
	if s.catalog == nil {
		return nil, models.Upstream("catalog", errors.New("no asteroid catalog configured"))
	}
	rec, err := s.catalog.Lookup(ctx, id)
	if err != nil {
		s.metrics.ObserveSimulation(string(SourceNASA), outcome(err), 0)
		return nil, err
	}

	req.NASA = rec
	result, err := s.Simulate(ctx, req)
	if err != nil {
		return nil, err
	}
	result.AsteroidInfo = rec.Info()
	return result, nil
}

func (s *Simulator) simulate(ctx context.Context, req Request) (*models.SimulationResult, error) {
	n, err := s.normalizer.Normalize(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := s.engine.Compute(n.Params, n.Target)
	if err != nil {
		return nil, err
	}

	result := &models.SimulationResult{
		Asteroid:    n.Params,
		MassKg:      out.MassKg,
		Location:    n.Location,
		TargetType:  n.Target,
		Energy:      out.Energy,
		Crater:      out.Crater,
		Seismic:     out.Seismic,
		DamageZones: out.DamageZones,
		Population:  s.estimator.Estimate(out.DamageZones),
		Comparisons: Describe(out.Energy, out.Crater, out.Seismic),
	}
	if req.NASA != nil {
		result.AsteroidInfo = req.NASA.Info()
	}

	if req.Enrich {
		s.enrich(ctx, result)
	}

	s.logger.Debug("simulation complete",
		"source", n.Source,
		"diameter_m", n.Params.DiameterM,
		"velocity_km_s", n.Params.VelocityKmS,
		"megatons", out.Energy.MegatonsTNT,
		"lat", n.Location.Lat,
		"lon", n.Location.Lon,
	)
	return result, nil
}

// enrich adds the place name and nearby cities. It never fails the
// simulation; each lookup that errors is logged and skipped.
func (s *Simulator) enrich(ctx context.Context, result *models.SimulationResult) {
	if s.geocoder == nil {
		return
	}

	ectx, cancel := context.WithTimeout(ctx, s.opts.EnrichTimeout)
	defer cancel()

	lat, lon := result.Location.Lat, result.Location.Lon

	if result.Location.PlaceName == "" {
		p, err := s.geocoder.Reverse(ectx, lat, lon)
		switch {
		case err != nil:
			s.enrichmentFailed("reverse", err)
		case p.Found():
			result.Location.PlaceName = p.FormattedAddress
		}
	}

	radius := math.Min(s.estimator.BoundingRadius(result.DamageZones), s.opts.EnrichMaxRadiusKm)
	if radius <= 0 {
		return
	}
	cities, err := s.geocoder.CitiesInRadius(ectx, lat, lon, radius)
	if err != nil {
		s.enrichmentFailed("cities", err)
		return
	}
	result.NearbyCities = cities
}

func (s *Simulator) enrichmentFailed(step string, err error) {
	s.metrics.IncEnrichmentFailure()
	s.logger.Warn("enrichment failed", "step", step, "error", err)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return "upstream_error"
	default:
		return "error"
	}
}
