package impact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-asteroid-impact/internal/geocoding"
	"github.com/mr1hm/go-asteroid-impact/internal/metrics"
	"github.com/mr1hm/go-asteroid-impact/internal/models"
	"github.com/mr1hm/go-asteroid-impact/internal/physics"
	"github.com/mr1hm/go-asteroid-impact/internal/population"
)

const relTol = 1e-6

type fakeGeocoder struct {
	places     map[string]geocoding.Place
	forwardErr error
	reverse    geocoding.Place
	reverseErr error
	cities     []models.City
	citiesErr  error

	reverseCalls int
	radii        []float64
}

func (f *fakeGeocoder) Forward(ctx context.Context, address string) (geocoding.Place, error) {
	if f.forwardErr != nil {
		return geocoding.Place{}, f.forwardErr
	}
	return f.places[address], nil
}

func (f *fakeGeocoder) Reverse(ctx context.Context, lat, lon float64) (geocoding.Place, error) {
	f.reverseCalls++
	return f.reverse, f.reverseErr
}

func (f *fakeGeocoder) CitiesInRadius(ctx context.Context, lat, lon, radiusKm float64) ([]models.City, error) {
	f.radii = append(f.radii, radiusKm)
	return f.cities, f.citiesErr
}

type fakeCatalog map[string]models.AsteroidRecord

func (c fakeCatalog) Lookup(ctx context.Context, id string) (*models.AsteroidRecord, error) {
	rec, ok := c[id]
	if !ok {
		return nil, fmt.Errorf("asteroid %w", models.ErrNotFound)
	}
	return &rec, nil
}

func ptr(v float64) *float64 { return &v }

// 313.73 m and 701.52 m estimates average to 507.625 m.
var documentedAsteroid = models.AsteroidRecord{
	ID:                     "3542519",
	Name:                   "(2010 PK9)",
	DiameterMinM:           313.73,
	DiameterMaxM:           701.52,
	IsPotentiallyHazardous: true,
	CloseApproachData: []models.CloseApproach{
		{Date: "2026-10-20", VelocityKmS: 18.29, MissDistanceKm: 4.5e7},
		{Date: "2027-04-02", VelocityKmS: 11.2, MissDistanceKm: 6.1e7},
	},
}

var saoPaulo = models.ImpactLocation{Lat: -23.5505, Lon: -46.6333}

func newTestSimulator(g geocoding.Geocoder, opts Options, m *metrics.Metrics) *Simulator {
	engine := physics.NewEngine(physics.DefaultConstants())
	estimator := population.NewEstimator(population.GlobalAverageDensity, population.PolicyShockwave)
	catalog := fakeCatalog{documentedAsteroid.ID: documentedAsteroid}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSimulator(engine, estimator, g, catalog, opts, m, logger)
}

func TestSimulate_DirectParameters(t *testing.T) {
	m := metrics.NewForTesting()
	sim := newTestSimulator(nil, Options{}, m)

	res, err := sim.Simulate(context.Background(), Request{
		DiameterM:   ptr(250),
		VelocityKmS: ptr(20),
		Coordinates: &models.ImpactLocation{Lat: 0, Lon: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, 3000.0, res.Asteroid.DensityKgM3)
	assert.Equal(t, 45.0, res.Asteroid.ImpactAngleDegrees)
	assert.Equal(t, models.TargetLand, res.TargetType)
	assert.InEpsilon(t, 4.908739e18, res.Energy.Joules, relTol)
	assert.InEpsilon(t, 1173.216664, res.Energy.MegatonsTNT, relTol)
	assert.InEpsilon(t, 927.3601, res.Crater.DiameterM, relTol)
	assert.InEpsilon(t, 6.652950, res.Seismic.MagnitudeRichter, relTol)
	assert.InEpsilon(t, 8.447366, res.DamageZones.FireballRadiusKm, relTol)
	assert.Equal(t, int64(80011), res.Population.EstimatedPeopleAffected)
	assert.Equal(t, population.MethodSimplifiedAverage, res.Population.Method)

	assert.Equal(t, "Equivalent to 1173 megatons - extinction-level event", res.Comparisons.Energy)
	assert.Equal(t, "Larger than 10 city blocks", res.Comparisons.Crater)
	assert.Equal(t, "Severe damage across a wide area", res.Comparisons.Seismic)
	assert.Nil(t, res.AsteroidInfo)
	assert.Nil(t, res.NearbyCities)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Simulations.WithLabelValues("direct", "success")))
}

func TestSimulate_NASARecord(t *testing.T) {
	sim := newTestSimulator(nil, Options{}, nil)
	rec := documentedAsteroid

	res, err := sim.Simulate(context.Background(), Request{NASA: &rec, Coordinates: &saoPaulo})
	require.NoError(t, err)

	assert.InDelta(t, 507.625, res.Asteroid.DiameterM, 1e-9)
	assert.Equal(t, 18.29, res.Asteroid.VelocityKmS)
	assert.InEpsilon(t, 2.054702e11, res.MassKg, relTol)
	assert.InEpsilon(t, 8213.998590, res.Energy.MegatonsTNT, relTol)
	assert.InEpsilon(t, 1599.1816, res.Crater.DiameterM, relTol)
	assert.InEpsilon(t, 39.159129, res.DamageZones.ShockwaveRadiusKm, relTol)
	assert.Equal(t, int64(289046), res.Population.EstimatedPeopleAffected)
	require.NotNil(t, res.AsteroidInfo)
	assert.Equal(t, "3542519", res.AsteroidInfo.ID)
	assert.True(t, res.AsteroidInfo.IsPotentiallyHazardous)
}

func TestSimulate_DirectFieldsOverrideNASA(t *testing.T) {
	sim := newTestSimulator(nil, Options{}, nil)
	rec := documentedAsteroid

	res, err := sim.Simulate(context.Background(), Request{
		NASA:        &rec,
		DiameterM:   ptr(250),
		Coordinates: &saoPaulo,
	})
	require.NoError(t, err)

	assert.Equal(t, 250.0, res.Asteroid.DiameterM)
	assert.Equal(t, 18.29, res.Asteroid.VelocityKmS)
}

func TestSimulate_WaterTargetWidensCrater(t *testing.T) {
	sim := newTestSimulator(nil, Options{}, nil)
	rec := documentedAsteroid

	res, err := sim.Simulate(context.Background(), Request{NASA: &rec, Coordinates: &saoPaulo, TargetType: "water"})
	require.NoError(t, err)
	assert.InEpsilon(t, 2297.9882, res.Crater.DiameterM, relTol)
}

func TestSimulate_ValidationErrors(t *testing.T) {
	noApproach := documentedAsteroid
	noApproach.CloseApproachData = nil

	tests := []struct {
		name string
		req  Request
	}{
		{"negative diameter", Request{DiameterM: ptr(-5), VelocityKmS: ptr(20), Coordinates: &saoPaulo}},
		{"zero velocity", Request{DiameterM: ptr(100), VelocityKmS: ptr(0), Coordinates: &saoPaulo}},
		{"no asteroid source", Request{Coordinates: &saoPaulo}},
		{"missing velocity", Request{DiameterM: ptr(100), Coordinates: &saoPaulo}},
		{"missing location", Request{DiameterM: ptr(100), VelocityKmS: ptr(20)}},
		{"latitude out of range", Request{DiameterM: ptr(100), VelocityKmS: ptr(20), Coordinates: &models.ImpactLocation{Lat: 91}}},
		{"longitude out of range", Request{DiameterM: ptr(100), VelocityKmS: ptr(20), Coordinates: &models.ImpactLocation{Lon: -181}}},
		{"angle above 90", Request{DiameterM: ptr(100), VelocityKmS: ptr(20), ImpactAngle: ptr(120), Coordinates: &saoPaulo}},
		{"negative density", Request{DiameterM: ptr(100), VelocityKmS: ptr(20), DensityKgM3: ptr(-1), Coordinates: &saoPaulo}},
		{"unknown target", Request{DiameterM: ptr(100), VelocityKmS: ptr(20), TargetType: "lava", Coordinates: &saoPaulo}},
		{"nasa record without approach", Request{NASA: &noApproach, Coordinates: &saoPaulo}},
		{"NaN diameter", Request{DiameterM: ptr(math.NaN()), VelocityKmS: ptr(20), Coordinates: &saoPaulo}},
		{"infinite velocity", Request{DiameterM: ptr(100), VelocityKmS: ptr(math.Inf(1)), Coordinates: &saoPaulo}},
		{"NaN density", Request{DiameterM: ptr(100), VelocityKmS: ptr(20), DensityKgM3: ptr(math.NaN()), Coordinates: &saoPaulo}},
		{"NaN latitude", Request{DiameterM: ptr(100), VelocityKmS: ptr(20), Coordinates: &models.ImpactLocation{Lat: math.NaN()}}},
		{"mass overflows", Request{DiameterM: ptr(1e110), VelocityKmS: ptr(20), Coordinates: &saoPaulo}},
		{"energy overflows", Request{DiameterM: ptr(1e100), VelocityKmS: ptr(1e10), Coordinates: &saoPaulo}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.NewForTesting()
			sim := newTestSimulator(nil, Options{}, m)

			res, err := sim.Simulate(context.Background(), tt.req)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, models.ErrValidation)

			var ve *models.ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Simulations.WithLabelValues(string(tt.req.Source()), "invalid")))
		})
	}
}

func TestSimulate_OverflowIsNotAnInternalError(t *testing.T) {
	sim := newTestSimulator(nil, Options{}, metrics.NewForTesting())

	_, err := sim.Simulate(context.Background(), Request{
		DiameterM:   ptr(1e110),
		VelocityKmS: ptr(20),
		Coordinates: &saoPaulo,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.NotErrorIs(t, err, models.ErrInternalComputation)
}

func TestSimulate_PlanetSizedImpactorSaturatesPopulation(t *testing.T) {
	sim := newTestSimulator(nil, Options{}, metrics.NewForTesting())

	res, err := sim.Simulate(context.Background(), Request{
		DiameterM:   ptr(1e10),
		VelocityKmS: ptr(20),
		Coordinates: &models.ImpactLocation{Lat: 0, Lon: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), res.Population.EstimatedPeopleAffected)
	assert.Greater(t, res.Population.AffectedAreaKm2, 1e18)
}

func TestSimulate_CityName(t *testing.T) {
	geo := &fakeGeocoder{places: map[string]geocoding.Place{
		"São Paulo": {Lat: -23.5505, Lon: -46.6333, FormattedAddress: "São Paulo, SP, Brazil"},
	}}
	sim := newTestSimulator(geo, Options{}, nil)

	res, err := sim.Simulate(context.Background(), Request{DiameterM: ptr(100), VelocityKmS: ptr(20), Place: " São Paulo "})
	require.NoError(t, err)
	assert.Equal(t, -23.5505, res.Location.Lat)
	assert.Equal(t, "São Paulo, SP, Brazil", res.Location.PlaceName)
}

func TestSimulate_UnresolvableCity(t *testing.T) {
	tests := []struct {
		name string
		geo  geocoding.Geocoder
	}{
		{"no match", &fakeGeocoder{}},
		{"geocoder failure", &fakeGeocoder{forwardErr: errors.New("connection reset")}},
		{"no geocoder", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSimulator(tt.geo, Options{}, nil)

			res, err := sim.Simulate(context.Background(), Request{DiameterM: ptr(100), VelocityKmS: ptr(20), Place: "Atlantis"})
			assert.Nil(t, res)
			assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
		})
	}
}

func TestSimulate_Enrichment(t *testing.T) {
	geo := &fakeGeocoder{
		reverse: geocoding.Place{FormattedAddress: "São Paulo, Brazil"},
		cities: []models.City{
			{Name: "São Paulo", DistanceKm: 0},
			{Name: "Guarulhos", DistanceKm: 17.6},
		},
	}
	sim := newTestSimulator(geo, Options{EnrichMaxRadiusKm: 10}, nil)

	res, err := sim.Simulate(context.Background(), Request{DiameterM: ptr(250), VelocityKmS: ptr(20), Coordinates: &saoPaulo, Enrich: true})
	require.NoError(t, err)

	assert.Equal(t, "São Paulo, Brazil", res.Location.PlaceName)
	assert.Len(t, res.NearbyCities, 2)
	// Shockwave radius is ~20.6 km, capped to 10 km
	assert.Equal(t, []float64{10}, geo.radii)
}

func TestSimulate_EnrichmentKeepsGivenPlaceName(t *testing.T) {
	geo := &fakeGeocoder{reverse: geocoding.Place{FormattedAddress: "elsewhere"}}
	sim := newTestSimulator(geo, Options{}, nil)

	loc := models.ImpactLocation{Lat: 1, Lon: 2, PlaceName: "Ground zero"}
	res, err := sim.Simulate(context.Background(), Request{DiameterM: ptr(100), VelocityKmS: ptr(20), Coordinates: &loc, Enrich: true})
	require.NoError(t, err)
	assert.Equal(t, "Ground zero", res.Location.PlaceName)
	assert.Zero(t, geo.reverseCalls)
}

func TestSimulate_EnrichmentFailureDegrades(t *testing.T) {
	geo := &fakeGeocoder{
		reverseErr: models.Upstream("overpass", errors.New("504")),
		citiesErr:  models.Upstream("overpass", context.DeadlineExceeded),
	}
	m := metrics.NewForTesting()
	sim := newTestSimulator(geo, Options{EnrichTimeout: time.Second}, m)

	res, err := sim.Simulate(context.Background(), Request{DiameterM: ptr(250), VelocityKmS: ptr(20), Coordinates: &saoPaulo, Enrich: true})
	require.NoError(t, err)

	assert.Empty(t, res.Location.PlaceName)
	assert.Nil(t, res.NearbyCities)
	assert.InEpsilon(t, 1173.216664, res.Energy.MegatonsTNT, relTol)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EnrichmentFailures))
}

func TestSimulateAsteroid(t *testing.T) {
	sim := newTestSimulator(nil, Options{}, nil)

	res, err := sim.SimulateAsteroid(context.Background(), "3542519", Request{Coordinates: &saoPaulo})
	require.NoError(t, err)
	require.NotNil(t, res.AsteroidInfo)
	assert.Equal(t, "(2010 PK9)", res.AsteroidInfo.Name)
	assert.InEpsilon(t, 8213.998590, res.Energy.MegatonsTNT, relTol)
}

func TestSimulateAsteroid_NotFound(t *testing.T) {
	m := metrics.NewForTesting()
	sim := newTestSimulator(nil, Options{}, m)

	res, err := sim.SimulateAsteroid(context.Background(), "999", Request{Coordinates: &saoPaulo})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Simulations.WithLabelValues("nasa", "not_found")))
}

func TestSimulate_Deterministic(t *testing.T) {
	sim := newTestSimulator(nil, Options{}, nil)
	req := Request{DiameterM: ptr(340), VelocityKmS: ptr(12.6), Coordinates: &saoPaulo}

	first, err := sim.Simulate(context.Background(), req)
	require.NoError(t, err)
	second, err := sim.Simulate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
