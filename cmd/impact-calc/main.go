// Command impact-calc runs a single impact simulation from the command line
// and prints the same JSON the HTTP API returns.
//
// Usage:
//
//	go run ./cmd/impact-calc -diameter 250 -velocity 20 -lat -23.55 -lon -46.63
//	go run ./cmd/impact-calc -asteroid 3542519 -city "São Paulo" -enrich
//
// Only -city, -asteroid and -enrich reach the network; their endpoints are
// read from the same environment as the API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mr1hm/go-asteroid-impact/internal/api"
	"github.com/mr1hm/go-asteroid-impact/internal/catalog"
	"github.com/mr1hm/go-asteroid-impact/internal/config"
	"github.com/mr1hm/go-asteroid-impact/internal/geocoding"
	"github.com/mr1hm/go-asteroid-impact/internal/impact"
	"github.com/mr1hm/go-asteroid-impact/internal/logging"
	"github.com/mr1hm/go-asteroid-impact/internal/models"
	"github.com/mr1hm/go-asteroid-impact/internal/neows"
	"github.com/mr1hm/go-asteroid-impact/internal/physics"
	"github.com/mr1hm/go-asteroid-impact/internal/population"
)

func main() {
	_ = godotenv.Load()

	req, asteroidID, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "usage: %v\n", err)
		os.Exit(2)
	}

	os.Exit(run(req, asteroidID))
}

// parseArgs maps command-line flags onto a simulation request. Only flags
// given explicitly become overrides, so a missing location stays missing
// and is rejected by the normalizer.
func parseArgs(args []string) (impact.Request, string, error) {
	fs := flag.NewFlagSet("impact-calc", flag.ContinueOnError)
	diameter := fs.Float64("diameter", 0, "asteroid diameter in metres")
	velocity := fs.Float64("velocity", 0, "impact velocity in km/s")
	density := fs.Float64("density", models.DefaultDensityKgM3, "asteroid density in kg/m³")
	angle := fs.Float64("angle", models.DefaultImpactAngleDeg, "impact angle in degrees (0-90)")
	target := fs.String("target", string(models.TargetLand), "target surface: land or water")
	lat := fs.Float64("lat", 0, "impact latitude")
	lon := fs.Float64("lon", 0, "impact longitude")
	city := fs.String("city", "", "geocode the impact point from a city name")
	asteroid := fs.String("asteroid", "", "NeoWs asteroid id to simulate")
	enrich := fs.Bool("enrich", false, "look up the place name and nearby cities")
	if err := fs.Parse(args); err != nil {
		return impact.Request{}, "", err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["lat"] != set["lon"] {
		return impact.Request{}, "", errors.New("-lat and -lon must be given together")
	}

	req := impact.Request{
		DensityKgM3: density,
		ImpactAngle: angle,
		TargetType:  *target,
		Place:       *city,
		Enrich:      *enrich,
	}
	if set["diameter"] {
		req.DiameterM = diameter
	}
	if set["velocity"] {
		req.VelocityKmS = velocity
	}
	if set["lat"] && set["lon"] {
		req.Coordinates = &models.ImpactLocation{Lat: *lat, Lon: *lon}
	}
	return req, *asteroid, nil
}

func run(req impact.Request, asteroidID string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	logger := logging.New(os.Stderr, cfg.Logging.Level, "text")

	policy, err := population.ParsePolicy(cfg.Simulation.PopulationPolicy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	var geo geocoding.Geocoder
	if req.Place != "" || req.Enrich {
		geo = geocoding.NewService(
			geocoding.NewDistanceMatrixClient(cfg.Geocoding.DistanceMatrixURL, cfg.Geocoding.DistanceMatrixKey, cfg.Geocoding.Timeout, nil, logger),
			geocoding.NewOverpassClient(cfg.Geocoding.OverpassURL, cfg.Geocoding.OverpassTimeout, nil, logger),
			logger,
		)
	}

	var asteroids impact.Catalog
	if asteroidID != "" {
		nasa := neows.NewClient(cfg.NASA.BaseURL, cfg.NASA.APIKey, cfg.NASA.Timeout, nil, nil, logger)
		asteroids = catalog.New(nasa, nil, 0, nil, nil, logger)
	}

	sim := impact.NewSimulator(
		physics.NewEngine(physics.DefaultConstants()),
		population.NewEstimator(cfg.Simulation.PopulationDensity, policy),
		geo,
		asteroids,
		impact.Options{
			GeocodeTimeout:    cfg.Geocoding.Timeout,
			EnrichTimeout:     cfg.Simulation.EnrichTimeout,
			EnrichMaxRadiusKm: cfg.Simulation.EnrichMaxRadiusKm,
		},
		nil,
		logger,
	)

	ctx := context.Background()
	var res *models.SimulationResult
	if asteroidID != "" {
		res, err = sim.SimulateAsteroid(ctx, asteroidID, req)
	} else {
		res, err = sim.Simulate(ctx, req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		if errors.Is(err, models.ErrValidation) {
			return 2
		}
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(api.PresentSimulation(res)); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		return 1
	}
	return 0
}
