// Package impact turns a loosely specified simulation request into a full
// impact assessment: parameter normalization, physics, population estimate
// and optional geographic enrichment.
package impact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/go-asteroid-impact/internal/geocoding"
	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

type Source string

const (
	SourceDirect Source = "direct"
	SourceNASA   Source = "nasa"
)

// Request describes a simulation from any combination of inputs. Pointer
// fields are optional; a non-nil direct value takes precedence over the one
// derived from NASA. The location comes from Coordinates or, failing that,
// from geocoding Place.
type Request struct {
	DiameterM   *float64
	VelocityKmS *float64
	DensityKgM3 *float64
	ImpactAngle *float64
	TargetType  string

	NASA *models.AsteroidRecord

	Coordinates *models.ImpactLocation
	Place       string

	// Enrich asks for the impact point's place name and nearby cities.
	Enrich bool
}

func (r Request) Source() Source {
	if r.NASA != nil {
		return SourceNASA
	}
	return SourceDirect
}

// Normalized is a fully validated request.
type Normalized struct {
	Params   models.AsteroidParameters
	Location models.ImpactLocation
	Target   models.TargetType
	Source   Source
}

const defaultGeocodeTimeout = 10 * time.Second

type Normalizer struct {
	geocoder geocoding.Geocoder
	timeout  time.Duration
}

// NewNormalizer builds a normalizer. A nil geocoder makes place lookups
// fail as upstream unavailable.
func NewNormalizer(geocoder geocoding.Geocoder, timeout time.Duration) *Normalizer {
	if timeout <= 0 {
		timeout = defaultGeocodeTimeout
	}
	return &Normalizer{geocoder: geocoder, timeout: timeout}
}

func (n *Normalizer) Normalize(ctx context.Context, req Request) (Normalized, error) {
	diameter, velocity, err := n.asteroid(req)
	if err != nil {
		return Normalized{}, err
	}

	density := models.DefaultDensityKgM3
	if req.DensityKgM3 != nil {
		if *req.DensityKgM3 <= 0 {
			return Normalized{}, models.NewValidationError("density_kg_m3", fmt.Sprintf("must be positive, got %g", *req.DensityKgM3))
		}
		density = *req.DensityKgM3
	}

	angle := models.DefaultImpactAngleDeg
	if req.ImpactAngle != nil {
		angle = *req.ImpactAngle
	}

	params, err := models.NewAsteroidParameters(diameter, velocity, density, angle)
	if err != nil {
		return Normalized{}, err
	}

	target, err := models.ParseTargetType(req.TargetType)
	if err != nil {
		return Normalized{}, err
	}

	loc, err := n.location(ctx, req)
	if err != nil {
		return Normalized{}, err
	}

	return Normalized{
		Params:   params,
		Location: loc,
		Target:   target,
		Source:   req.Source(),
	}, nil
}

// asteroid resolves diameter and velocity per field, direct values first.
func (n *Normalizer) asteroid(req Request) (float64, float64, error) {
	if req.NASA == nil && (req.DiameterM == nil || req.VelocityKmS == nil) {
		switch {
		case req.DiameterM == nil && req.VelocityKmS == nil:
			return 0, 0, models.NewValidationError("asteroid", "provide diameter_m and velocity_km_s or a NASA asteroid")
		case req.DiameterM == nil:
			return 0, 0, models.NewValidationError("diameter_m", "is required")
		default:
			return 0, 0, models.NewValidationError("velocity_km_s", "is required")
		}
	}

	var diameter, velocity float64
	if req.DiameterM != nil {
		diameter = *req.DiameterM
	} else {
		diameter = req.NASA.AverageDiameterM()
	}

	if req.VelocityKmS != nil {
		velocity = *req.VelocityKmS
	} else {
		approach, ok := req.NASA.FirstApproach()
		if !ok {
			return 0, 0, models.NewValidationError("velocity_km_s", fmt.Sprintf("asteroid %s has no close approach data", req.NASA.ID))
		}
		velocity = approach.VelocityKmS
	}

	return diameter, velocity, nil
}

func (n *Normalizer) location(ctx context.Context, req Request) (models.ImpactLocation, error) {
	if req.Coordinates != nil {
		if err := req.Coordinates.Validate(); err != nil {
			return models.ImpactLocation{}, err
		}
		return *req.Coordinates, nil
	}

	place := strings.TrimSpace(req.Place)
	if place == "" {
		return models.ImpactLocation{}, models.NewValidationError("location", "provide coordinates or a city name")
	}
	if n.geocoder == nil {
		return models.ImpactLocation{}, models.Upstream("geocoding", errors.New("no geocoder configured"))
	}

	gctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	p, err := n.geocoder.Forward(gctx, place)
	if err != nil {
		if errors.Is(err, models.ErrUpstreamUnavailable) {
			return models.ImpactLocation{}, err
		}
		return models.ImpactLocation{}, models.Upstream("geocoding", err)
	}
	if !p.Found() {
		return models.ImpactLocation{}, models.Upstream("geocoding", fmt.Errorf("no match for %q", place))
	}

	loc := models.ImpactLocation{Lat: p.Lat, Lon: p.Lon, PlaceName: p.FormattedAddress}
	if err := loc.Validate(); err != nil {
		return models.ImpactLocation{}, models.Upstream("geocoding", err)
	}
	return loc, nil
}
