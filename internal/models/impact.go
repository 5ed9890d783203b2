package models

import (
	"fmt"
	"math"
)

type TargetType string

const (
	TargetLand  TargetType = "land"
	TargetWater TargetType = "water"
)

func ParseTargetType(s string) (TargetType, error) {
	switch TargetType(s) {
	case "", TargetLand:
		return TargetLand, nil
	case TargetWater:
		return TargetWater, nil
	default:
		return "", NewValidationError("target_type", fmt.Sprintf("must be %q or %q, got %q", TargetLand, TargetWater, s))
	}
}

const (
	DefaultDensityKgM3    = 3000.0
	DefaultImpactAngleDeg = 45.0

	minImpactAngleDeg = 0.0
	maxImpactAngleDeg = 90.0
	maxLatitude       = 90.0
	maxLongitude      = 180.0
)

// AsteroidParameters is the canonical impactor description. Values are
// copied around, never mutated after NewAsteroidParameters validates them.
type AsteroidParameters struct {
	DiameterM          float64 `json:"diameter_m"`
	VelocityKmS        float64 `json:"velocity_km_s"`
	DensityKgM3        float64 `json:"density_kg_m3"`
	ImpactAngleDegrees float64 `json:"impact_angle_degrees"`
}

// NewAsteroidParameters validates the inputs. A zero density selects
// DefaultDensityKgM3; the angle is taken as given.
func NewAsteroidParameters(diameterM, velocityKmS, densityKgM3, angleDeg float64) (AsteroidParameters, error) {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"diameter_m", diameterM},
		{"velocity_km_s", velocityKmS},
		{"density_kg_m3", densityKgM3},
		{"impact_angle", angleDeg},
	} {
		if !IsFinite(f.value) {
			return AsteroidParameters{}, NewValidationError(f.name, fmt.Sprintf("must be a finite number, got %g", f.value))
		}
	}
	if diameterM <= 0 {
		return AsteroidParameters{}, NewValidationError("diameter_m", fmt.Sprintf("must be positive, got %g", diameterM))
	}
	if velocityKmS <= 0 {
		return AsteroidParameters{}, NewValidationError("velocity_km_s", fmt.Sprintf("must be positive, got %g", velocityKmS))
	}
	if densityKgM3 == 0 {
		densityKgM3 = DefaultDensityKgM3
	}
	if densityKgM3 < 0 {
		return AsteroidParameters{}, NewValidationError("density_kg_m3", fmt.Sprintf("must be positive, got %g", densityKgM3))
	}
	if angleDeg < minImpactAngleDeg || angleDeg > maxImpactAngleDeg {
		return AsteroidParameters{}, NewValidationError("impact_angle", fmt.Sprintf("must be within 0-90 degrees, got %g", angleDeg))
	}

	return AsteroidParameters{
		DiameterM:          diameterM,
		VelocityKmS:        velocityKmS,
		DensityKgM3:        densityKgM3,
		ImpactAngleDegrees: angleDeg,
	}, nil
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type ImpactLocation struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	PlaceName string  `json:"place_name,omitempty"`
}

func (l ImpactLocation) Validate() error {
	if !(l.Lat >= -maxLatitude && l.Lat <= maxLatitude) {
		return NewValidationError("lat", fmt.Sprintf("must be within -90..90, got %g", l.Lat))
	}
	if !(l.Lon >= -maxLongitude && l.Lon <= maxLongitude) {
		return NewValidationError("lon", fmt.Sprintf("must be within -180..180, got %g", l.Lon))
	}
	return nil
}

type EnergyResult struct {
	Joules              float64 `json:"joules"`
	MegatonsTNT         float64 `json:"megatons_tnt"`
	HiroshimaEquivalent float64 `json:"hiroshima_bomb_equivalent"`
}

type CraterResult struct {
	DiameterM float64 `json:"diameter_m"`
	RadiusM   float64 `json:"radius_m"`
}

type SeismicResult struct {
	MagnitudeRichter float64 `json:"magnitude_richter"`
}

// DamageZones holds independent effect radii in kilometres.
type DamageZones struct {
	CraterRadiusKm    float64 `json:"crater_radius_km"`
	FireballRadiusKm  float64 `json:"fireball_radius_km"`
	ShockwaveRadiusKm float64 `json:"shockwave_radius_km"`
	ThermalRadiusKm   float64 `json:"thermal_radiation_km"`
	SeismicRadiusKm   float64 `json:"seismic_effect_km"`
}

type PopulationImpact struct {
	Method                  string  `json:"method"`
	EstimatedPeopleAffected int64   `json:"estimated_people_affected"`
	AffectedAreaKm2         float64 `json:"affected_area_km2"`
	RadiusKm                float64 `json:"radius_km"`
	Note                    string  `json:"note,omitempty"`
}

// City is a populated place found near an impact point.
type City struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	PlaceType  string  `json:"place_type,omitempty"`
	Population string  `json:"population,omitempty"`
	Country    string  `json:"country,omitempty"`
	DistanceKm float64 `json:"distance_km"`
}

type Comparisons struct {
	Energy  string `json:"energy"`
	Crater  string `json:"crater"`
	Seismic string `json:"seismic"`
}

// SimulationResult is built fresh for every request and never stored.
type SimulationResult struct {
	Asteroid     AsteroidParameters
	MassKg       float64
	Location     ImpactLocation
	TargetType   TargetType
	Energy       EnergyResult
	Crater       CraterResult
	Seismic      SeismicResult
	DamageZones  DamageZones
	Population   PopulationImpact
	Comparisons  Comparisons
	NearbyCities []City
	AsteroidInfo *AsteroidInfo
}
