// Package population turns a damage radius into a coarse affected-population
// figure using a single global-average density.
package population

import (
	"fmt"
	"math"

	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

const (
	MethodSimplifiedAverage = "simplified_average"

	// GlobalAverageDensity is people per km² averaged over land and sea.
	GlobalAverageDensity = 60.0

	note = "Estimate uses a single global average population density; no population raster is consulted."
)

// RadiusPolicy selects which damage zone bounds the affected area.
type RadiusPolicy string

const (
	PolicyShockwave RadiusPolicy = "shockwave"
	PolicySeismic   RadiusPolicy = "seismic"
	// PolicyLargest uses the larger of the shockwave and seismic radii.
	PolicyLargest RadiusPolicy = "largest"
)

func ParsePolicy(s string) (RadiusPolicy, error) {
	switch p := RadiusPolicy(s); p {
	case PolicyShockwave, PolicySeismic, PolicyLargest:
		return p, nil
	case "":
		return PolicyShockwave, nil
	default:
		return "", fmt.Errorf("unknown population radius policy: %q", s)
	}
}

type Estimator struct {
	density float64
	policy  RadiusPolicy
}

func NewEstimator(density float64, policy RadiusPolicy) *Estimator {
	if density <= 0 {
		density = GlobalAverageDensity
	}
	if policy == "" {
		policy = PolicyShockwave
	}
	return &Estimator{density: density, policy: policy}
}

func (e *Estimator) Policy() RadiusPolicy {
	return e.policy
}

func (e *Estimator) BoundingRadius(z models.DamageZones) float64 {
	switch e.policy {
	case PolicySeismic:
		return z.SeismicRadiusKm
	case PolicyLargest:
		return math.Max(z.ShockwaveRadiusKm, z.SeismicRadiusKm)
	default:
		return z.ShockwaveRadiusKm
	}
}

func (e *Estimator) Estimate(z models.DamageZones) models.PopulationImpact {
	return e.EstimateRadius(e.BoundingRadius(z))
}

// EstimateRadius never reports a negative count; non-positive radii
// affect nobody and counts beyond int64 saturate at math.MaxInt64.
func (e *Estimator) EstimateRadius(radiusKm float64) models.PopulationImpact {
	if !(radiusKm > 0) || math.IsInf(radiusKm, 0) {
		radiusKm = 0
	}
	area := math.Pi * radiusKm * radiusKm
	return models.PopulationImpact{
		Method:                  MethodSimplifiedAverage,
		EstimatedPeopleAffected: headCount(area * e.density),
		AffectedAreaKm2:         area,
		RadiusKm:                radiusKm,
		Note:                    note,
	}
}

func headCount(people float64) int64 {
	people = math.Round(people)
	if people >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(people)
}
