package physics

import (
	"fmt"

	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

// Constants is the read-only set of physical constants the engine uses.
// It is passed by value so tests can vary one figure in isolation.
type Constants struct {
	AsteroidDensityKgM3 float64 // typical rocky impactor
	LandDensityKgM3     float64 // crater target density for land impacts
	WaterDensityKgM3    float64 // effective target density for ocean impacts
	JoulesPerMegaton    float64
	HiroshimaMegatons   float64
	EarthRadiusKm       float64
}

const (
	JoulesPerTonTNT  = 4.184e9
	JoulesPerMegaton = 4.184e15
	EarthRadiusKm    = 6371.0
)

func DefaultConstants() Constants {
	return Constants{
		AsteroidDensityKgM3: models.DefaultDensityKgM3,
		LandDensityKgM3:     3000,
		WaterDensityKgM3:    1000,
		JoulesPerMegaton:    JoulesPerMegaton,
		HiroshimaMegatons:   0.015,
		EarthRadiusKm:       EarthRadiusKm,
	}
}

// TargetDensity returns the crater-scaling density for the surface hit.
func (c Constants) TargetDensity(target models.TargetType) (float64, error) {
	switch target {
	case models.TargetLand:
		return c.LandDensityKgM3, nil
	case models.TargetWater:
		return c.WaterDensityKgM3, nil
	default:
		return 0, models.NewValidationError("target_type", fmt.Sprintf("unknown target %q", target))
	}
}
