package api

import (
	"math"

	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

// SimulationView is the JSON shape of a simulation result. Rounding
// happens only here; the simulator's values stay unrounded.
type SimulationView struct {
	Asteroid         asteroidView            `json:"asteroid"`
	Impact           impactView              `json:"impact"`
	Energy           energyView              `json:"energy"`
	Crater           craterView              `json:"crater"`
	Seismic          seismicView             `json:"seismic"`
	DamageZones      models.DamageZones      `json:"damage_zones"`
	PopulationImpact models.PopulationImpact `json:"population_impact"`
	NearbyCities     []models.City           `json:"nearby_cities,omitempty"`
	AsteroidInfo     *models.AsteroidInfo    `json:"asteroid_info,omitempty"`
}

type asteroidView struct {
	DiameterM   float64 `json:"diameter_m"`
	MassKg      float64 `json:"mass_kg"`
	VelocityKmS float64 `json:"velocity_km_s"`
	DensityKgM3 float64 `json:"density_kg_m3"`
}

type impactView struct {
	Location     models.ImpactLocation `json:"location"`
	AngleDegrees float64               `json:"angle_degrees"`
	TargetType   models.TargetType     `json:"target_type"`
}

type energyView struct {
	Joules         float64 `json:"joules"`
	MegatonsTNT    float64 `json:"megatons_tnt"`
	HiroshimaBombs float64 `json:"hiroshima_bombs"`
	Comparison     string  `json:"comparison"`
}

type craterView struct {
	DiameterM  float64 `json:"diameter_m"`
	RadiusM    float64 `json:"radius_m"`
	Comparison string  `json:"comparison"`
}

type seismicView struct {
	MagnitudeRichter float64 `json:"magnitude_richter"`
	Comparison       string  `json:"comparison"`
}

// PresentSimulation shapes a result for JSON output.
func PresentSimulation(r *models.SimulationResult) SimulationView {
	pop := r.Population
	pop.AffectedAreaKm2 = round2(pop.AffectedAreaKm2)
	pop.RadiusKm = round2(pop.RadiusKm)

	return SimulationView{
		Asteroid: asteroidView{
			DiameterM:   r.Asteroid.DiameterM,
			MassKg:      r.MassKg,
			VelocityKmS: r.Asteroid.VelocityKmS,
			DensityKgM3: r.Asteroid.DensityKgM3,
		},
		Impact: impactView{
			Location:     r.Location,
			AngleDegrees: r.Asteroid.ImpactAngleDegrees,
			TargetType:   r.TargetType,
		},
		Energy: energyView{
			Joules:         r.Energy.Joules,
			MegatonsTNT:    round2(r.Energy.MegatonsTNT),
			HiroshimaBombs: math.Round(r.Energy.HiroshimaEquivalent),
			Comparison:     r.Comparisons.Energy,
		},
		Crater: craterView{
			DiameterM:  round2(r.Crater.DiameterM),
			RadiusM:    round2(r.Crater.RadiusM),
			Comparison: r.Comparisons.Crater,
		},
		Seismic: seismicView{
			MagnitudeRichter: round2(r.Seismic.MagnitudeRichter),
			Comparison:       r.Comparisons.Seismic,
		},
		DamageZones: models.DamageZones{
			CraterRadiusKm:    round2(r.DamageZones.CraterRadiusKm),
			FireballRadiusKm:  round2(r.DamageZones.FireballRadiusKm),
			ShockwaveRadiusKm: round2(r.DamageZones.ShockwaveRadiusKm),
			ThermalRadiusKm:   round2(r.DamageZones.ThermalRadiusKm),
			SeismicRadiusKm:   round2(r.DamageZones.SeismicRadiusKm),
		},
		PopulationImpact: pop,
		NearbyCities:     r.NearbyCities,
		AsteroidInfo:     r.AsteroidInfo,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
