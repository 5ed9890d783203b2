// Package physics implements the closed-form impact scaling laws: mass,
// kinetic energy, crater size, seismic magnitude and damage radii.
//
// Every method depends only on its arguments and the Constants value the
// Engine was built with, so an Engine can be shared across goroutines.
package physics

import (
	"fmt"
	"math"

	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

type powerLaw struct {
	coefficient float64
	exponent    float64
}

func (p powerLaw) at(x float64) float64 {
	return p.coefficient * math.Pow(x, p.exponent)
}

// Collins et al. (2005) style fits, energy in megatons TNT.
var (
	craterScaling    = powerLaw{coefficient: 1.8, exponent: 0.28} // km
	fireballScaling  = powerLaw{coefficient: 0.5, exponent: 0.4}
	shockwaveScaling = powerLaw{coefficient: 2.0, exponent: 0.33}
	thermalScaling   = powerLaw{coefficient: 5.0, exponent: 0.4}
	seismicScaling   = powerLaw{coefficient: 50.0, exponent: 0.25}
)

const (
	craterDensityExponent = -0.33

	richterSlope     = 0.67
	richterIntercept = -5.87
)

type Engine struct {
	c Constants
}

func NewEngine(c Constants) Engine {
	return Engine{c: c}
}

func (e Engine) Constants() Constants {
	return e.c
}

// Mass treats the body as a sphere of uniform density.
func (e Engine) Mass(diameterM, densityKgM3 float64) (float64, error) {
	if !(diameterM > 0) || math.IsInf(diameterM, 0) {
		return 0, models.NewValidationError("diameter_m", fmt.Sprintf("must be positive and finite, got %g", diameterM))
	}
	if !(densityKgM3 > 0) || math.IsInf(densityKgM3, 0) {
		return 0, models.NewValidationError("density_kg_m3", fmt.Sprintf("must be positive and finite, got %g", densityKgM3))
	}
	r := diameterM / 2
	mass := 4.0 / 3.0 * math.Pi * r * r * r * densityKgM3
	if math.IsInf(mass, 0) {
		return 0, models.NewValidationError("diameter_m", fmt.Sprintf("%g m at %g kg/m³ exceeds the representable mass", diameterM, densityKgM3))
	}
	return mass, nil
}

func (e Engine) KineticEnergy(massKg, velocityKmS float64) (float64, error) {
	if !(massKg > 0) || math.IsInf(massKg, 0) {
		return 0, models.NewValidationError("mass_kg", fmt.Sprintf("must be positive and finite, got %g", massKg))
	}
	if !(velocityKmS > 0) || math.IsInf(velocityKmS, 0) {
		return 0, models.NewValidationError("velocity_km_s", fmt.Sprintf("must be positive and finite, got %g", velocityKmS))
	}
	v := velocityKmS * 1000
	joules := 0.5 * massKg * v * v
	if math.IsInf(joules, 0) {
		return 0, models.NewValidationError("velocity_km_s", fmt.Sprintf("kinetic energy of %g kg at %g km/s exceeds the representable range", massKg, velocityKmS))
	}
	return joules, nil
}

func (e Engine) EnergyToMegatons(joules float64) float64 {
	return joules / e.c.JoulesPerMegaton
}

func (e Engine) MegatonsToJoules(megatons float64) float64 {
	return megatons * e.c.JoulesPerMegaton
}

// HiroshimaEquivalent is left unrounded; rounding happens when formatting.
func (e Engine) HiroshimaEquivalent(megatons float64) float64 {
	return megatons / e.c.HiroshimaMegatons
}

func (e Engine) Energy(joules float64) models.EnergyResult {
	mt := e.EnergyToMegatons(joules)
	return models.EnergyResult{
		Joules:              joules,
		MegatonsTNT:         mt,
		HiroshimaEquivalent: e.HiroshimaEquivalent(mt),
	}
}

// CraterDiameter returns the final crater diameter in metres. Zero energy
// yields no crater.
func (e Engine) CraterDiameter(joules float64, target models.TargetType) (float64, error) {
	if !(joules >= 0) || math.IsInf(joules, 0) {
		return 0, models.NewValidationError("energy_joules", fmt.Sprintf("must be non-negative and finite, got %g", joules))
	}
	rho, err := e.c.TargetDensity(target)
	if err != nil {
		return 0, err
	}
	if joules == 0 {
		return 0, nil
	}
	km := craterScaling.at(e.EnergyToMegatons(joules)) * math.Pow(rho, craterDensityExponent)
	return km * 1000, nil
}

func (e Engine) Crater(joules float64, target models.TargetType) (models.CraterResult, error) {
	d, err := e.CraterDiameter(joules, target)
	if err != nil {
		return models.CraterResult{}, err
	}
	return models.CraterResult{DiameterM: d, RadiusM: d / 2}, nil
}

// SeismicMagnitude is not clamped; small impactors produce negative
// magnitudes.
func (e Engine) SeismicMagnitude(joules float64) (float64, error) {
	if joules <= 0 {
		return 0, models.NewValidationError("energy_joules", fmt.Sprintf("seismic magnitude needs positive energy, got %g", joules))
	}
	m := richterSlope*math.Log10(joules) + richterIntercept
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, fmt.Errorf("%w: seismic magnitude for %g J", models.ErrInternalComputation, joules)
	}
	return m, nil
}

// DamageRadii computes each effect radius independently from the energy.
func (e Engine) DamageRadii(joules float64, target models.TargetType) (models.DamageZones, error) {
	crater, err := e.CraterDiameter(joules, target)
	if err != nil {
		return models.DamageZones{}, err
	}
	mt := e.EnergyToMegatons(joules)
	return models.DamageZones{
		CraterRadiusKm:    crater / 2000,
		FireballRadiusKm:  fireballScaling.at(mt),
		ShockwaveRadiusKm: shockwaveScaling.at(mt),
		ThermalRadiusKm:   thermalScaling.at(mt),
		SeismicRadiusKm:   seismicScaling.at(mt),
	}, nil
}

// Outcome bundles every physical quantity derived from one impactor.
type Outcome struct {
	MassKg      float64
	Energy      models.EnergyResult
	Crater      models.CraterResult
	Seismic     models.SeismicResult
	DamageZones models.DamageZones
}

// Compute chains mass, energy, crater, seismic and damage radii, stopping
// at the first failing step.
func (e Engine) Compute(p models.AsteroidParameters, target models.TargetType) (Outcome, error) {
	mass, err := e.Mass(p.DiameterM, p.DensityKgM3)
	if err != nil {
		return Outcome{}, err
	}
	joules, err := e.KineticEnergy(mass, p.VelocityKmS)
	if err != nil {
		return Outcome{}, err
	}
	crater, err := e.Crater(joules, target)
	if err != nil {
		return Outcome{}, fmt.Errorf("crater: %w", err)
	}
	magnitude, err := e.SeismicMagnitude(joules)
	if err != nil {
		return Outcome{}, fmt.Errorf("seismic: %w", err)
	}
	zones, err := e.DamageRadii(joules, target)
	if err != nil {
		return Outcome{}, fmt.Errorf("damage radii: %w", err)
	}

	return Outcome{
		MassKg:      mass,
		Energy:      e.Energy(joules),
		Crater:      crater,
		Seismic:     models.SeismicResult{MagnitudeRichter: magnitude},
		DamageZones: zones,
	}, nil
}
