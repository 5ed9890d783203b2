package impact

import (
	"fmt"

	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

const (
	hiroshimaMegatons = 0.015
	tsarBombaMegatons = 50.0
)

// Describe puts the headline numbers next to familiar reference events.
func Describe(energy models.EnergyResult, crater models.CraterResult, seismic models.SeismicResult) models.Comparisons {
	return models.Comparisons{
		Energy:  describeEnergy(energy.MegatonsTNT),
		Crater:  describeCrater(crater.DiameterM),
		Seismic: describeSeismic(seismic.MagnitudeRichter),
	}
}

func describeEnergy(mt float64) string {
	switch {
	case mt < 0.001:
		return "Less than a small bomb"
	case mt < hiroshimaMegatons:
		return "Similar to large conventional bombs"
	case mt < 1:
		return fmt.Sprintf("Equivalent to %.0f Hiroshima bombs", mt/hiroshimaMegatons)
	case mt < tsarBombaMegatons:
		return "Larger than any nuclear weapon ever tested (Tsar Bomba: 50 MT)"
	default:
		return fmt.Sprintf("Equivalent to %.0f megatons - extinction-level event", mt)
	}
}

func describeCrater(diameterM float64) string {
	switch {
	case diameterM < 50:
		return "About the size of a small house"
	case diameterM < 100:
		return "About the size of a football pitch"
	case diameterM < 500:
		return "About the size of several football pitches"
	case diameterM < 1000:
		return "Larger than 10 city blocks"
	case diameterM < 5000:
		return "Larger than New York's Central Park"
	default:
		return fmt.Sprintf("Roughly %.1f km across - visible from space", diameterM/1000)
	}
}

func describeSeismic(magnitude float64) string {
	switch {
	case magnitude < 3:
		return "Barely detectable - instruments only"
	case magnitude < 4:
		return "Felt near the epicentre"
	case magnitude < 5:
		return "Minor damage to weak buildings"
	case magnitude < 6:
		return "Moderate structural damage"
	case magnitude < 7:
		return "Severe damage across a wide area"
	case magnitude < 8:
		return "Major devastation (comparable to Haiti 2010, 7.0)"
	default:
		return "Catastrophic (comparable to Japan 2011, 9.1)"
	}
}
