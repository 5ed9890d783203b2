package population

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

func TestEstimateRadius_Zero(t *testing.T) {
	est := NewEstimator(GlobalAverageDensity, PolicyShockwave)

	got := est.EstimateRadius(0)
	assert.Zero(t, got.EstimatedPeopleAffected)
	assert.Zero(t, got.AffectedAreaKm2)
	assert.Equal(t, MethodSimplifiedAverage, got.Method)
}

func TestEstimateRadius_NeverNegative(t *testing.T) {
	est := NewEstimator(GlobalAverageDensity, PolicyShockwave)

	for _, r := range []float64{-1, math.NaN(), math.Inf(-1)} {
		got := est.EstimateRadius(r)
		assert.Zero(t, got.EstimatedPeopleAffected)
		assert.Zero(t, got.AffectedAreaKm2)
	}
}

func TestEstimateRadius_SaturatesInsteadOfOverflowing(t *testing.T) {
	est := NewEstimator(GlobalAverageDensity, PolicyShockwave)

	for _, r := range []float64{1e9, 1e150, math.MaxFloat64} {
		got := est.EstimateRadius(r)
		assert.Equal(t, int64(math.MaxInt64), got.EstimatedPeopleAffected, "radius %g", r)
	}

	// Just below the int64 limit is still counted exactly.
	r := math.Sqrt(1e18 / (math.Pi * GlobalAverageDensity))
	got := est.EstimateRadius(r)
	assert.Positive(t, got.EstimatedPeopleAffected)
	assert.Less(t, got.EstimatedPeopleAffected, int64(math.MaxInt64))
}

func TestEstimateRadius_RoundsToNearest(t *testing.T) {
	est := NewEstimator(GlobalAverageDensity, PolicyShockwave)

	// π·10²·60 = 18849.556
	got := est.EstimateRadius(10)
	assert.InEpsilon(t, math.Pi*100, got.AffectedAreaKm2, 1e-9)
	assert.Equal(t, int64(18850), got.EstimatedPeopleAffected)
}

func TestEstimate_Policies(t *testing.T) {
	zones := models.DamageZones{ShockwaveRadiusKm: 20, SeismicRadiusKm: 300}

	tests := []struct {
		policy RadiusPolicy
		radius float64
	}{
		{PolicyShockwave, 20},
		{PolicySeismic, 300},
		{PolicyLargest, 300},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			got := NewEstimator(GlobalAverageDensity, tt.policy).Estimate(zones)
			assert.Equal(t, tt.radius, got.RadiusKm)
		})
	}
}

func TestNewEstimator_Defaults(t *testing.T) {
	est := NewEstimator(0, "")
	assert.Equal(t, PolicyShockwave, est.Policy())
	assert.Equal(t, int64(188), est.EstimateRadius(1).EstimatedPeopleAffected)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyShockwave, p)

	p, err = ParsePolicy("largest")
	require.NoError(t, err)
	assert.Equal(t, PolicyLargest, p)

	_, err = ParsePolicy("thermal")
	assert.Error(t, err)
}
