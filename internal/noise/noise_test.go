package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate_EmptyInputIsIdentityNoise(t *testing.T) {
	est, err := Estimate(nil, 10)
	require.NoError(t, err)
	assert.Equal(t, 1.0, est.At(0))
	assert.Equal(t, 1.0, est.At(500))
}

func TestEstimate_InvalidWidth(t *testing.T) {
	_, err := Estimate([]Sample{{X: 1, Intensity: 1}}, 0)
	assert.Error(t, err)
	_, err = Estimate([]Sample{{X: 1, Intensity: 1}}, -5)
	assert.Error(t, err)
}

func TestEstimate_SparseWindowIsIdentityNoise(t *testing.T) {
	// A single sample in a window of width 10 means that window's count < 2.
	est, err := Estimate([]Sample{{X: 5, Intensity: 1000}}, 10)
	require.NoError(t, err)
	assert.Equal(t, 1.0, est.At(5))
}

func TestEstimate_NoiseFloorTracksMedian(t *testing.T) {
	// Dense low-intensity background with one high spike; the floor should
	// reflect the background median, not the spike.
	var samples []Sample
	for x := 0.0; x < 100; x++ {
		samples = append(samples, Sample{X: x, Intensity: 50})
	}
	samples = append(samples, Sample{X: 50.5, Intensity: 1e6})

	est, err := Estimate(samples, 20)
	require.NoError(t, err)

	floor := est.At(50)
	assert.Less(t, floor, 100.0, "noise floor should not be dragged up by a single spike")
	assert.GreaterOrEqual(t, floor, 1.0)
}

func TestEstimate_ClampAppliesToFinalAverageNotEachWindow(t *testing.T) {
	// With w=4, x=3's even window is [0,4) and its odd window is [2,6). Three
	// low-intensity points sit in [0,2) (even window [0,4), odd window
	// [-2,2)), giving that even window a raw median of 0.3; three
	// high-intensity points sit in [4,6) (even window [4,8), odd window
	// [2,6)), giving that odd window a raw median of 5.0. If binMedians
	// clamped each window's median to 1.0 before averaging, At(3) would
	// report max(1.0, (1.0+5.0)/2) = 3.0; clamping only the final average
	// gives max(1.0, (0.3+5.0)/2) = 2.65.
	samples := []Sample{
		{X: 0, Intensity: 0.1}, {X: 0.5, Intensity: 0.3}, {X: 1, Intensity: 0.5},
		{X: 4, Intensity: 4.0}, {X: 4.5, Intensity: 5.0}, {X: 5, Intensity: 6.0},
	}
	est, err := Estimate(samples, 4)
	require.NoError(t, err)

	floor := est.At(3)
	assert.InDelta(t, 2.65, floor, 1e-9)
}

func TestEstimate_NeverBelowOne(t *testing.T) {
	var samples []Sample
	for x := 0.0; x < 50; x++ {
		samples = append(samples, Sample{X: x, Intensity: 0})
	}
	est, err := Estimate(samples, 10)
	require.NoError(t, err)
	assert.Equal(t, 1.0, est.At(25))
}
