package featurefinder

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openms-go/featurefinder/internal/ffconfig"
	"github.com/openms-go/featurefinder/internal/isotope/averagine"
	"github.com/openms-go/featurefinder/internal/msmodel"
)

// scenarioParams returns the parameter set common to every spec.md §8
// concrete scenario: 10 ppm tolerance, 10 s chromatographic FWHM, charges
// 1-3, everything else at its default.
func scenarioParams() *ffconfig.FeatureDetectionParams {
	p := ffconfig.DefaultFeatureDetectionParams()
	p.MzTolerance = 10
	p.MzToleranceUnit = ffconfig.PPM
	p.ChromFWHM = 10
	p.ChargeRange = ffconfig.ChargeRange{Min: 1, Max: 3}
	return p
}

// envelopeExperiment builds an Experiment with n MS1 spectra at
// RT = rtStart, rtStart+1, ..., one spectrum per second, and one centroid
// per (mz, height) pair whose intensity follows a Gaussian in RT with the
// given sigma and center.
func envelopeExperiment(n int, rtStart float64, mzs, heights []float64, sigma, center float64) msmodel.Experiment {
	spectra := make([]msmodel.Spectrum, n)
	for i := 0; i < n; i++ {
		rt := rtStart + float64(i)
		centroids := make([]msmodel.Centroid, len(mzs))
		for k, mz := range mzs {
			d := rt - center
			centroids[k] = msmodel.Centroid{MZ: mz, Intensity: heights[k] * math.Exp(-d*d/(2*sigma*sigma))}
		}
		order := make([]int, len(centroids))
		for k := range order {
			order[k] = k
		}
		sort.Slice(order, func(a, b int) bool { return centroids[order[a]].MZ < centroids[order[b]].MZ })
		sorted := make([]msmodel.Centroid, len(centroids))
		for k, oi := range order {
			sorted[k] = centroids[oi]
		}
		spectra[i] = msmodel.Spectrum{RT: rt, MSLevel: 1, Centroids: sorted}
	}
	return msmodel.Experiment{Spectra: spectra}
}

func sumIntensities(exp msmodel.Experiment) float64 {
	var total float64
	for _, sp := range exp.Spectra {
		for _, c := range sp.Centroids {
			total += c.Intensity
		}
	}
	return total
}

// Scenario 1: single singly-charged peptide, 11 spectra RT=100..110,
// centroids at the theoretical charge-1 averagine triplet for mono m/z
// 500.2500, peak height 1e6 at RT 105 s, sigma 3 s.
func TestScenario1_SingleSinglyChargedPeptide(t *testing.T) {
	mono := 500.2500 - averagine.ProtonMass
	env := averagine.Envelope(averagine.PeptideModel, mono)
	require.GreaterOrEqual(t, len(env), 3)

	mzs := []float64{500.2500, 500.7517, 501.2534}
	heights := []float64{1e6, 1e6 * env[1] / env[0], 1e6 * env[2] / env[0]}
	exp := envelopeExperiment(11, 100, mzs, heights, 3, 105)

	params := scenarioParams()
	params.MinSpectraForTrace = 3
	params.MinTraceLength = 3

	features, err := RunFeatureDetection(context.Background(), exp, params, 0, averagine.PeptideModel)
	require.NoError(t, err)
	require.Len(t, features, 1)

	f := features[0]
	assert.Equal(t, 1, f.Charge)
	assert.InDelta(t, 500.2500, f.MonoisotopicMZ, 500.2500*10e-6)
	assert.GreaterOrEqual(t, f.ApexRT, 104.5)
	assert.LessOrEqual(t, f.ApexRT, 105.5)
	// Trapezoidal integration over only 11 samples (+/-5s against sigma=3s)
	// under-counts the Gaussian's tails relative to the raw discrete sum by
	// a few percent; 5% reflects that discretization, not a looser fit.
	assert.InEpsilon(t, sumIntensities(exp), f.IntegratedIntensity, 0.05)
}

// Scenario 2: doubly-charged tryptic peptide, two isotopes, 15 spectra
// RT=200..214, mono height 5e5, first satellite 3e5, sigma 3, center 207.
func TestScenario2_DoublyChargedTwoIsotopes(t *testing.T) {
	mzs := []float64{750.3800, 750.8817}
	heights := []float64{5e5, 3e5}
	exp := envelopeExperiment(15, 200, mzs, heights, 3, 207)

	params := scenarioParams()
	params.MinSpectraForTrace = 3
	params.MinTraceLength = 3

	features, err := RunFeatureDetection(context.Background(), exp, params, 0, averagine.PeptideModel)
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, 2, features[0].Charge)
	assert.InDelta(t, 750.3800, features[0].MonoisotopicMZ, 750.38*10e-6)
}

// Scenario 3: two co-eluting singlets at unrelated m/z, no isotope
// structure. With default iso_min_score and allow_singletons=false both
// are discarded; with allow_singletons=true both survive as singletons.
func TestScenario3_CoElutingSinglets(t *testing.T) {
	exp := envelopeExperiment(11, 100, []float64{400.1, 600.4}, []float64{1e6, 1e6}, 3, 105)
	params := scenarioParams()
	params.MinSpectraForTrace = 3
	params.MinTraceLength = 3

	t.Run("discarded without singletons", func(t *testing.T) {
		params := *params
		params.AllowSingletons = false
		features, err := RunFeatureDetection(context.Background(), exp, &params, 0, averagine.PeptideModel)
		require.NoError(t, err)
		assert.Empty(t, features)
	})

	t.Run("kept as singletons when enabled", func(t *testing.T) {
		params := *params
		params.AllowSingletons = true
		features, err := RunFeatureDetection(context.Background(), exp, &params, 0, averagine.PeptideModel)
		require.NoError(t, err)
		assert.Len(t, features, 2)
	})
}

// Scenario 4: charge-1 vs charge-2 ambiguity. The same pair of peaks,
// spaced 0.5017 apart, must be assigned charge 2; spaced 1.00235 apart
// (the same peaks "relabeled"), charge 1. Neither case should emit more
// than one feature.
func TestScenario4_ChargeAmbiguityResolvesBySpacing(t *testing.T) {
	params := scenarioParams()
	params.MinSpectraForTrace = 3
	params.MinTraceLength = 3
	params.AllowSingletons = false

	t.Run("charge 2 spacing", func(t *testing.T) {
		mono := (500.0 - averagine.ProtonMass) * 2
		env := averagine.Envelope(averagine.PeptideModel, mono)
		mzs := []float64{500.0, 500.5017}
		heights := []float64{1e6, 1e6 * env[1] / env[0]}
		exp := envelopeExperiment(11, 100, mzs, heights, 3, 105)

		features, err := RunFeatureDetection(context.Background(), exp, params, 0, averagine.PeptideModel)
		require.NoError(t, err)
		require.Len(t, features, 1)
		assert.Equal(t, 2, features[0].Charge)
	})

	t.Run("charge 1 spacing", func(t *testing.T) {
		mono := 500.0 - averagine.ProtonMass
		env := averagine.Envelope(averagine.PeptideModel, mono)
		mzs := []float64{500.0, 501.00235}
		heights := []float64{1e6, 1e6 * env[1] / env[0]}
		exp := envelopeExperiment(11, 100, mzs, heights, 3, 105)

		features, err := RunFeatureDetection(context.Background(), exp, params, 0, averagine.PeptideModel)
		require.NoError(t, err)
		require.Len(t, features, 1)
		assert.Equal(t, 1, features[0].Charge)
	})
}

// Scenario 5: one trace spanning two Gaussian humps (RT 105, 115)
// separated by a deep dip at RT 110; C4 must split it into two elution
// peaks, and with a matching isotope satellite at every RT, C5/C6 must
// emit two features.
func TestScenario5_SplitElutionPeakEmitsTwoFeatures(t *testing.T) {
	mono := 500.2500 - averagine.ProtonMass
	env := averagine.Envelope(averagine.PeptideModel, mono)
	require.GreaterOrEqual(t, len(env), 2)

	n := 31
	rtStart := 95.0
	spectra := make([]msmodel.Spectrum, n)
	for i := 0; i < n; i++ {
		rt := rtStart + float64(i)
		bump := func(center float64) float64 {
			d := rt - center
			return math.Exp(-d*d / (2 * 2 * 2))
		}
		shape := bump(105) + bump(115)
		mono0 := 1e6 * shape
		sat1 := mono0 * env[1] / env[0]
		spectra[i] = msmodel.Spectrum{
			RT:      rt,
			MSLevel: 1,
			Centroids: []msmodel.Centroid{
				{MZ: 500.2500, Intensity: mono0},
				{MZ: 500.7517, Intensity: sat1},
			},
		}
	}
	exp := msmodel.Experiment{Spectra: spectra}

	params := scenarioParams()
	params.MinSpectraForTrace = 3
	params.MinTraceLength = 3

	features, err := RunFeatureDetection(context.Background(), exp, params, 0, averagine.PeptideModel)
	require.NoError(t, err)
	require.Len(t, features, 2)

	apexRTs := []float64{features[0].ApexRT, features[1].ApexRT}
	sort.Float64s(apexRTs)
	assert.InDelta(t, 105, apexRTs[0], 2)
	assert.InDelta(t, 115, apexRTs[1], 2)
}

// Scenario 6: 50 spectra of noise-only centroids, all below
// noise_threshold_int. Expected: empty feature list, no error.
func TestScenario6_NoiseOnlyInputYieldsNoFeatures(t *testing.T) {
	params := scenarioParams()
	params.NoiseThresholdInt = 100

	spectra := make([]msmodel.Spectrum, 50)
	// Deterministic pseudo-noise via a simple linear-congruential sequence,
	// avoiding math/rand so the fixture is reproducible without a seed.
	state := uint32(12345)
	next := func() float64 {
		state = state*1664525 + 1013904223
		return float64(state%5000) / 100.0 // 0..50, below the 100 threshold
	}
	for i := range spectra {
		centroids := make([]msmodel.Centroid, 5)
		mz := 300.0
		for k := range centroids {
			mz += 40 + next()/10
			centroids[k] = msmodel.Centroid{MZ: mz, Intensity: next()}
		}
		spectra[i] = msmodel.Spectrum{RT: float64(i), MSLevel: 1, Centroids: centroids}
	}
	exp := msmodel.Experiment{Spectra: spectra}

	features, err := RunFeatureDetection(context.Background(), exp, params, 0, averagine.PeptideModel)
	require.NoError(t, err)
	assert.Empty(t, features)
}

