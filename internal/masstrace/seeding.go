package masstrace

import (
	"sort"

	"github.com/openms-go/featurefinder/internal/ffconfig"
	"github.com/openms-go/featurefinder/internal/msmodel"
	"github.com/openms-go/featurefinder/internal/noise"
)

// seedCentroid is one candidate seed: a centroid in the MS1 subsequence,
// addressed by its position in that subsequence (msIdx) and its index within
// that spectrum's Centroids slice.
type seedCentroid struct {
	msIdx       int
	centroidIdx int
	mz          float64
	intensity   float64
}

// collectSeeds enumerates all MS1 centroids, drops those below the
// noise-aware seed threshold, and sorts by decreasing intensity (then
// ascending m/z, then ascending ms1 index) per spec.md §4.2's ordering
// rule.
func collectSeeds(spectra []msmodel.Spectrum, noiseEstimators []*noise.Estimator, params *ffconfig.FeatureDetectionParams) []seedCentroid {
	var seeds []seedCentroid
	for msIdx, sp := range spectra {
		for ci, c := range sp.Centroids {
			if belowSeedThreshold(c, msIdx, noiseEstimators, params) {
				continue
			}
			seeds = append(seeds, seedCentroid{msIdx: msIdx, centroidIdx: ci, mz: c.MZ, intensity: c.Intensity})
		}
	}
	sort.Slice(seeds, func(i, j int) bool {
		a, b := seeds[i], seeds[j]
		if a.intensity != b.intensity {
			return a.intensity > b.intensity
		}
		if a.mz != b.mz {
			return a.mz < b.mz
		}
		return a.msIdx < b.msIdx
	})
	return seeds
}

func belowSeedThreshold(c msmodel.Centroid, msIdx int, noiseEstimators []*noise.Estimator, params *ffconfig.FeatureDetectionParams) bool {
	if params.NoiseAuto && noiseEstimators != nil {
		return c.Intensity < noiseEstimators[msIdx].At(c.MZ)
	}
	if params.NoiseThresholdInt > 0 {
		return c.Intensity < params.NoiseThresholdInt
	}
	return false
}

// buildNoiseEstimators precomputes a per-spectrum C2 estimator over the m/z
// axis, used only when params.NoiseAuto is set.
func buildNoiseEstimators(spectra []msmodel.Spectrum, params *ffconfig.FeatureDetectionParams) []*noise.Estimator {
	if !params.NoiseAuto {
		return nil
	}
	ests := make([]*noise.Estimator, len(spectra))
	for i, sp := range spectra {
		samples := make([]noise.Sample, len(sp.Centroids))
		for j, c := range sp.Centroids {
			samples[j] = noise.Sample{X: c.MZ, Intensity: c.Intensity}
		}
		est, err := noise.Estimate(samples, params.NoiseWindowWidth)
		if err != nil {
			// NoiseWindowWidth is validated by FeatureDetectionParams.Validate
			// before the driver ever calls Detect; this is unreachable in
			// practice but kept safe rather than panicking on bad input.
			est = &noise.Estimator{}
		}
		ests[i] = est
	}
	return ests
}
