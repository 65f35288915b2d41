package masstrace

import (
	"math"

	"github.com/openms-go/featurefinder/internal/ffconfig"
	"github.com/openms-go/featurefinder/internal/msmodel"
)

// buildCandidate extends seed forward and backward in RT, returning the
// resulting (unsorted) set of TracePoints. consumed is only read here —
// acceptance and marking happen in the caller so a rejected candidate never
// claims centroids another seed might legitimately use.
func buildCandidate(spectra []msmodel.Spectrum, ms1Idx []int, consumed *consumedSet, seed seedCentroid, params *ffconfig.FeatureDetectionParams) []msmodel.TracePoint {
	seedPoint := msmodel.TracePoint{
		SpectrumIndex: ms1Idx[seed.msIdx],
		CentroidIndex: seed.centroidIdx,
		RT:            spectra[seed.msIdx].RT,
		MZ:            seed.mz,
		Intensity:     seed.intensity,
	}

	points := []msmodel.TracePoint{seedPoint}
	mu := seed.mz
	sumMZI := seed.mz * seed.intensity
	sumI := seed.intensity

	// Forward walk.
	w := newWalkState(params)
	for i := seed.msIdx + 1; i < len(spectra); i++ {
		pt, found := matchInSpectrum(spectra[i], i, ms1Idx[i], mu, consumed, params)
		if !w.step(found) {
			break
		}
		if found {
			points = append(points, pt)
			sumMZI += pt.MZ * pt.Intensity
			sumI += pt.Intensity
			mu = sumMZI / sumI
		}
	}

	// Backward walk (independent running mean, symmetric to forward).
	mu = seed.mz
	sumMZI = seed.mz * seed.intensity
	sumI = seed.intensity
	w = newWalkState(params)
	for i := seed.msIdx - 1; i >= 0; i-- {
		pt, found := matchInSpectrum(spectra[i], i, ms1Idx[i], mu, consumed, params)
		if !w.step(found) {
			break
		}
		if found {
			points = append(points, pt)
			sumMZI += pt.MZ * pt.Intensity
			sumI += pt.Intensity
			mu = sumMZI / sumI
		}
	}

	return points
}

// matchInSpectrum finds the unconsumed centroid in sp nearest to mu within
// tolerance. Ties on distance go to higher intensity (spec.md §4.2). msIdx
// addresses sp within the ms1 subsequence (for the consumed-set bitmap);
// origIdx is the corresponding index into the original Experiment, recorded
// on the returned TracePoint.
func matchInSpectrum(sp msmodel.Spectrum, msIdx, origIdx int, mu float64, consumed *consumedSet, params *ffconfig.FeatureDetectionParams) (msmodel.TracePoint, bool) {
	tol := toleranceDa(mu, params.MzTolerance, params.MzToleranceUnit == ffconfig.PPM)

	best := -1
	bestDist := math.Inf(1)
	for ci, c := range sp.Centroids {
		if consumed.Get(msIdx, ci) {
			continue
		}
		d := math.Abs(c.MZ - mu)
		if d > tol {
			continue
		}
		if best < 0 || d < bestDist || (d == bestDist && c.Intensity > sp.Centroids[best].Intensity) {
			best = ci
			bestDist = d
		}
	}
	if best < 0 {
		return msmodel.TracePoint{}, false
	}
	c := sp.Centroids[best]
	return msmodel.TracePoint{
		SpectrumIndex: origIdx,
		CentroidIndex: best,
		RT:            sp.RT,
		MZ:            c.MZ,
		Intensity:     c.Intensity,
	}, true
}

func toleranceDa(ref, tol float64, ppm bool) float64 {
	if ppm {
		return ref * tol * 1e-6
	}
	return tol
}

// walkState tracks the per-walk termination criterion state: consecutive
// misses for OUTLIER, and a trailing matched/traversed ratio for
// SAMPLE_RATE.
type walkState struct {
	params          *ffconfig.FeatureDetectionParams
	consecutiveMiss int

	window       []bool // trailing traversal outcomes, true = matched
	windowSize   int
	windowMissOK bool
}

func newWalkState(params *ffconfig.FeatureDetectionParams) *walkState {
	ws := 2 * params.TraceTerminationOutliers
	if ws < 10 {
		ws = 10
	}
	return &walkState{params: params, windowSize: ws}
}

// step records one traversed spectrum's match outcome and reports whether
// the walk should continue.
func (w *walkState) step(matched bool) bool {
	switch w.params.TraceTerminationCriterion {
	case ffconfig.SampleRate:
		w.window = append(w.window, matched)
		if len(w.window) > w.windowSize {
			w.window = w.window[1:]
		}
		if len(w.window) < w.windowSize {
			return true // not enough history yet to judge
		}
		matches := 0
		for _, m := range w.window {
			if m {
				matches++
			}
		}
		ratio := float64(matches) / float64(len(w.window))
		return ratio >= w.params.MinSampleRate
	default: // Outlier
		if matched {
			w.consecutiveMiss = 0
			return true
		}
		w.consecutiveMiss++
		return w.consecutiveMiss < w.params.TraceTerminationOutliers
	}
}
