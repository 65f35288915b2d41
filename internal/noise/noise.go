// Package noise implements C2: window-based median signal-to-noise
// estimation on a 1-D series, used by the mass-trace detector, the elution
// peak splitter, and the MRM peak picker wherever a noise-aware threshold is
// requested. Grounded on OpenMS's SignalToNoiseEstimatorMedianRapid
// (original_source), which computes the noise floor as the average of two
// interleaved, offset window grids to attenuate bin-boundary error.
package noise

import (
	"fmt"
	"sort"

	"github.com/openms-go/featurefinder/internal/ffgeom"
)

// Sample is one (x, intensity) observation on the axis being estimated (m/z
// for C3, RT for C4/C7).
type Sample struct {
	X         float64
	Intensity float64
}

// Estimator answers noise-floor queries for an axis position x, built by
// Estimate over a fixed window width W.
type Estimator struct {
	width      float64
	xMin       float64
	evenMedian []float64 // median intensity of windows starting at xMin + i*W
	oddMedian  []float64 // median intensity of windows starting at xMin - W/2 + i*W
}

// Estimate builds an Estimator over samples (need not be pre-sorted) using
// windows of width w. Returns an error if w is non-positive.
func Estimate(samples []Sample, w float64) (*Estimator, error) {
	if w <= 0 {
		return nil, fmt.Errorf("invalid parameter: noise window width must be positive, got %v", w)
	}
	if len(samples) == 0 {
		return &Estimator{width: w}, nil
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	xMin := sorted[0].X
	xMax := sorted[len(sorted)-1].X

	nEven := int((xMax-xMin)/w) + 2
	even := binMedians(sorted, xMin, w, nEven)

	nOdd := nEven + 1
	odd := binMedians(sorted, xMin-w/2, w, nOdd)

	return &Estimator{width: w, xMin: xMin, evenMedian: even, oddMedian: odd}, nil
}

// binMedians computes, for each of n windows of width w starting at start,
// the raw median intensity of samples (sorted by X) falling in that window.
// Windows with fewer than 2 points get a noise value of 1.0 per spec; a
// window with enough points is left unclamped, since the 1.0 floor applies
// once to the even/odd average in At, not per window.
func binMedians(sorted []Sample, start, w float64, n int) []float64 {
	medians := make([]float64, n)
	if n <= 0 {
		return medians
	}
	buckets := make([][]float64, n)
	for _, s := range sorted {
		idx := int((s.X - start) / w)
		if idx < 0 || idx >= n {
			continue
		}
		buckets[idx] = append(buckets[idx], s.Intensity)
	}
	for i, b := range buckets {
		if len(b) < 2 {
			medians[i] = 1.0
			continue
		}
		medians[i] = ffgeom.Median(b)
	}
	return medians
}

// At returns the noise floor at position x: max(1.0, (even(x)+odd(x))/2).
// Returns 1.0 identically for an Estimator built from an empty sample set.
func (e *Estimator) At(x float64) float64 {
	if e == nil || len(e.evenMedian) == 0 {
		return 1.0
	}
	even := windowValue(e.evenMedian, e.xMin, e.width, x)
	odd := windowValue(e.oddMedian, e.xMin-e.width/2, e.width, x)
	v := (even + odd) / 2
	if v < 1.0 {
		return 1.0
	}
	return v
}

func windowValue(medians []float64, start, w, x float64) float64 {
	idx := int((x - start) / w)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(medians) {
		idx = len(medians) - 1
	}
	if idx < 0 {
		return 1.0
	}
	return medians[idx]
}
