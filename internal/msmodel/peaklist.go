// Package msmodel holds the passive data structures shared by the
// feature-detection pipeline: centroids, spectra, experiments, mass traces,
// elution peaks, isotope patterns, features, and MRM chromatograms. None of
// these types mutate centroids after intake; derived fields (mean m/z, apex
// index, ...) are computed by explicit Update methods rather than on every
// access, mirroring the teacher's preference for explicit recomputation over
// hidden invalidation (e.g. internal/lidar/l3grid's background cell stats).
package msmodel

import "github.com/openms-go/featurefinder/internal/fferrors"

// Centroid is a single (m/z, intensity) pair, the output of MS1 peak
// picking. Immutable once produced.
type Centroid struct {
	MZ        float64
	Intensity float64
}

// Spectrum is an ordered sequence of centroids sorted strictly ascending by
// m/z, plus a retention time and an MS level. The core only consumes
// MSLevel == 1.
type Spectrum struct {
	Centroids []Centroid
	RT        float64
	MSLevel   int
}

// IsSortedByMZ reports whether Centroids is strictly ascending by m/z.
func (s Spectrum) IsSortedByMZ() bool {
	for i := 1; i < len(s.Centroids); i++ {
		if s.Centroids[i].MZ <= s.Centroids[i-1].MZ {
			return false
		}
	}
	return true
}

// Experiment is an ordered sequence of spectra sorted non-decreasing by
// retention time.
type Experiment struct {
	Spectra []Spectrum
}

// Validate checks the invariants spec.md §3 requires of an Experiment:
// non-decreasing RT overall, and (since the core only consumes MS1 data)
// strictly increasing RT across the MS1 subsequence, and ascending m/z
// within each spectrum.
func (e Experiment) Validate() error {
	var lastRT float64
	first := true
	for i, sp := range e.Spectra {
		if i > 0 && sp.RT < e.Spectra[i-1].RT {
			return fferrors.InputMalformedAt(i, "retention time decreased relative to previous spectrum")
		}
		if !sp.IsSortedByMZ() {
			return fferrors.InputMalformedAt(i, "centroids not strictly ascending by m/z")
		}
		if sp.MSLevel == 1 {
			if !first && sp.RT <= lastRT {
				return fferrors.InputMalformedAt(i, "MS1 retention times are not strictly increasing")
			}
			lastRT = sp.RT
			first = false
		}
	}
	return nil
}

// MS1Count returns the number of MS level 1 spectra.
func (e Experiment) MS1Count() int {
	n := 0
	for _, sp := range e.Spectra {
		if sp.MSLevel == 1 {
			n++
		}
	}
	return n
}

// MS1Indices returns the indices into Spectra of the MS1 subsequence, in
// order.
func (e Experiment) MS1Indices() []int {
	idx := make([]int, 0, len(e.Spectra))
	for i, sp := range e.Spectra {
		if sp.MSLevel == 1 {
			idx = append(idx, i)
		}
	}
	return idx
}
