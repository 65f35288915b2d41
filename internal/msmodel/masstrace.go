package msmodel

import (
	"math"

	"github.com/google/uuid"
	"github.com/openms-go/featurefinder/internal/ffgeom"
)

// TracePoint is one (rt, centroid) entry of a MassTrace, referenced by
// spectrum/centroid index into the source Experiment rather than by a
// back-pointer (spec.md §9: "index-based references only").
type TracePoint struct {
	SpectrumIndex int
	CentroidIndex int
	RT            float64
	MZ            float64
	Intensity     float64
}

// MassTrace is a finite, ordered sequence of TracePoints whose centroids
// share a common m/z within a detection tolerance, plus the derived fields
// spec.md §3 requires.
type MassTrace struct {
	ID uuid.UUID

	Points []TracePoint

	// Derived fields, recomputed by UpdateStatistics.
	MeanMZ     float64
	StdDevMZ   float64
	ApexIndex  int // index into Points of the maximum-intensity entry
	CentroidRT float64
	FWHM       float64
}

// NewMassTrace builds a MassTrace from points (assumed already RT-sorted)
// and computes its derived statistics.
func NewMassTrace(points []TracePoint) *MassTrace {
	t := &MassTrace{ID: uuid.New(), Points: points}
	t.UpdateStatistics()
	return t
}

// UpdateStatistics recomputes MeanMZ, StdDevMZ, ApexIndex, CentroidRT and
// FWHM from Points. Callers must invoke this after mutating Points directly
// (e.g. during trace extension); NewMassTrace and the splitter call it for
// you.
func (t *MassTrace) UpdateStatistics() {
	n := len(t.Points)
	if n == 0 {
		t.MeanMZ, t.StdDevMZ, t.CentroidRT, t.FWHM = 0, 0, 0, 0
		t.ApexIndex = -1
		return
	}

	mzs := make([]float64, n)
	rts := make([]float64, n)
	intensities := make([]float64, n)
	apex := 0
	for i, p := range t.Points {
		mzs[i] = p.MZ
		rts[i] = p.RT
		intensities[i] = p.Intensity
		if p.Intensity > t.Points[apex].Intensity {
			apex = i
		}
	}

	t.MeanMZ = ffgeom.WeightedMean(mzs, intensities)
	t.StdDevMZ = ffgeom.WeightedStdDev(mzs, intensities)
	t.CentroidRT = ffgeom.WeightedMean(rts, intensities)
	t.ApexIndex = apex
	t.FWHM = estimateFWHM(rts, intensities, apex)
}

// estimateFWHM linearly interpolates the RT positions where intensity first
// crosses half the apex value on either side of apex, returning their
// difference. Returns 0 for fewer than 2 points. On a side where intensity
// never drops below half max, that side's bound is the trace's end RT, so the
// result is then only a lower bound (the full span if neither side drops).
func estimateFWHM(rts, intensities []float64, apex int) float64 {
	n := len(rts)
	if n < 2 {
		return 0
	}
	half := intensities[apex] / 2

	left := rts[0]
	for i := apex; i > 0; i-- {
		if intensities[i] >= half && intensities[i-1] < half {
			left = interpCrossing(rts[i-1], intensities[i-1], rts[i], intensities[i], half)
			break
		}
	}

	right := rts[n-1]
	for i := apex; i < n-1; i++ {
		if intensities[i] >= half && intensities[i+1] < half {
			right = interpCrossing(rts[i], intensities[i], rts[i+1], intensities[i+1], half)
			break
		}
	}

	if right < left {
		return 0
	}
	return right - left
}

func interpCrossing(x0, y0, x1, y1, yTarget float64) float64 {
	if y1 == y0 {
		return x0
	}
	frac := (yTarget - y0) / (y1 - y0)
	return x0 + frac*(x1-x0)
}

// WithinTolerance reports whether mz lies within tol of the trace's current
// MeanMZ, where tol is interpreted as ppm (relative, re-evaluated against
// MeanMZ) or Da (absolute) per ppmUnit.
func (t *MassTrace) WithinTolerance(mz, tol float64, ppmUnit bool) bool {
	return math.Abs(mz-t.MeanMZ) <= toleranceDa(t.MeanMZ, tol, ppmUnit)
}

// toleranceDa converts a tolerance value expressed in ppm (relative to ref)
// or Da (absolute) into an absolute Da tolerance.
func toleranceDa(ref, tol float64, ppmUnit bool) float64 {
	if ppmUnit {
		return ref * tol * 1e-6
	}
	return tol
}
