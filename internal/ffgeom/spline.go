package ffgeom

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

// Spline wraps a fitted piecewise-cubic interpolant over strictly increasing
// x values, used by the MRM CORRECTED peak-picking path (spec'd as "1-D
// cubic-spline interpolation").
type Spline struct {
	fit *interp.PiecewiseCubic
	lo  float64
	hi  float64
}

// FitCubicSpline fits a piecewise cubic spline through (xs[i], ys[i]). xs
// must be strictly increasing and have at least 2 points.
func FitCubicSpline(xs, ys []float64) (*Spline, error) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return nil, fmt.Errorf("ffgeom: FitCubicSpline needs >=2 matching-length points, got %d/%d", len(xs), len(ys))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("ffgeom: FitCubicSpline requires strictly increasing x values")
		}
	}
	pc := new(interp.PiecewiseCubic)
	if err := pc.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("ffgeom: fit cubic spline: %w", err)
	}
	return &Spline{fit: pc, lo: xs[0], hi: xs[len(xs)-1]}, nil
}

// Eval evaluates the spline at x, clamping x to the fitted domain.
func (s *Spline) Eval(x float64) float64 {
	return s.fit.Predict(clamp(x, s.lo, s.hi))
}

// EvalDerivative evaluates the spline's first derivative at x, clamping x to
// the fitted domain.
func (s *Spline) EvalDerivative(x float64) float64 {
	return s.fit.PredictDerivative(clamp(x, s.lo, s.hi))
}

// Domain returns the fitted x range.
func (s *Spline) Domain() (lo, hi float64) { return s.lo, s.hi }

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// BisectZero finds a zero of monotone (over [lo,hi]) function f by bisection,
// to the given absolute tolerance on x. f(lo) and f(hi) must have opposite
// signs (or one must be exactly zero); ok is false otherwise.
func BisectZero(f func(float64) float64, lo, hi, tol float64) (root float64, ok bool) {
	flo, fhi := f(lo), f(hi)
	if flo == 0 {
		return lo, true
	}
	if fhi == 0 {
		return hi, true
	}
	if (flo > 0) == (fhi > 0) {
		return 0, false
	}
	for hi-lo > tol {
		mid := (lo + hi) / 2
		fm := f(mid)
		if fm == 0 {
			return mid, true
		}
		if (fm > 0) == (flo > 0) {
			lo, flo = mid, fm
		} else {
			hi, fhi = mid, fm
		}
	}
	return (lo + hi) / 2, true
}

// Median returns the median of a copy of xs (xs is not mutated).
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// Quantile returns the p-quantile (p in [0,1]) of a copy of xs.
func Quantile(p float64, xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// PearsonCorrelation returns the Pearson correlation coefficient between a
// and b (equal length, length >= 2). Returns 0 if either series has zero
// variance.
func PearsonCorrelation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// CosineSimilarity returns the cosine similarity between a and b (equal
// length). Returns 0 if either vector is zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
