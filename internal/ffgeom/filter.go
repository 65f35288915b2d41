package ffgeom

import "math"

// FilterKind selects a 1-D filter variant. The teacher's deep-inheritance
// peak-filter hierarchy (DTopHat/Morph/SavitzkyGolay) collapses here to a
// single pure function keyed by an enum, composed explicitly by callers
// rather than via virtual dispatch.
type FilterKind int

const (
	// Gaussian smooths with a truncated Gaussian kernel.
	Gaussian FilterKind = iota
	// TopHat performs a morphological opening (erosion then dilation) with a
	// flat structuring element, used to estimate and subtract a slowly
	// varying baseline.
	TopHat
	// SavitzkyGolay fits a local low-degree polynomial (here: quadratic) over
	// a sliding window and evaluates it at the window center.
	SavitzkyGolay
)

// FilterParams configures a 1-D filter. Sigma is used by Gaussian
// (standard deviation, same units as the sample spacing). HalfWidth is used
// by TopHat and SavitzkyGolay (window half-width in samples).
type FilterParams struct {
	Sigma     float64
	HalfWidth int
}

// Filter1D applies the named filter to signal and returns a new slice of the
// same length, by array index rather than any real x axis. Callers whose
// samples are uniformly spaced along x (e.g. a fixed scan rate) can use this
// directly; callers whose samples carry RT/scan gaps (e.g. a MassTrace that
// tolerates missed scans) should use ConvolveGaussianIrregular instead, which
// weights by the true x-distance between samples so the effective smoothing
// width tracks the requested sigma regardless of local sampling density.
func Filter1D(signal []float64, kind FilterKind, params FilterParams) []float64 {
	switch kind {
	case Gaussian:
		return convolveGaussian(signal, params.Sigma)
	case TopHat:
		return topHat(signal, params.HalfWidth)
	case SavitzkyGolay:
		return savitzkyGolayQuadratic(signal, params.HalfWidth)
	default:
		out := make([]float64, len(signal))
		copy(out, signal)
		return out
	}
}

// GaussianRadius returns the truncation radius (in samples) GaussianKernel
// uses for the given standard deviation, so callers can size edge cases
// (e.g. "too short to smooth meaningfully") without duplicating the
// +/-4*sigma truncation rule.
func GaussianRadius(sigma float64) int {
	if sigma <= 0 {
		return 1
	}
	radius := int(math.Ceil(4 * sigma))
	if radius < 1 {
		radius = 1
	}
	return radius
}

// GaussianKernel builds a normalized, truncated Gaussian kernel with the
// given standard deviation. The kernel is truncated at +/-4*sigma samples
// (clamped to at least 1 sample either side).
func GaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := GaussianRadius(sigma)
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func convolveGaussian(signal []float64, sigma float64) []float64 {
	kernel := GaussianKernel(sigma)
	return Convolve(signal, kernel)
}

// ConvolveGaussianIrregular smooths ys, sampled at real positions xs (xs
// must be non-decreasing but need not be uniformly spaced), with a Gaussian
// kernel evaluated from the true x-distance between samples rather than
// their index distance. A two-pointer sweep over the x-sorted input keeps
// each output sample's window to O(radius) neighbors instead of rescanning
// the whole series.
func ConvolveGaussianIrregular(xs, ys []float64, sigma float64) []float64 {
	n := len(xs)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if sigma <= 0 {
		copy(out, ys)
		return out
	}
	radiusX := 4 * sigma
	lo, hi := 0, 0
	for i := 0; i < n; i++ {
		for xs[i]-xs[lo] > radiusX {
			lo++
		}
		if hi < i {
			hi = i
		}
		for hi+1 < n && xs[hi+1]-xs[i] <= radiusX {
			hi++
		}
		var wsum, vsum float64
		for j := lo; j <= hi; j++ {
			d := xs[j] - xs[i]
			w := math.Exp(-(d * d) / (2 * sigma * sigma))
			wsum += w
			vsum += w * ys[j]
		}
		if wsum == 0 {
			out[i] = ys[i]
		} else {
			out[i] = vsum / wsum
		}
	}
	return out
}

// Convolve performs a 1-D convolution of signal with kernel using
// edge-replicated padding, returning a slice the same length as signal.
func Convolve(signal, kernel []float64) []float64 {
	n := len(signal)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	radius := len(kernel) / 2
	for i := 0; i < n; i++ {
		var acc float64
		for k, w := range kernel {
			j := i + k - radius
			if j < 0 {
				j = 0
			} else if j >= n {
				j = n - 1
			}
			acc += signal[j] * w
		}
		out[i] = acc
	}
	return out
}

// topHat performs white top-hat filtering: signal minus a morphological
// opening (erosion then dilation) over a window of half-width w. This
// estimates and removes a slowly varying baseline while preserving sharp
// peaks narrower than the structuring element.
func topHat(signal []float64, w int) []float64 {
	n := len(signal)
	out := make([]float64, n)
	if n == 0 || w <= 0 {
		copy(out, signal)
		return out
	}
	eroded := slidingExtreme(signal, w, math.Min)
	opened := slidingExtreme(eroded, w, math.Max)
	for i := range signal {
		out[i] = signal[i] - opened[i]
	}
	return out
}

func slidingExtreme(signal []float64, w int, pick func(a, b float64) float64) []float64 {
	n := len(signal)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo, hi := i-w, i+w
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		ext := signal[lo]
		for j := lo + 1; j <= hi; j++ {
			ext = pick(ext, signal[j])
		}
		out[i] = ext
	}
	return out
}

// savitzkyGolayQuadratic smooths signal with a local quadratic least-squares
// fit evaluated at each window's center, window half-width w.
func savitzkyGolayQuadratic(signal []float64, w int) []float64 {
	n := len(signal)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if w <= 0 {
		copy(out, signal)
		return out
	}
	for i := 0; i < n; i++ {
		lo, hi := i-w, i+w
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		out[i] = quadraticFitAt(signal, lo, hi, i)
	}
	return out
}

// quadraticFitAt fits y = a + b*t + c*t^2 (t centered at idx) over
// signal[lo:hi+1] by ordinary least squares and returns the fit value at idx.
func quadraticFitAt(signal []float64, lo, hi, idx int) float64 {
	var s0, s1, s2, s3, s4, sy0, sy1, sy2 float64
	for i := lo; i <= hi; i++ {
		t := float64(i - idx)
		y := signal[i]
		t2 := t * t
		s0++
		s1 += t
		s2 += t2
		s3 += t2 * t
		s4 += t2 * t2
		sy0 += y
		sy1 += t * y
		sy2 += t2 * y
	}
	// Solve the 3x3 normal-equations system [s0 s1 s2; s1 s2 s3; s2 s3 s4] * [a b c]' = [sy0 sy1 sy2]'
	a, _, _, ok := solve3(s0, s1, s2, s1, s2, s3, s2, s3, s4, sy0, sy1, sy2)
	if !ok {
		return signal[idx]
	}
	return a
}

// solve3 solves a 3x3 linear system via Cramer's rule; returns ok=false if
// the system is (near-)singular.
func solve3(a11, a12, a13, a21, a22, a23, a31, a32, a33, b1, b2, b3 float64) (x1, x2, x3 float64, ok bool) {
	det := a11*(a22*a33-a23*a32) - a12*(a21*a33-a23*a31) + a13*(a21*a32-a22*a31)
	if math.Abs(det) < 1e-12 {
		return 0, 0, 0, false
	}
	detX1 := b1*(a22*a33-a23*a32) - a12*(b2*a33-a23*b3) + a13*(b2*a32-a22*b3)
	detX2 := a11*(b2*a33-a23*b3) - b1*(a21*a33-a23*a31) + a13*(a21*b3-b2*a31)
	detX3 := a11*(a22*b3-b2*a32) - a12*(a21*b3-b2*a31) + b1*(a21*a32-a22*a31)
	return detX1 / det, detX2 / det, detX3 / det, true
}
