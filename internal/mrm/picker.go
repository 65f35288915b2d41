package mrm

import (
	"context"

	"github.com/openms-go/featurefinder/internal/ffgeom"
	"github.com/openms-go/featurefinder/internal/fferrors"
	"github.com/openms-go/featurefinder/internal/fflog"
	"github.com/openms-go/featurefinder/internal/msmodel"
	"github.com/openms-go/featurefinder/internal/noise"
)

// PickChromatogram runs C7 over a single chromatogram, dispatching to the
// method selected in params. Non-monotonic RTs are rejected as
// ErrInputMalformed; an empty chromatogram returns an empty result with no
// error, per spec.md §4.4's "Fails" clause.
func PickChromatogram(ctx context.Context, chrom msmodel.Chromatogram, params *Params) (msmodel.PickedChromatogram, error) {
	if err := params.Validate(); err != nil {
		return msmodel.PickedChromatogram{}, err
	}
	select {
	case <-ctx.Done():
		return msmodel.PickedChromatogram{}, fferrors.Cancelled()
	default:
	}
	if len(chrom.Points) == 0 {
		return msmodel.PickedChromatogram{}, nil
	}
	if !chrom.IsSortedByRT() {
		return msmodel.PickedChromatogram{}, fferrors.InputMalformed("chromatogram RTs must be strictly increasing")
	}

	switch params.Method {
	case Legacy:
		return pickLegacy(chrom, params)
	case Corrected:
		return pickCorrected(chrom, params)
	case Crawdad:
		if params.ExternalPicker == nil {
			return msmodel.PickedChromatogram{}, fferrors.InvalidParameter("method", "crawdad method requires ExternalPicker to be set")
		}
		fflog.Diagf("mrm: delegating to external picker %q", params.ExternalPicker.Name())
		return params.ExternalPicker.PickChromatogram(chrom, params)
	default:
		return msmodel.PickedChromatogram{}, fferrors.InvalidParameter("method", "unknown picking method")
	}
}

// PickMany runs PickChromatogram over every chromatogram in turn, per
// spec.md §5's "C4 and C7 are embarrassingly parallel across
// traces/chromatograms" — run sequentially here, as no concurrency grain
// has yet been wired at this call site (mirrors internal/elution.Split,
// which is likewise sequential pending a driver-level parallel fan-out).
func PickMany(ctx context.Context, chroms []msmodel.Chromatogram, params *Params) ([]msmodel.PickedChromatogram, error) {
	out := make([]msmodel.PickedChromatogram, len(chroms))
	for i, c := range chroms {
		select {
		case <-ctx.Done():
			return nil, fferrors.Cancelled()
		default:
		}
		picked, err := PickChromatogram(ctx, c, params)
		if err != nil {
			return nil, err
		}
		out[i] = picked
	}
	return out, nil
}

func rts(chrom msmodel.Chromatogram) []float64 {
	xs := make([]float64, len(chrom.Points))
	for i, p := range chrom.Points {
		xs[i] = p.RT
	}
	return xs
}

func intensities(chrom msmodel.Chromatogram) []float64 {
	ys := make([]float64, len(chrom.Points))
	for i, p := range chrom.Points {
		ys[i] = p.Intensity
	}
	return ys
}

func noiseFloorFn(chrom msmodel.Chromatogram, params *Params) func(rt float64) float64 {
	samples := make([]noise.Sample, len(chrom.Points))
	for i, p := range chrom.Points {
		samples[i] = noise.Sample{X: p.RT, Intensity: p.Intensity}
	}
	est, err := noise.Estimate(samples, params.NoiseWindowWidth)
	if err != nil {
		return func(float64) float64 { return 1.0 }
	}
	return est.At
}

// rawLocalMaxima returns indices i (1 <= i <= n-2) where intensities[i] is
// greater than its left neighbour and not less than its right neighbour.
func rawLocalMaxima(ys []float64) []int {
	var maxima []int
	for i := 1; i < len(ys)-1; i++ {
		if ys[i] > ys[i-1] && ys[i] >= ys[i+1] {
			maxima = append(maxima, i)
		}
	}
	return maxima
}

// trapezoidalArea integrates intensity over rt via the trapezoidal rule.
func trapezoidalArea(xs, ys []float64) float64 {
	var area float64
	for i := 1; i < len(xs); i++ {
		area += (xs[i] - xs[i-1]) * (ys[i] + ys[i-1]) / 2
	}
	return area
}

// interpAt linearly interpolates ys at x, given xs strictly increasing and
// x within [xs[0], xs[len-1]].
func interpAt(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	for i := 1; i < n; i++ {
		if xs[i] >= x {
			frac := (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + frac*(ys[i]-ys[i-1])
		}
	}
	return ys[n-1]
}

// pickLegacy implements spec.md §4.4's LEGACY method: quadratic fit through
// the 3 samples around each local max refines the apex, boundaries are
// placed at a fixed symmetric RT offset (PeakWidth) from that apex.
func pickLegacy(chrom msmodel.Chromatogram, params *Params) (msmodel.PickedChromatogram, error) {
	xs, ys := rts(chrom), intensities(chrom)
	noiseAt := noiseFloorFn(chrom, params)

	var peaks []msmodel.PickedChromatogramPeak
	for _, i := range rawLocalMaxima(ys) {
		apexRT, apexIntensity := quadraticApex(xs, ys, i)

		floor := noiseAt(apexRT) * params.SignalToNoiseThreshold
		if apexIntensity <= floor {
			continue
		}

		left := apexRT - params.PeakWidth
		if left < xs[0] {
			left = xs[0]
		}
		right := apexRT + params.PeakWidth
		if right > xs[len(xs)-1] {
			right = xs[len(xs)-1]
		}
		if !(left < apexRT && apexRT < right) {
			continue
		}

		area := integrateBetween(xs, ys, left, right)
		if area <= 0 {
			continue
		}

		peaks = append(peaks, msmodel.PickedChromatogramPeak{
			ApexRT:        apexRT,
			ApexIntensity: apexIntensity,
			Area:          area,
			LeftRT:        left,
			RightRT:       right,
		})
	}
	return msmodel.PickedChromatogram{Peaks: peaks}, nil
}

// quadraticApex fits y = a + b*t + c*t^2 (t centered at xs[i]) through
// (xs[i-1..i+1], ys[i-1..i+1]) and returns the parabola's vertex in (rt,
// intensity), falling back to the raw sample if the fit is degenerate or
// the vertex falls outside the 3-sample window.
func quadraticApex(xs, ys []float64, i int) (rt, intensity float64) {
	if i-1 < 0 || i+1 >= len(xs) {
		return xs[i], ys[i]
	}
	x0, x1, x2 := xs[i-1], xs[i], xs[i+1]
	y0, y1, y2 := ys[i-1], ys[i], ys[i+1]

	t0, t2 := x0-x1, x2-x1 // t1 == 0 by construction
	denom := t0 * t2 * (t0 - t2)
	if denom == 0 {
		return x1, y1
	}
	c := (t2*(y0-y1) - t0*(y2-y1)) / denom
	b := (y2 - y1 - c*t2*t2) / t2
	if c >= 0 {
		return x1, y1 // not a concave-down fit; keep the raw sample
	}
	tVertex := -b / (2 * c)
	if tVertex < t0 || tVertex > t2 {
		return x1, y1
	}
	rt = x1 + tVertex
	intensity = y1 + b*tVertex + c*tVertex*tVertex
	return rt, intensity
}

// integrateBetween trapezoidally integrates the raw samples clipped to
// [left, right], with linearly interpolated values inserted at the exact
// boundaries.
func integrateBetween(xs, ys []float64, left, right float64) float64 {
	var clipX, clipY []float64
	clipX = append(clipX, left)
	clipY = append(clipY, interpAt(xs, ys, left))
	for i := range xs {
		if xs[i] > left && xs[i] < right {
			clipX = append(clipX, xs[i])
			clipY = append(clipY, ys[i])
		}
	}
	clipX = append(clipX, right)
	clipY = append(clipY, interpAt(xs, ys, right))
	return trapezoidalArea(clipX, clipY)
}

// pickCorrected implements spec.md §4.4's CORRECTED method: fit a cubic
// spline through the raw samples, refine each raw local maximum to the
// spline's nearest zero-derivative point, then search outward for the
// first derivative zero-crossing (inflection) or sub-noise-floor sample.
func pickCorrected(chrom msmodel.Chromatogram, params *Params) (msmodel.PickedChromatogram, error) {
	xs, ys := rts(chrom), intensities(chrom)
	if len(xs) < 2 {
		return msmodel.PickedChromatogram{}, nil
	}
	spline, err := ffgeom.FitCubicSpline(xs, ys)
	if err != nil {
		return msmodel.PickedChromatogram{}, fferrors.Numerical("mrm: fit cubic spline: " + err.Error())
	}
	noiseAt := noiseFloorFn(chrom, params)

	var peaks []msmodel.PickedChromatogramPeak
	for _, i := range rawLocalMaxima(ys) {
		apexRT, ok := refineApex(spline, xs, i, params.BoundaryTolerance)
		if !ok {
			apexRT = xs[i]
		}
		apexIntensity := spline.Eval(apexRT)

		floor := noiseAt(apexRT) * params.SignalToNoiseThreshold
		if apexIntensity <= floor {
			continue
		}

		left := searchBoundary(spline, xs, i, -1, floor, params.BoundaryTolerance)
		right := searchBoundary(spline, xs, i, +1, floor, params.BoundaryTolerance)
		if !(left < apexRT && apexRT < right) {
			continue
		}

		area := integrateBetween(xs, ys, left, right)
		if area <= 0 {
			continue
		}

		peaks = append(peaks, msmodel.PickedChromatogramPeak{
			ApexRT:        apexRT,
			ApexIntensity: apexIntensity,
			Area:          area,
			LeftRT:        left,
			RightRT:       right,
		})
	}
	return msmodel.PickedChromatogram{Peaks: peaks}, nil
}

// refineApex bisects the spline's derivative across the sample window
// straddling raw local max i, returning the subsample-resolution zero of
// the derivative (the refined apex).
func refineApex(spline *ffgeom.Spline, xs []float64, i int, tol float64) (float64, bool) {
	if i-1 < 0 || i+1 >= len(xs) {
		return xs[i], false
	}
	return ffgeom.BisectZero(spline.EvalDerivative, xs[i-1], xs[i+1], tol)
}

// searchBoundary walks outward from raw index i in direction dir (-1 left,
// +1 right) one sample at a time, stopping at the first sample where the
// spline's derivative has flipped sign since the apex (an inflection) or
// the spline value drops to/below floor. The returned boundary is refined
// by bisection to sub-sample resolution where a genuine sign change drove
// the stop.
func searchBoundary(spline *ffgeom.Spline, xs []float64, apexIdx, dir int, floor, tol float64) float64 {
	lo, hi := spline.Domain()
	prevX := xs[apexIdx]
	prevDeriv := spline.EvalDerivative(prevX)

	j := apexIdx + dir
	for j >= 0 && j < len(xs) {
		x := xs[j]
		d := spline.EvalDerivative(x)
		v := spline.Eval(x)

		if v <= floor {
			return x
		}
		if (d > 0) != (prevDeriv > 0) && d != 0 && prevDeriv != 0 {
			a, b := prevX, x
			if a > b {
				a, b = b, a
			}
			if root, ok := ffgeom.BisectZero(spline.EvalDerivative, a, b, tol); ok {
				return root
			}
			return x
		}
		prevX, prevDeriv = x, d
		j += dir
	}
	if dir < 0 {
		return lo
	}
	return hi
}
