// Package ffgeom provides the small numeric substrate shared by the
// feature-detection components: convex hulls over (rt, mz) points, 1-D
// filters (Gaussian/top-hat/Savitzky-Golay), weighted statistics, cubic-spline
// interpolation and monotone root finding. None of it is domain-specific to
// MS beyond the (rt, mz) point type; components C2-C7 build on top of it.
package ffgeom

import (
	"math"
	"sort"
)

// Point is a position in the retention-time x m/z plane.
type Point struct {
	RT float64
	MZ float64
}

// ConvexHull computes the planar convex hull of pts using Andrew's monotone
// chain algorithm, returning vertices in counter-clockwise order starting
// from the lowest-RT (then lowest-MZ) point. Collinear boundary points are
// dropped. Fewer than 3 distinct points are returned as-is (deduplicated).
func ConvexHull(pts []Point) []Point {
	uniq := dedupeSorted(pts)
	n := len(uniq)
	if n < 3 {
		return uniq
	}

	hull := make([]Point, 0, 2*n)

	// Lower hull.
	for _, p := range uniq {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Upper hull.
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := uniq[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	return hull[:len(hull)-1]
}

func dedupeSorted(pts []Point) []Point {
	out := make([]Point, len(pts))
	copy(out, pts)
	sort.Slice(out, func(i, j int) bool {
		if out[i].RT != out[j].RT {
			return out[i].RT < out[j].RT
		}
		return out[i].MZ < out[j].MZ
	})
	uniq := out[:0]
	for i, p := range out {
		if i == 0 || p != out[i-1] {
			uniq = append(uniq, p)
		}
	}
	return uniq
}

func cross(o, a, b Point) float64 {
	return (a.RT-o.RT)*(b.MZ-o.MZ) - (a.MZ-o.MZ)*(b.RT-o.RT)
}

// WeightedMean returns the intensity-weighted mean of values. Returns 0 for
// an empty or zero-total-weight input.
func WeightedMean(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	var sumW, sumWV float64
	for i, v := range values {
		w := weights[i]
		sumW += w
		sumWV += w * v
	}
	if sumW == 0 {
		return 0
	}
	return sumWV / sumW
}

// WeightedStdDev returns the intensity-weighted standard deviation of values
// around their weighted mean.
func WeightedStdDev(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	mean := WeightedMean(values, weights)
	var sumW, sumWSq float64
	for i, v := range values {
		w := weights[i]
		d := v - mean
		sumW += w
		sumWSq += w * d * d
	}
	if sumW == 0 {
		return 0
	}
	if sumWSq < 0 {
		return 0
	}
	return math.Sqrt(sumWSq / sumW)
}
