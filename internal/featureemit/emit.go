// Package featureemit implements C6: turning accepted isotope patterns into
// Feature records, as spec.md §4.6 describes. Convex hulls are computed by
// internal/ffgeom's monotone-chain algorithm, grounded on the teacher's
// OBB-fitting numeric style in internal/lidar/l4perception/obb_test.go and
// the Pose/geometry helpers in internal/lidar/pose.go, generalized from 3-D
// bounding boxes to a 2-D (rt, mz) convex hull.
package featureemit

import (
	"sort"

	"github.com/google/uuid"

	"github.com/openms-go/featurefinder/internal/ffgeom"
	"github.com/openms-go/featurefinder/internal/msmodel"
)

// Emit turns patterns into Features, sorted by descending integrated
// intensity per spec.md §4.6's last step.
func Emit(patterns []*msmodel.IsotopePattern) msmodel.FeatureList {
	features := make(msmodel.FeatureList, 0, len(patterns))
	for _, pat := range patterns {
		f := emitOne(pat)
		if f == nil {
			continue
		}
		features = append(features, *f)
	}
	sort.SliceStable(features, func(i, j int) bool {
		return features[i].IntegratedIntensity > features[j].IntegratedIntensity
	})
	return features
}

func emitOne(pat *msmodel.IsotopePattern) *msmodel.Feature {
	mono := pat.MonoPeak()
	if mono == nil {
		return nil
	}

	sort.Slice(pat.Positions, func(i, j int) bool { return pat.Positions[i].Position < pat.Positions[j].Position })

	var (
		allPts      []ffgeom.Point
		subHulls    [][]ffgeom.Point
		traces      []*msmodel.MassTrace
		apexRTs     []float64
		apexWeights []float64
		intensity   float64
	)
	for _, pos := range pat.Positions {
		peak := pos.Peak
		traces = append(traces, peak.Trace)

		pts := hullPointsOf(peak)
		allPts = append(allPts, pts...)
		subHulls = append(subHulls, ffgeom.ConvexHull(pts))

		apexRTs = append(apexRTs, peak.ApexRT())
		apexWeights = append(apexWeights, peak.Area)
		intensity += peak.Area
	}

	return &msmodel.Feature{
		ID:                  uuid.New(),
		MonoisotopicMZ:      mono.ApexMZ(),
		Charge:              pat.Charge,
		ApexRT:              ffgeom.WeightedMean(apexRTs, apexWeights),
		IntegratedIntensity: intensity,
		ConvexHull:          ffgeom.ConvexHull(allPts),
		SubordinateHulls:    subHulls,
		QualityScore:        qualityScore(pat),
		Traces:              traces,
	}
}

// hullPointsOf returns the (rt, mz) points of every centroid in peak's
// trace, the raw material for its convex hull.
func hullPointsOf(peak *msmodel.ElutionPeak) []ffgeom.Point {
	if peak.Trace == nil {
		return nil
	}
	pts := make([]ffgeom.Point, len(peak.Trace.Points))
	for i, tp := range peak.Trace.Points {
		pts[i] = ffgeom.Point{RT: tp.RT, MZ: tp.MZ}
	}
	return pts
}

// qualityScore combines the pattern's isotope fit score, a normalized
// trace-count factor (more confirmed isotope positions is stronger
// evidence, saturating at 4 positions), and a co-elution score (the
// smallest fraction of the monoisotopic peak's boundary range overlapped by
// any other position's peak),
// per spec.md §4.6.
func qualityScore(pat *msmodel.IsotopePattern) float64 {
	traceCountFactor := float64(len(pat.Positions)) / 4
	if traceCountFactor > 1 {
		traceCountFactor = 1
	}

	coelutionScore := 1.0
	mono := pat.MonoPeak()
	if mono != nil {
		for _, pos := range pat.Positions {
			if pos.Position == 0 {
				continue
			}
			overlap := mono.BoundaryOverlapFraction(pos.Peak)
			if overlap < coelutionScore {
				coelutionScore = overlap
			}
		}
	}

	fit := pat.FitScore
	if pat.Singleton {
		fit = 1.0 // no envelope to score against; let trace/coelution factors alone temper it
	}

	return fit * traceCountFactor * coelutionScore
}
