package msmodel

import (
	"github.com/google/uuid"
	"github.com/openms-go/featurefinder/internal/ffgeom"
)

// Feature is the final, immutable output of the pipeline: one analyte, one
// charge, one elution event, with an integrated abundance.
type Feature struct {
	ID uuid.UUID

	MonoisotopicMZ      float64
	Charge              int
	ApexRT              float64
	IntegratedIntensity float64

	// ConvexHull is the planar convex hull, in (rt, mz), of every centroid
	// contributing to the feature.
	ConvexHull []ffgeom.Point

	// SubordinateHulls holds one convex hull per isotope position, in
	// position order.
	SubordinateHulls [][]ffgeom.Point

	QualityScore float64

	// Traces holds one subordinate MassTrace per assigned isotope position,
	// in position order (position 0 first).
	Traces []*MassTrace
}

// FeatureList is a set of Features, ordered by descending IntegratedIntensity
// once returned by internal/featureemit.
type FeatureList []Feature
