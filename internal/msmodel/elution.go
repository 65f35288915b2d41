package msmodel

// ElutionPeak is a contiguous subrange of a MassTrace in RT with a single
// detected maximum, produced by splitting a MassTrace (internal/elution).
// Every centroid of a trace belongs to at most one ElutionPeak; boundary
// centroids outside [LeftRT, RightRT] are discarded by the splitter.
type ElutionPeak struct {
	Trace *MassTrace

	// SmoothedIntensity is the Gaussian-smoothed intensity profile over the
	// peak's Trace.Points, aligned index-for-index. C5 may use it instead of
	// raw intensity for area integration.
	SmoothedIntensity []float64

	LeftRT  float64
	RightRT float64
	Area    float64
}

// ApexRT returns the retention time of the trace's raw maximum-intensity
// centroid (Trace.ApexIndex).
func (p *ElutionPeak) ApexRT() float64 {
	if p.Trace == nil || p.Trace.ApexIndex < 0 || p.Trace.ApexIndex >= len(p.Trace.Points) {
		return 0
	}
	return p.Trace.Points[p.Trace.ApexIndex].RT
}

// ApexMZ returns the mean m/z of the underlying trace.
func (p *ElutionPeak) ApexMZ() float64 {
	if p.Trace == nil {
		return 0
	}
	return p.Trace.MeanMZ
}

// ApexIntensity returns the raw intensity of the trace's apex centroid.
func (p *ElutionPeak) ApexIntensity() float64 {
	if p.Trace == nil || p.Trace.ApexIndex < 0 || p.Trace.ApexIndex >= len(p.Trace.Points) {
		return 0
	}
	return p.Trace.Points[p.Trace.ApexIndex].Intensity
}

// BoundaryOverlapFraction returns the fraction of [p.LeftRT, p.RightRT]
// covered by the intersection with [o.LeftRT, o.RightRT], used by the
// co-elution test in internal/isotope.
func (p *ElutionPeak) BoundaryOverlapFraction(o *ElutionPeak) float64 {
	width := p.RightRT - p.LeftRT
	if width <= 0 {
		return 0
	}
	lo := max(p.LeftRT, o.LeftRT)
	hi := min(p.RightRT, o.RightRT)
	overlap := hi - lo
	if overlap <= 0 {
		return 0
	}
	return overlap / width
}
