package msmodel

// IsotopePosition assigns one ElutionPeak to a position in a theoretical
// isotope envelope (0 = monoisotopic, 1 = first ¹³C satellite, ...).
type IsotopePosition struct {
	Position int
	Peak     *ElutionPeak
}

// IsotopePattern is a set of elution peaks assigned to positions 0..k of a
// theoretical isotope envelope at an integer charge.
type IsotopePattern struct {
	Charge     int
	Positions  []IsotopePosition
	FitScore   float64
	Singleton  bool // true if emitted as a charge-1, single-isotope fallback
}

// MonoPeak returns the position-0 elution peak, or nil if the pattern is
// empty.
func (p *IsotopePattern) MonoPeak() *ElutionPeak {
	for _, pos := range p.Positions {
		if pos.Position == 0 {
			return pos.Peak
		}
	}
	return nil
}

// Areas returns the integrated area of each assigned position, in the order
// of p.Positions; positions with no assigned peak have no entry (gaps are
// not filled with zeros).
func (p *IsotopePattern) Areas() []float64 {
	areas := make([]float64, len(p.Positions))
	for i, pos := range p.Positions {
		areas[i] = pos.Peak.Area
	}
	return areas
}
