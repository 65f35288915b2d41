// Package isotope implements C5: grouping co-eluting elution peaks into
// isotope patterns at plausible integer charges, as spec.md §4.5 describes.
// Grounded on the teacher's internal/lidar/hungarian.go assignment-scoring
// structure (best candidate among several, by descending score, with
// deterministic tie-breaks), generalized here from track<->detection
// assignment to peak<->isotope-position assignment, and on
// internal/lidar/dbscan_clusterer.go's pattern of a pure algorithm wrapped
// behind a small "run once per input set" entry point.
package isotope

import (
	"sort"

	"github.com/openms-go/featurefinder/internal/ffconfig"
	"github.com/openms-go/featurefinder/internal/ffgeom"
	"github.com/openms-go/featurefinder/internal/isotope/averagine"
	"github.com/openms-go/featurefinder/internal/msmodel"
)

// peakIndex supports range queries over elution peaks by mean m/z.
type peakIndex struct {
	peaks []*msmodel.ElutionPeak
	order []int // indices into peaks, sorted ascending by ApexMZ
}

func newPeakIndex(peaks []*msmodel.ElutionPeak) *peakIndex {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return peaks[order[i]].ApexMZ() < peaks[order[j]].ApexMZ() })
	return &peakIndex{peaks: peaks, order: order}
}

// nearest returns the index (into peaks, not into idx.order) of the
// unconsumed peak nearest targetMZ within tol, or -1 if none qualifies.
func (idx *peakIndex) nearest(targetMZ, tol float64, consumed []bool) int {
	lo := sort.Search(len(idx.order), func(i int) bool {
		return idx.peaks[idx.order[i]].ApexMZ() >= targetMZ-tol
	})

	best := -1
	bestDist := tol
	for i := lo; i < len(idx.order); i++ {
		pi := idx.order[i]
		mz := idx.peaks[pi].ApexMZ()
		if mz > targetMZ+tol {
			break
		}
		if consumed[pi] {
			continue
		}
		d := abs(mz - targetMZ)
		if d <= bestDist {
			best = pi
			bestDist = d
		}
	}
	return best
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// chargeCandidate is one charge hypothesis evaluated for a seed peak.
type chargeCandidate struct {
	charge    int
	positions []msmodel.IsotopePosition
	peakIdxs  []int // indices into the Assemble call's peaks slice, parallel to positions
	fitScore  float64
	sumAreas  float64
}

// Assemble runs C5 over peaks (elution peaks already produced by C4),
// returning IsotopePatterns ordered by decreasing apex intensity of their
// monoisotopic peak. model supplies the averagine envelope used for fit
// scoring; pass averagine.PeptideModel for the default.
func Assemble(peaks []*msmodel.ElutionPeak, params *ffconfig.FeatureDetectionParams, model averagine.Model) []*msmodel.IsotopePattern {
	if len(peaks) == 0 {
		return nil
	}

	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return peaks[order[i]].ApexIntensity() > peaks[order[j]].ApexIntensity()
	})

	idx := newPeakIndex(peaks)
	consumed := make([]bool, len(peaks))

	var patterns []*msmodel.IsotopePattern
	for _, p0i := range order {
		if consumed[p0i] {
			continue
		}
		p0 := peaks[p0i]

		var best *chargeCandidate
		for z := params.ChargeRange.Min; z <= params.ChargeRange.Max; z++ {
			cand := evaluateCharge(p0, p0i, idx, consumed, params, model, z)
			if cand == nil {
				continue
			}
			if betterCandidate(cand, best) {
				best = cand
			}
		}

		if best != nil && best.fitScore >= params.IsoMinScore {
			best = applyMonoisotopicShift(p0, best, params, model)
			for _, pi := range best.peakIdxs {
				consumed[pi] = true
			}
			patterns = append(patterns, &msmodel.IsotopePattern{
				Charge:    best.charge,
				Positions: best.positions,
				FitScore:  best.fitScore,
			})
			continue
		}

		if params.AllowSingletons {
			consumed[p0i] = true
			patterns = append(patterns, &msmodel.IsotopePattern{
				Charge:    1,
				Positions: []msmodel.IsotopePosition{{Position: 0, Peak: p0}},
				FitScore:  0,
				Singleton: true,
			})
		}
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return apexIntensityOf(patterns[i]) > apexIntensityOf(patterns[j])
	})
	return patterns
}

func apexIntensityOf(p *msmodel.IsotopePattern) float64 {
	mono := p.MonoPeak()
	if mono == nil {
		return 0
	}
	return mono.ApexIntensity()
}

// evaluateCharge walks isotope positions 1..K (K from the averagine
// envelope's length for the monoisotopic mass estimate at charge z),
// stopping at the first position with no qualifying candidate, per
// spec.md §4.5.
func evaluateCharge(p0 *msmodel.ElutionPeak, p0i int, idx *peakIndex, consumed []bool, params *ffconfig.FeatureDetectionParams, model averagine.Model, z int) *chargeCandidate {
	mono := (p0.ApexMZ() - averagine.ProtonMass) * float64(z)
	env := averagine.Envelope(model, mono)

	positions := []msmodel.IsotopePosition{{Position: 0, Peak: p0}}
	areas := []float64{p0.Area}
	claimed := []int{p0i}

	for k := 1; k < len(env); k++ {
		targetMZ := p0.ApexMZ() + averagine.IsotopeSpacingDa*float64(k)/float64(z)
		tol := toleranceDa(targetMZ, params.MzTolerance, params.MzToleranceUnit)

		ci := idx.nearest(targetMZ, tol, consumed)
		if ci < 0 || contains(claimed, ci) {
			break
		}
		cand := idx.peaks[ci]
		if !coElutes(p0, cand, params) {
			break
		}
		if !envelopeConsistent(areas, env, cand.Area, k) {
			break
		}

		positions = append(positions, msmodel.IsotopePosition{Position: k, Peak: cand})
		areas = append(areas, cand.Area)
		claimed = append(claimed, ci)
	}

	if len(positions) < 2 {
		// A lone, unconfirmed peak is not a pattern at this charge; let the
		// caller's singleton fallback (if enabled) handle it once, not once
		// per charge.
		return &chargeCandidate{charge: z, positions: positions, peakIdxs: claimed, fitScore: 0, sumAreas: areas[0]}
	}

	fit := ffgeom.PearsonCorrelation(areas, env[:len(areas)])
	sum := 0.0
	for _, a := range areas {
		sum += a
	}
	return &chargeCandidate{charge: z, positions: positions, peakIdxs: claimed, fitScore: fit, sumAreas: sum}
}

// coElutes checks spec.md §4.5's co-elution test: apex RT difference under
// RTTolerance, and boundary overlap fraction at least CoelutionOverlap.
func coElutes(a, b *msmodel.ElutionPeak, params *ffconfig.FeatureDetectionParams) bool {
	if abs(a.ApexRT()-b.ApexRT()) >= params.RTTolerance {
		return false
	}
	return a.BoundaryOverlapFraction(b) >= params.CoelutionOverlap
}

// envelopeConsistent is a loose monotonic/envelope-consistency gate: reject
// a candidate whose area, relative to the seed's area, overshoots the
// averagine-predicted ratio by more than a generous factor (rules out
// picking up an unrelated, much larger co-eluting signal as an isotope
// satellite).
func envelopeConsistent(areas, env []float64, candidateArea float64, position int) bool {
	if position >= len(env) || env[0] <= 0 {
		return false
	}
	predictedRatio := env[position] / env[0]
	observedRatio := candidateArea / areas[0]
	const slack = 4.0
	return observedRatio <= predictedRatio*slack+1e-9
}

// applyMonoisotopicShift tests whether the matched series actually starts
// one isotope position later than assumed: if the averagine model predicts
// a larger intensity at position 0 than observed, the true monoisotopic may
// be missing (below noise) and the provisional position-0 peak is really
// position 1. When the shifted alignment scores higher, re-label positions
// and apply a score penalty, per spec.md §4.5's "Monoisotopic selection".
func applyMonoisotopicShift(p0 *msmodel.ElutionPeak, cand *chargeCandidate, params *ffconfig.FeatureDetectionParams, model averagine.Model) *chargeCandidate {
	if len(cand.positions) < 2 {
		return cand
	}
	mono := (p0.ApexMZ() - averagine.ProtonMass) * float64(cand.charge)
	env := averagine.Envelope(model, mono)
	if env[0] <= 0 {
		return cand
	}

	areas := make([]float64, len(cand.positions))
	for i, pos := range cand.positions {
		areas[i] = pos.Peak.Area
	}
	observedRatio := areas[0] / sumOf(areas)
	predictedRatio := env[0] / sumOf(env[:len(areas)])
	if predictedRatio <= observedRatio*1.5 {
		return cand // position-0 intensity is not suspiciously over-predicted
	}
	if len(env) < len(areas)+1 {
		return cand // no room to shift: envelope too short
	}

	shiftedFit := ffgeom.PearsonCorrelation(areas, env[1:len(areas)+1])
	if shiftedFit <= cand.fitScore {
		return cand
	}

	shifted := make([]msmodel.IsotopePosition, len(cand.positions))
	for i, pos := range cand.positions {
		shifted[i] = msmodel.IsotopePosition{Position: pos.Position + 1, Peak: pos.Peak}
	}
	const shiftPenalty = 0.9
	return &chargeCandidate{charge: cand.charge, positions: shifted, peakIdxs: cand.peakIdxs, fitScore: shiftedFit * shiftPenalty, sumAreas: cand.sumAreas}
}

func sumOf(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// betterCandidate applies spec.md §4.5's tie-break rule: highest
// (fit score x sum of areas) wins; on ties, lower charge wins; on further
// ties, smallest m/z wins (m/z is identical across candidates sharing a
// seed peak, so this reduces to "earlier charge tried first" in practice).
func betterCandidate(cand, best *chargeCandidate) bool {
	if best == nil {
		return cand.fitScore > 0
	}
	candScore := cand.fitScore * cand.sumAreas
	bestScore := best.fitScore * best.sumAreas
	if candScore != bestScore {
		return candScore > bestScore
	}
	return cand.charge < best.charge
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func toleranceDa(ref, tol float64, unit ffconfig.MzToleranceUnit) float64 {
	if unit == ffconfig.PPM {
		return ref * tol * 1e-6
	}
	return tol
}
