// Package masstrace implements C3: converting an Experiment's MS1
// subsequence into a set of MassTraces via seed-and-extend, as spec.md §4.2
// describes. Grounded on the teacher's accumulate-until-criterion pattern in
// internal/lidar/l2frames/frame_builder.go (azimuth-wrap / completeness-ratio
// termination is the RT-domain analogue of trace-termination criteria) and
// on internal/lidar/clustering.go's SpatialIndex, generalized here from 2-D
// world-point buckets to 1-D m/z-tolerance lookups per spectrum.
package masstrace

import (
	"context"
	"sort"

	"github.com/openms-go/featurefinder/internal/ffconfig"
	"github.com/openms-go/featurefinder/internal/fferrors"
	"github.com/openms-go/featurefinder/internal/fflog"
	"github.com/openms-go/featurefinder/internal/msmodel"
)

// Detect runs C3 over exp and returns MassTraces ordered by decreasing apex
// intensity. maxTraces, if > 0, truncates the result to that many traces
// (the detector's "max_traces_hint"). ctx is checked between seed
// iterations; a cancelled ctx aborts with fferrors.ErrCancelled and no
// partial output.
func Detect(ctx context.Context, exp msmodel.Experiment, params *ffconfig.FeatureDetectionParams, maxTraces int) ([]*msmodel.MassTrace, error) {
	if params.MzTolerance <= 0 {
		return nil, fferrors.InvalidParameter("mz_tolerance", "must be positive")
	}
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	ms1Idx := exp.MS1Indices()
	if len(ms1Idx) == 0 {
		return nil, nil
	}
	if len(ms1Idx) < params.MinSpectraForTrace {
		fflog.Diagf("masstrace: only %d MS1 spectra, fewer than min_spectra_for_trace=%d; no traces possible",
			len(ms1Idx), params.MinSpectraForTrace)
		return nil, nil
	}

	spectra := make([]msmodel.Spectrum, len(ms1Idx))
	for i, idx := range ms1Idx {
		spectra[i] = exp.Spectra[idx]
	}

	medianPeriod := medianScanPeriod(spectra)
	noiseEstimators := buildNoiseEstimators(spectra, params)

	consumed := newConsumedSet(spectra)
	seeds := collectSeeds(spectra, noiseEstimators, params)

	var traces []*msmodel.MassTrace
	for _, seed := range seeds {
		select {
		case <-ctx.Done():
			return nil, fferrors.Cancelled()
		default:
		}

		if consumed.Get(seed.msIdx, seed.centroidIdx) {
			continue
		}

		cand := buildCandidate(spectra, ms1Idx, consumed, seed, params)
		if !accept(cand, medianPeriod, params) {
			continue
		}

		for _, pt := range cand {
			consumed.Set(spectraMsIdxOf(pt, ms1Idx), pt.CentroidIndex)
		}

		points := make([]msmodel.TracePoint, len(cand))
		copy(points, cand)
		sort.Slice(points, func(i, j int) bool { return points[i].RT < points[j].RT })
		traces = append(traces, msmodel.NewMassTrace(points))
	}

	sort.SliceStable(traces, func(i, j int) bool {
		ii, ij := traces[i].ApexIndex, traces[j].ApexIndex
		return traces[i].Points[ii].Intensity > traces[j].Points[ij].Intensity
	})

	if maxTraces > 0 && len(traces) > maxTraces {
		traces = traces[:maxTraces]
	}

	fflog.Diagf("masstrace: %d seeds -> %d accepted traces", len(seeds), len(traces))
	return traces, nil
}

// spectraMsIdxOf recovers the ms1-sequence index for a TracePoint, whose
// SpectrumIndex is the original Experiment index. ms1Idx maps ms1-sequence
// position -> original index; since both are ascending we binary search.
func spectraMsIdxOf(pt msmodel.TracePoint, ms1Idx []int) int {
	i := sort.SearchInts(ms1Idx, pt.SpectrumIndex)
	return i
}
