// Package featurefinder implements C8: the top-level driver composing
// C3 (internal/masstrace) -> C4 (internal/elution) -> C5 (internal/isotope)
// -> C6 (internal/featureemit) into a single call, as spec.md §4.7
// describes. Grounded on the teacher's top-level pipeline-composition style
// in internal/lidar/pipeline.go (a phase-scoped sequence of stages, each
// logged and each capable of aborting the whole run), generalized here from
// a frame-processing pipeline to a whole-experiment batch run.
package featurefinder

import (
	"context"

	"github.com/openms-go/featurefinder/internal/elution"
	"github.com/openms-go/featurefinder/internal/featureemit"
	"github.com/openms-go/featurefinder/internal/ffconfig"
	"github.com/openms-go/featurefinder/internal/fferrors"
	"github.com/openms-go/featurefinder/internal/fflog"
	"github.com/openms-go/featurefinder/internal/isotope"
	"github.com/openms-go/featurefinder/internal/isotope/averagine"
	"github.com/openms-go/featurefinder/internal/masstrace"
	"github.com/openms-go/featurefinder/internal/msmodel"
)

// RunFeatureDetection composes C3->C4->C5->C6 over exp, per spec.md §4.7.
// On any error from a subcomponent the partial output is discarded and the
// error propagates; there is no partial FeatureList on a non-nil error.
// maxTraces, if > 0, caps the number of mass traces C3 carries forward (the
// "max_traces_hint" of spec.md §6); pass 0 for no cap. model supplies the
// averagine envelope C5 scores candidates against; pass
// averagine.PeptideModel for the default.
func RunFeatureDetection(ctx context.Context, exp msmodel.Experiment, params *ffconfig.FeatureDetectionParams, maxTraces int, model averagine.Model) (msmodel.FeatureList, error) {
	if err := params.Validate(); err != nil {
		fflog.Opsf("featurefinder: rejected run: %s", err)
		return nil, err
	}
	if model == nil {
		model = averagine.PeptideModel
	}

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	if exp.MS1Count() == 0 {
		if params.StrictEmpty {
			return nil, fferrors.EmptyInput("no MS1 spectra present")
		}
		fflog.Diagf("featurefinder: no MS1 spectra, returning empty result")
		return msmodel.FeatureList{}, nil
	}

	fflog.Opskv("featurefinder: starting run", fflog.F("spectra", len(exp.Spectra)), fflog.F("ms1", exp.MS1Count()))

	traces, err := masstrace.Detect(ctx, exp, params, maxTraces)
	if err != nil {
		return nil, err
	}
	fflog.Diagkv("featurefinder: C3 done", fflog.F("mass_traces", len(traces)))

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	peaks := elution.Split(traces, params)
	fflog.Diagkv("featurefinder: C4 done", fflog.F("elution_peaks", len(peaks)))

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	patterns := isotope.Assemble(peaks, params, model)
	fflog.Diagkv("featurefinder: C5 done", fflog.F("isotope_patterns", len(patterns)))

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	features := featureemit.Emit(patterns)
	fflog.Opskv("featurefinder: run complete", fflog.F("features", len(features)))
	return features, nil
}

func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fferrors.Cancelled()
	default:
		return nil
	}
}
