// Package ffconfig provides FeatureDetectionParams, the flat configuration
// consumed by internal/featurefinder and its subcomponents. It follows the
// same builder shape as the teacher's BackgroundConfig
// (internal/lidar.BackgroundConfig in the teacher repository): a
// Default...() constructor, fluent With...() setters, and a Validate()
// method enumerating every documented domain constraint.
package ffconfig

import (
	"fmt"

	"github.com/openms-go/featurefinder/internal/fferrors"
)

// MzToleranceUnit selects how MzTolerance is interpreted.
type MzToleranceUnit int

const (
	// PPM interprets MzTolerance as parts-per-million, relative to the
	// current reference m/z (re-evaluated after every running-mean update).
	PPM MzToleranceUnit = iota
	// DA interprets MzTolerance as an absolute tolerance in Daltons.
	DA
)

func (u MzToleranceUnit) String() string {
	switch u {
	case PPM:
		return "ppm"
	case DA:
		return "da"
	default:
		return "unknown"
	}
}

// TraceTerminationCriterion selects how C3 decides a trace has stopped
// eluting.
type TraceTerminationCriterion int

const (
	// Outlier stops extension after TraceTerminationOutliers consecutive
	// spectra without a match.
	Outlier TraceTerminationCriterion = iota
	// SampleRate stops extension when the trailing matched/traversed ratio
	// drops below MinSampleRate.
	SampleRate
)

// WidthFiltering selects how C4 filters elution peaks by estimated FWHM.
type WidthFiltering int

const (
	// WidthFilterOff disables width-based filtering.
	WidthFilterOff WidthFiltering = iota
	// WidthFilterFixed drops peaks outside a fixed [MinPeakWidth,
	// MaxPeakWidth] range.
	WidthFilterFixed
	// WidthFilterAuto drops peaks outside the (5%, 95%) quantiles of all
	// detected widths in the current run (a two-pass: collect widths, then
	// filter — see SPEC_FULL.md §9 for why this, not reservoir sampling,
	// was chosen).
	WidthFilterAuto
)

// ChargeRange is an inclusive [Min, Max] charge span considered by C5.
type ChargeRange struct {
	Min int
	Max int
}

// FeatureDetectionParams is the flat configuration carried by
// runFeatureDetection, mirroring the table in spec.md §6.
type FeatureDetectionParams struct {
	MzTolerance     float64
	MzToleranceUnit MzToleranceUnit

	MinTraceLength int
	MinSampleRate  float64

	TraceTerminationCriterion TraceTerminationCriterion
	TraceTerminationOutliers  int

	MinSpectraForTrace int

	ChromFWHM    float64
	ChromPeakSNR float64

	WidthFiltering WidthFiltering
	MinPeakWidth   float64
	MaxPeakWidth   float64

	ChargeRange      ChargeRange
	IsoMinScore      float64
	CoelutionOverlap float64
	AllowSingletons  bool
	// RTTolerance bounds the apex-RT difference allowed between co-eluting
	// isotope-position candidates in C5 (spec.md §4.5's rt_tolerance, left
	// undefaulted by the external interface table; defaulted here to
	// 2*ChromFWHM by DefaultFeatureDetectionParams — see DESIGN.md).
	RTTolerance float64

	EnableElutionSplitting bool

	// NoiseWindowWidth is the window length W used by C2 (internal/noise).
	NoiseWindowWidth float64
	// NoiseThresholdInt is a fixed noise floor for seed eligibility; 0
	// disables the fixed floor in favor of NoiseAuto.
	NoiseThresholdInt float64
	// NoiseAuto, if true, derives per-spectrum thresholds from C2 instead of
	// NoiseThresholdInt.
	NoiseAuto bool

	// StrictEmpty, if true, makes an experiment with no MS1 spectra an error
	// (ErrEmptyInput) instead of an empty FeatureList.
	StrictEmpty bool
}

// DefaultFeatureDetectionParams returns the defaults enumerated in spec.md §6.
func DefaultFeatureDetectionParams() *FeatureDetectionParams {
	return &FeatureDetectionParams{
		MzTolerance:               20,
		MzToleranceUnit:           PPM,
		MinTraceLength:            5,
		MinSampleRate:             0.5,
		TraceTerminationCriterion: Outlier,
		TraceTerminationOutliers:  5,
		MinSpectraForTrace:        3,
		ChromFWHM:                 5,
		ChromPeakSNR:              3,
		WidthFiltering:            WidthFilterAuto,
		ChargeRange:               ChargeRange{Min: 1, Max: 5},
		IsoMinScore:               0.75,
		CoelutionOverlap:          0.5,
		AllowSingletons:           false,
		RTTolerance:               10, // 2 * default ChromFWHM
		EnableElutionSplitting:    true,
		NoiseWindowWidth:          100,
	}
}

// Validate checks every documented domain constraint, returning a wrapped
// internal/fferrors.ErrInvalidParameter on the first violation.
func (p *FeatureDetectionParams) Validate() error {
	if p.MzTolerance <= 0 {
		return invalidf("mz_tolerance", "must be positive, got %v", p.MzTolerance)
	}
	if p.MinTraceLength < 1 {
		return invalidf("min_trace_length", "must be >= 1, got %d", p.MinTraceLength)
	}
	if p.MinSampleRate <= 0 || p.MinSampleRate > 1 {
		return invalidf("min_sample_rate", "must be in (0, 1], got %v", p.MinSampleRate)
	}
	if p.TraceTerminationOutliers < 1 {
		return invalidf("trace_termination_outliers", "must be >= 1, got %d", p.TraceTerminationOutliers)
	}
	if p.MinSpectraForTrace < 1 {
		return invalidf("min_spectra_for_trace", "must be >= 1, got %d", p.MinSpectraForTrace)
	}
	if p.ChromFWHM <= 0 {
		return invalidf("chrom_fwhm", "must be positive, got %v", p.ChromFWHM)
	}
	if p.ChromPeakSNR <= 0 {
		return invalidf("chrom_peak_snr", "must be positive, got %v", p.ChromPeakSNR)
	}
	if p.WidthFiltering == WidthFilterFixed && p.MinPeakWidth > p.MaxPeakWidth {
		return invalidf("width_filtering", "min_peak_width (%v) exceeds max_peak_width (%v)", p.MinPeakWidth, p.MaxPeakWidth)
	}
	if p.ChargeRange.Min < 1 || p.ChargeRange.Max < p.ChargeRange.Min {
		return invalidf("charge_range", "must satisfy 1 <= min <= max, got {%d,%d}", p.ChargeRange.Min, p.ChargeRange.Max)
	}
	if p.IsoMinScore < 0 || p.IsoMinScore > 1 {
		return invalidf("iso_min_score", "must be in [0, 1], got %v", p.IsoMinScore)
	}
	if p.CoelutionOverlap < 0 || p.CoelutionOverlap > 1 {
		return invalidf("coelution_overlap", "must be in [0, 1], got %v", p.CoelutionOverlap)
	}
	if p.RTTolerance <= 0 {
		return invalidf("rt_tolerance", "must be positive, got %v", p.RTTolerance)
	}
	if p.NoiseWindowWidth <= 0 {
		return invalidf("noise_window_width", "must be positive, got %v", p.NoiseWindowWidth)
	}
	if p.NoiseThresholdInt < 0 {
		return invalidf("noise_threshold_int", "must be non-negative, got %v", p.NoiseThresholdInt)
	}
	return nil
}

func invalidf(param, format string, args ...interface{}) error {
	return fferrors.InvalidParameter(param, fmt.Sprintf(format, args...))
}

// WithMzTolerance sets the mass tolerance and its unit.
func (p *FeatureDetectionParams) WithMzTolerance(tol float64, unit MzToleranceUnit) *FeatureDetectionParams {
	p.MzTolerance = tol
	p.MzToleranceUnit = unit
	return p
}

// WithMinTraceLength sets the minimum centroid count in a trace.
func (p *FeatureDetectionParams) WithMinTraceLength(n int) *FeatureDetectionParams {
	p.MinTraceLength = n
	return p
}

// WithMinSampleRate sets the minimum matched/traversed ratio during trace
// extension.
func (p *FeatureDetectionParams) WithMinSampleRate(r float64) *FeatureDetectionParams {
	p.MinSampleRate = r
	return p
}

// WithTraceTermination sets the termination criterion and its outlier budget.
func (p *FeatureDetectionParams) WithTraceTermination(c TraceTerminationCriterion, outliers int) *FeatureDetectionParams {
	p.TraceTerminationCriterion = c
	p.TraceTerminationOutliers = outliers
	return p
}

// WithChromFWHM sets the expected chromatographic peak width used for C4
// smoothing.
func (p *FeatureDetectionParams) WithChromFWHM(fwhm float64) *FeatureDetectionParams {
	p.ChromFWHM = fwhm
	return p
}

// WithChromPeakSNR sets the SNR threshold for peak acceptance in C4.
func (p *FeatureDetectionParams) WithChromPeakSNR(snr float64) *FeatureDetectionParams {
	p.ChromPeakSNR = snr
	return p
}

// WithWidthFiltering sets the width-filtering mode and, for WidthFilterFixed,
// its [min, max] range.
func (p *FeatureDetectionParams) WithWidthFiltering(mode WidthFiltering, min, max float64) *FeatureDetectionParams {
	p.WidthFiltering = mode
	p.MinPeakWidth = min
	p.MaxPeakWidth = max
	return p
}

// WithChargeRange sets the charges considered in C5.
func (p *FeatureDetectionParams) WithChargeRange(min, max int) *FeatureDetectionParams {
	p.ChargeRange = ChargeRange{Min: min, Max: max}
	return p
}

// WithIsoMinScore sets the minimum envelope fit score.
func (p *FeatureDetectionParams) WithIsoMinScore(score float64) *FeatureDetectionParams {
	p.IsoMinScore = score
	return p
}

// WithCoelutionOverlap sets the required boundary overlap for co-elution.
func (p *FeatureDetectionParams) WithCoelutionOverlap(overlap float64) *FeatureDetectionParams {
	p.CoelutionOverlap = overlap
	return p
}

// WithRTTolerance sets the maximum apex-RT difference allowed between
// co-eluting isotope-position candidates in C5.
func (p *FeatureDetectionParams) WithRTTolerance(tol float64) *FeatureDetectionParams {
	p.RTTolerance = tol
	return p
}

// WithAllowSingletons enables or disables charge-1 singleton fallback
// features when no isotope pattern meets IsoMinScore.
func (p *FeatureDetectionParams) WithAllowSingletons(allow bool) *FeatureDetectionParams {
	p.AllowSingletons = allow
	return p
}

// WithElutionSplitting enables or disables C4 (bypassing it emits one peak
// per trace).
func (p *FeatureDetectionParams) WithElutionSplitting(enabled bool) *FeatureDetectionParams {
	p.EnableElutionSplitting = enabled
	return p
}

// WithNoiseThreshold configures the fixed noise floor used for seed
// eligibility in C3, or enables automatic per-spectrum thresholds.
func (p *FeatureDetectionParams) WithNoiseThreshold(fixed float64, auto bool) *FeatureDetectionParams {
	p.NoiseThresholdInt = fixed
	p.NoiseAuto = auto
	return p
}

// WithStrictEmpty makes an MS1-free experiment an error rather than an empty
// result.
func (p *FeatureDetectionParams) WithStrictEmpty(strict bool) *FeatureDetectionParams {
	p.StrictEmpty = strict
	return p
}
