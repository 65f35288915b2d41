// Package mrm implements C7: peak-picking a single MRM/SRM chromatogram
// (RT vs intensity, rather than the centroided-spectrum path C3-C6 run),
// as spec.md §4.4 describes. It is an independent sibling path, not a
// downstream consumer of internal/masstrace or internal/elution.
package mrm

import (
	"fmt"

	"github.com/openms-go/featurefinder/internal/fferrors"
	"github.com/openms-go/featurefinder/internal/msmodel"
)

// Method selects which algorithm PickChromatogram runs.
type Method int

const (
	// Legacy fits a quadratic polynomial through the three samples around
	// each local maximum and places boundaries at a fixed RT offset from
	// the refined apex.
	Legacy Method = iota
	// Corrected interpolates the chromatogram with a cubic spline and
	// finds boundaries by walking outward from the apex to the first
	// derivative zero-crossing or sub-noise-floor sample.
	Corrected
	// Crawdad delegates to an externally supplied ChromatogramPeakPicker.
	// Off by default; Params.ExternalPicker must be set when selected.
	Crawdad
)

func (m Method) String() string {
	switch m {
	case Legacy:
		return "legacy"
	case Corrected:
		return "corrected"
	case Crawdad:
		return "crawdad"
	default:
		return "unknown"
	}
}

// ChromatogramPeakPicker is the pluggable peak-picking algorithm interface,
// directly analogous to the teacher's ForegroundExtractor
// (internal/lidar/extractor.go): it lets an external implementation (e.g. a
// CRAWDAD binding) be selected in place of the two built-in methods.
type ChromatogramPeakPicker interface {
	// Name returns the algorithm name for logging.
	Name() string

	// PickChromatogram picks peaks from chrom according to params.
	PickChromatogram(chrom msmodel.Chromatogram, params *Params) (msmodel.PickedChromatogram, error)
}

// Params is the flat configuration for C7, built the same way as
// ffconfig.FeatureDetectionParams: a Default constructor, fluent With...()
// setters, and a Validate() enumerating every documented domain constraint.
// It is kept separate from FeatureDetectionParams because C7 is an
// independent sibling path with its own parameter set (spec.md §6).
type Params struct {
	Method Method

	// PeakWidth is the LEGACY method's symmetric half-width (same RT units
	// as the chromatogram) placed on either side of the refined apex.
	PeakWidth float64

	// SignalToNoiseThreshold is the minimum apex_intensity / noise_floor
	// ratio required to accept a peak.
	SignalToNoiseThreshold float64

	// NoiseWindowWidth is the window width passed to internal/noise when
	// estimating the chromatogram's noise floor.
	NoiseWindowWidth float64

	// BoundaryTolerance is the absolute-RT bisection tolerance used by the
	// CORRECTED method's root-finding steps.
	BoundaryTolerance float64

	// ExternalPicker is the CRAWDAD extension point; required when Method
	// is Crawdad, ignored otherwise.
	ExternalPicker ChromatogramPeakPicker
}

// DefaultParams returns the defaults enumerated in spec.md §6 for C7.
func DefaultParams() *Params {
	return &Params{
		Method:                 Legacy,
		PeakWidth:              0.5,
		SignalToNoiseThreshold: 3,
		NoiseWindowWidth:       100,
		BoundaryTolerance:      1e-4,
	}
}

// Validate checks every documented domain constraint, returning a wrapped
// invalid-parameter error on the first violation.
func (p *Params) Validate() error {
	if p.PeakWidth <= 0 {
		return invalidf("peak_width", "must be positive, got %v", p.PeakWidth)
	}
	if p.SignalToNoiseThreshold <= 0 {
		return invalidf("signal_to_noise_threshold", "must be positive, got %v", p.SignalToNoiseThreshold)
	}
	if p.NoiseWindowWidth <= 0 {
		return invalidf("noise_window_width", "must be positive, got %v", p.NoiseWindowWidth)
	}
	if p.BoundaryTolerance <= 0 {
		return invalidf("boundary_tolerance", "must be positive, got %v", p.BoundaryTolerance)
	}
	if p.Method == Crawdad && p.ExternalPicker == nil {
		return invalidf("method", "crawdad method requires ExternalPicker to be set")
	}
	return nil
}

func invalidf(param, format string, args ...interface{}) error {
	return fferrors.InvalidParameter(param, fmt.Sprintf(format, args...))
}

// WithMethod selects the picking algorithm.
func (p *Params) WithMethod(m Method) *Params {
	p.Method = m
	return p
}

// WithPeakWidth sets the LEGACY method's symmetric boundary half-width.
func (p *Params) WithPeakWidth(w float64) *Params {
	p.PeakWidth = w
	return p
}

// WithSignalToNoiseThreshold sets the minimum accepted apex/noise ratio.
func (p *Params) WithSignalToNoiseThreshold(snr float64) *Params {
	p.SignalToNoiseThreshold = snr
	return p
}

// WithNoiseWindowWidth sets the window width used for noise-floor estimation.
func (p *Params) WithNoiseWindowWidth(w float64) *Params {
	p.NoiseWindowWidth = w
	return p
}

// WithBoundaryTolerance sets the CORRECTED method's root-finding tolerance.
func (p *Params) WithBoundaryTolerance(tol float64) *Params {
	p.BoundaryTolerance = tol
	return p
}

// WithExternalPicker sets the CRAWDAD extension point.
func (p *Params) WithExternalPicker(picker ChromatogramPeakPicker) *Params {
	p.ExternalPicker = picker
	return p
}
