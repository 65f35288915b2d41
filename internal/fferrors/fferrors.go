// Package fferrors defines the closed set of error kinds returned across the
// feature-detection pipeline's public boundary. Every error returned by
// internal/featurefinder and its subcomponents wraps exactly one of the
// sentinels below, so callers can distinguish kinds with errors.Is while the
// wrapped message carries call-site detail (parameter name, RT index, ...).
package fferrors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter means a FeatureDetectionParams value is outside its
	// documented domain.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInputMalformed means the experiment violates an input invariant
	// (non-monotonic retention times, unsorted spectra, ...).
	ErrInputMalformed = errors.New("malformed input")

	// ErrEmptyInput means the experiment has no MS1 spectra. The driver
	// treats this as an empty result unless StrictEmpty is set, in which
	// case it is surfaced as an error.
	ErrEmptyInput = errors.New("empty input")

	// ErrNumericalFailure means a numerical step could not be completed.
	// internal/mrm returns it when the CORRECTED method's cubic-spline fit
	// fails; no other component returns it.
	ErrNumericalFailure = errors.New("numerical failure")

	// ErrCancelled means the caller's cancellation signal fired mid-run.
	ErrCancelled = errors.New("cancelled")
)

// DetectionError is the structured error returned across the public
// boundary. It names the offending parameter or RT index so a caller can
// report something actionable without parsing the message string.
type DetectionError struct {
	Kind      error  // one of the sentinels above
	Param     string // offending parameter name, if applicable
	RTIndex   int    // offending spectrum index; meaningful only when HasRTIdx
	HasRTIdx  bool
	Detail    string
}

func (e *DetectionError) Error() string {
	switch {
	case e.Param != "":
		return fmt.Sprintf("%s: parameter %q: %s", e.Kind, e.Param, e.Detail)
	case e.HasRTIdx:
		return fmt.Sprintf("%s: spectrum index %d: %s", e.Kind, e.RTIndex, e.Detail)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
}

func (e *DetectionError) Unwrap() error { return e.Kind }

// InvalidParameter builds a DetectionError for a bad parameter value.
func InvalidParameter(param, detail string) error {
	return &DetectionError{Kind: ErrInvalidParameter, Param: param, Detail: detail}
}

// InputMalformedAt builds a DetectionError naming the offending spectrum index.
func InputMalformedAt(rtIndex int, detail string) error {
	return &DetectionError{Kind: ErrInputMalformed, RTIndex: rtIndex, HasRTIdx: true, Detail: detail}
}

// InputMalformed builds a DetectionError with no specific index.
func InputMalformed(detail string) error {
	return &DetectionError{Kind: ErrInputMalformed, Detail: detail}
}

// EmptyInput builds a DetectionError for a StrictEmpty run over an
// experiment with no MS1 spectra.
func EmptyInput(detail string) error {
	return &DetectionError{Kind: ErrEmptyInput, Detail: detail}
}

// Numerical builds a DetectionError for a non-finite intermediate value.
func Numerical(detail string) error {
	return &DetectionError{Kind: ErrNumericalFailure, Detail: detail}
}

// Cancelled builds a DetectionError for a fired cancellation signal.
func Cancelled() error {
	return &DetectionError{Kind: ErrCancelled, Detail: "operation cancelled"}
}
