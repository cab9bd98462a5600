package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Synthesis errors
	ErrSynthesis          = errors.New("control synthesis failed")
	ErrFieldMissing       = fmt.Errorf("%w: field not in dataset", ErrSynthesis)
	ErrEmptyValueSet      = fmt.Errorf("%w: field has no non-null values", ErrSynthesis)
	ErrNoUsableDimensions = fmt.Errorf("%w: no usable dimensions", ErrSynthesis)

	// Binding errors
	ErrBinding        = errors.New("binding error")
	ErrAxisUnset      = fmt.Errorf("%w: axis unset", ErrBinding)
	ErrUnknownControl = fmt.Errorf("%w: unknown control", ErrBinding)
	ErrInvalidOption  = fmt.Errorf("%w: value not among control options", ErrBinding)

	// Compute errors
	ErrCompute     = errors.New("view computation failed")
	ErrViewPanic   = fmt.Errorf("%w: view panicked", ErrCompute)
	ErrNoView      = fmt.Errorf("%w: no view function bound", ErrCompute)
	ErrEmptyOutput = fmt.Errorf("%w: view returned no chart", ErrCompute)

	// Capture errors
	ErrCapture       = errors.New("capture failed")
	ErrLeakedCapture = fmt.Errorf("%w: table emitted into a sealed capture context", ErrCapture)

	// Render errors
	ErrRender             = errors.New("render degraded")
	ErrRasterUnavailable  = fmt.Errorf("%w: chart rasterization unavailable", ErrRender)
	ErrFontUnavailable    = fmt.Errorf("%w: no locale-capable font could be loaded", ErrRender)
	ErrMalformedNarrative = fmt.Errorf("%w: malformed narrative markers", ErrRender)

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
)

// Error constructors with context
func NewFieldMissingError(field string) error {
	return fmt.Errorf("%w: %s", ErrFieldMissing, field)
}

func NewEmptyValueSetError(field string) error {
	return fmt.Errorf("%w: %s", ErrEmptyValueSet, field)
}

func NewComputeError(dashboard string, err error) error {
	return fmt.Errorf("%w in %s: %w", ErrCompute, dashboard, err)
}

func NewInvalidOptionError(control, value string) error {
	return fmt.Errorf("%w: %s=%s", ErrInvalidOption, control, value)
}

// Error checking helpers
func IsBindingError(err error) bool {
	return errors.Is(err, ErrBinding)
}

func IsComputeError(err error) bool {
	return errors.Is(err, ErrCompute)
}

func IsCaptureError(err error) bool {
	return errors.Is(err, ErrCapture)
}

func IsRenderError(err error) bool {
	return errors.Is(err, ErrRender)
}

// IsFatal reports whether err must abort the operation that raised it.
// Only the zero-dimension synthesis failure and capture corruption qualify.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNoUsableDimensions) || errors.Is(err, ErrCapture)
}
