package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the inner code
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the outermost AppError code, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid  = "CONFIG_INVALID"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeNotFound       = "NOT_FOUND"
	CodeDatasetError   = "DATASET_ERROR"
	CodeSynthesisError = "SYNTHESIS_ERROR"
	CodeBindingError   = "BINDING_ERROR"
	CodeComputeError   = "COMPUTE_ERROR"
	CodeCaptureError   = "CAPTURE_ERROR"
	CodeRenderError    = "RENDER_ERROR"
	CodeExportError    = "EXPORT_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func DatasetError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatasetError, Message: message, Cause: cause}
}

func SynthesisError(cause error) *AppError {
	return &AppError{Code: CodeSynthesisError, Message: "dashboard creation aborted", Cause: cause}
}

func BindingError(cause error) *AppError {
	return &AppError{Code: CodeBindingError, Message: "dashboard binding misconfigured", Cause: cause}
}

func ComputeError(cause error) *AppError {
	return &AppError{Code: CodeComputeError, Message: "compute error", Cause: cause}
}

func CaptureError(cause error) *AppError {
	return &AppError{Code: CodeCaptureError, Message: "capture state corrupted", Cause: cause}
}

func RenderError(cause error) *AppError {
	return &AppError{Code: CodeRenderError, Message: "render degraded", Cause: cause}
}

func ExportError(message string, cause error) *AppError {
	return &AppError{Code: CodeExportError, Message: message, Cause: cause}
}
