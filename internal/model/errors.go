package model

import (
	"errors"
	"fmt"
)

// ErrorCode is a machine-readable failure category. Every code is fatal to
// the job that raised it.
type ErrorCode string

const (
	ErrInvalidSpec        ErrorCode = "INVALID_SPEC"
	ErrDoesNotFit         ErrorCode = "DOES_NOT_FIT"
	ErrMixedSizes         ErrorCode = "MIXED_SIZES"
	ErrUnregisteredEngine ErrorCode = "UNREGISTERED_ENGINE"
	ErrMissingAsset       ErrorCode = "MISSING_ASSET"
	ErrMissingSizing      ErrorCode = "MISSING_SIZING"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error with the given code and formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error wrapping an existing error.
func WrapError(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// WarningCode categorizes non-fatal findings.
type WarningCode string

const (
	WarnAspectMismatch WarningCode = "ASPECT_MISMATCH"
	WarnLowDPI         WarningCode = "LOW_DPI"
)

// Thresholds for sizing warnings.
const (
	AspectTolerance = 0.01
	MinPrintDPI     = 250.0
)

// Warning is a non-fatal finding reported next to a successful job.
type Warning struct {
	Code    WarningCode `json:"code"`
	AssetID string      `json:"asset_id,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return w.Message
}
