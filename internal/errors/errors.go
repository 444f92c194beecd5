package errors

import (
	stderrors "errors"
	"fmt"

	"convsim/domain/core"
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

// Wrap wraps an error with additional context
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
		Code:    codeFor(err),
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

// FromDomain converts a domain error into an AppError carrying the matching
// code. The original error stays reachable through Unwrap.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: codeFor(err), Message: err.Error(), Cause: err}
}

// GetCode returns the error code if it's an AppError, otherwise the code
// derived from the domain sentinel, or "UNKNOWN".
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if code := codeFor(err); code != CodeInternalError {
		return code
	}
	return "UNKNOWN"
}

// IsClientError reports whether err was caused by caller input.
func IsClientError(err error) bool {
	switch GetCode(err) {
	case CodeInvalidParameter, CodeInvalidRegion, CodeInvalidPrefixSequence, CodeInvalidInput, CodeDegenerateDistribution:
		return true
	}
	return false
}

func codeFor(err error) string {
	switch {
	case stderrors.Is(err, core.ErrInvalidParameter):
		return CodeInvalidParameter
	case stderrors.Is(err, core.ErrInvalidRegion):
		return CodeInvalidRegion
	case stderrors.Is(err, core.ErrInvalidPrefixSequence):
		return CodeInvalidPrefixSequence
	case stderrors.Is(err, core.ErrDegenerateDistribution):
		return CodeDegenerateDistribution
	}
	return CodeInternalError
}

// Predefined error codes
const (
	CodeConfigInvalid          = "CONFIG_INVALID"
	CodeInternalError          = "INTERNAL_ERROR"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInvalidParameter       = "INVALID_PARAMETER"
	CodeInvalidRegion          = "INVALID_REGION"
	CodeInvalidPrefixSequence  = "INVALID_PREFIX_SEQUENCE"
	CodeDegenerateDistribution = "DEGENERATE_DISTRIBUTION"
	CodeRenderFailed           = "RENDER_FAILED"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func RenderFailed(format string, cause error) *AppError {
	return &AppError{
		Code:    CodeRenderFailed,
		Message: fmt.Sprintf("%s renderer failed", format),
		Cause:   cause,
	}
}
