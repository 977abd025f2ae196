package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Quimera engine errors.
type ErrorCode string

// Configuration error codes
const (
	ErrCodeConfigLoadFailed       ErrorCode = "CONFIG_LOAD_FAILED"
	ErrCodeConfigParseFailed      ErrorCode = "CONFIG_PARSE_FAILED"
	ErrCodeConfigValidationFailed ErrorCode = "CONFIG_VALIDATION_FAILED"
	ErrCodeConfigNotFound         ErrorCode = "CONFIG_NOT_FOUND"
)

// Required-tier error codes. The recency tier is the only load-bearing tier:
// when it is unavailable the whole request fails.
const (
	ErrCodeRequiredTierUnavailable ErrorCode = "REQUIRED_TIER_UNAVAILABLE"
	ErrCodeTurnNotRecorded         ErrorCode = "TURN_NOT_RECORDED"
)

// Optional-tier error codes. Semantic, relational, and classifier failures
// degrade the request instead of failing it; these codes are logged at the
// adapter boundary and never propagate past the fusion assembler.
const (
	ErrCodeOptionalTierDegraded ErrorCode = "OPTIONAL_TIER_DEGRADED"
	ErrCodeOptionalTierTimeout  ErrorCode = "OPTIONAL_TIER_TIMEOUT"
)

// Invariant error codes. An invariant violation is a bug, not a recoverable
// condition: it must never occur under correct single-writer discipline.
const (
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
)

// Generation provider error codes
const (
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderAuthFailed  ErrorCode = "PROVIDER_AUTH_FAILED"
	ErrCodeProviderCallFailed  ErrorCode = "PROVIDER_CALL_FAILED"
)

// QuimeraError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints for
// error handling logic.
type QuimeraError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *QuimeraError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *QuimeraError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a QuimeraError with the same Code.
func (e *QuimeraError) Is(target error) bool {
	var qerr *QuimeraError
	if errors.As(target, &qerr) {
		return e.Code == qerr.Code
	}
	return false
}

// NewError creates a new non-retryable QuimeraError with the given code and message.
func NewError(code ErrorCode, message string) *QuimeraError {
	return &QuimeraError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable QuimeraError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *QuimeraError {
	return &QuimeraError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable QuimeraError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *QuimeraError {
	return &QuimeraError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// IsCode reports whether err carries the given error code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var qerr *QuimeraError
	if errors.As(err, &qerr) {
		return qerr.Code == code
	}
	return false
}
