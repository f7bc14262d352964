package domain

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures the way the storefront API reports them.
type ErrorType string

// Error types exposed in the API envelope.
const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeNoData      ErrorType = "no_data"
	ErrorTypeAIService   ErrorType = "ai_service"
	ErrorTypeUpstream    ErrorType = "upstream_error"
	ErrorTypeRateLimited ErrorType = "rate_limited"
	ErrorTypeStorage     ErrorType = "storage"
)

var (
	// ErrValidation signals missing or malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNoData signals a valid request with an empty result set.
	ErrNoData = errors.New("no data")
	// ErrAIService signals a language-understanding service failure.
	ErrAIService = errors.New("ai service unavailable")
	// ErrUpstream signals a catalog or other upstream dependency failure.
	ErrUpstream = errors.New("upstream error")
	// ErrRateLimited signals an exhausted rate bucket.
	ErrRateLimited = errors.New("rate limited")
	// ErrStorage signals a preference store failure.
	ErrStorage = errors.New("storage error")
)

// Error carries the API error envelope fields alongside the wrapped cause.
type Error struct {
	Type      ErrorType
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the type sentinel, so callers can use
// errors.Is(err, domain.ErrRateLimited) regardless of how the error was built.
func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Type)
}

func sentinelFor(t ErrorType) error {
	switch t {
	case ErrorTypeValidation:
		return ErrValidation
	case ErrorTypeNoData:
		return ErrNoData
	case ErrorTypeAIService:
		return ErrAIService
	case ErrorTypeUpstream:
		return ErrUpstream
	case ErrorTypeRateLimited:
		return ErrRateLimited
	case ErrorTypeStorage:
		return ErrStorage
	default:
		return nil
	}
}

// NewValidationError creates a non-retryable validation error.
func NewValidationError(code, message string) *Error {
	return &Error{Type: ErrorTypeValidation, Code: code, Message: message}
}

// NewNoDataError creates a non-retryable empty-result error.
func NewNoDataError(code, message string) *Error {
	return &Error{Type: ErrorTypeNoData, Code: code, Message: message}
}

// NewAIServiceError wraps a language-understanding failure (retryable).
func NewAIServiceError(code, message string, cause error) *Error {
	return &Error{Type: ErrorTypeAIService, Code: code, Message: message, Retryable: true, Err: cause}
}

// NewUpstreamError wraps a catalog or dependency failure (retryable).
func NewUpstreamError(code, message string, cause error) *Error {
	return &Error{Type: ErrorTypeUpstream, Code: code, Message: message, Retryable: true, Err: cause}
}

// NewRateLimitedError creates a bucket-exhausted error, retryable after backoff.
func NewRateLimitedError(message string) *Error {
	return &Error{Type: ErrorTypeRateLimited, Code: "RATE_LIMITED", Message: message, Retryable: true}
}

// NewStorageError wraps a preference store failure (retryable).
func NewStorageError(code, message string, cause error) *Error {
	return &Error{Type: ErrorTypeStorage, Code: code, Message: message, Retryable: true, Err: cause}
}

// AsError extracts a *Error from err. Sentinel-wrapped errors map to their
// type; anything else becomes a retryable upstream error.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	switch {
	case errors.Is(err, ErrValidation):
		return &Error{Type: ErrorTypeValidation, Code: "VALIDATION_FAILED", Message: err.Error(), Err: err}
	case errors.Is(err, ErrNoData):
		return &Error{Type: ErrorTypeNoData, Code: "NO_DATA", Message: err.Error(), Err: err}
	case errors.Is(err, ErrRateLimited):
		return &Error{Type: ErrorTypeRateLimited, Code: "RATE_LIMITED", Message: err.Error(), Retryable: true, Err: err}
	case errors.Is(err, ErrAIService):
		return &Error{Type: ErrorTypeAIService, Code: "AI_SERVICE_ERROR", Message: err.Error(), Retryable: true, Err: err}
	case errors.Is(err, ErrStorage):
		return &Error{Type: ErrorTypeStorage, Code: "STORAGE_ERROR", Message: err.Error(), Retryable: true, Err: err}
	default:
		return NewUpstreamError("INTERNAL_ERROR", err.Error(), err)
	}
}

