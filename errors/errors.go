// Package errors provides unified error handling for the transcription
// service. It implements structured error types with error codes, HTTP status
// mapping, and retryable detection following RFC 7807.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// NotFound creates a new AppError for a transcript or resource that was not
// found or is not owned by the caller. Ownership failures deliberately look
// identical to missing resources.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// NotReady creates a new AppError for a transcript that has not finished
// processing. Callers may retry once processing completes.
func NotReady(id string) *AppError {
	return &AppError{
		Code: ErrCodeNotReady, Message: "The transcript is still processing. Please try again once it completes.",
		HTTPStatus: http.StatusConflict, Retryable: true,
		Details: map[string]any{"id": id},
	}
}

// NoSegments creates a new AppError for a transcript without diarization data.
func NoSegments(id string) *AppError {
	return &AppError{
		Code: ErrCodeNoSegments, Message: "This transcript has no speaker segments, so corrections are unavailable.",
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"id": id},
	}
}

// Conflict creates a new AppError for a concurrent apply on the same
// transcript. Callers should reload and retry.
func Conflict(id string) *AppError {
	return &AppError{
		Code: ErrCodeConflict, Message: "Another correction is being applied to this transcript. Please reload and try again.",
		HTTPStatus: http.StatusConflict, Retryable: true,
		Details: map[string]any{"id": id},
	}
}

// ReassemblyMismatch creates a new AppError for a rewrite whose output could
// not be mapped back onto the original segments. The user-facing message is
// deliberately generic; the counts are carried in details for logging.
func ReassemblyMismatch(expected, got int) *AppError {
	return &AppError{
		Code: ErrCodeReassemblyMismatch, Message: "The correction failed. Try rephrasing your instruction.",
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"expected_segments": expected, "returned_segments": got},
	}
}

// ProviderFailure creates a new AppError for an ASR or text-generation
// provider error. Retryable by the caller, never retried automatically.
func ProviderFailure(provider string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeProviderFailure, Message: fmt.Sprintf("The %s provider encountered an error. Please try again.", provider),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"provider": provider}, Cause: cause,
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// StorageError creates a new AppError for a persistence error.
func StorageError(cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorageError, Message: "A storage error occurred. Please try again.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error. Please try again.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}
