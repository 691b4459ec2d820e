package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Transcript lifecycle errors
const (
	// ErrCodeNotFound indicates the transcript does not exist or does not
	// belong to the caller.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeNotReady indicates the transcript has not finished processing
	// or has no text yet.
	ErrCodeNotReady ErrorCode = "NOT_READY"
	// ErrCodeNoSegments indicates the transcript carries no diarization data,
	// so segment-level corrections are unavailable.
	ErrCodeNoSegments ErrorCode = "NO_SEGMENTS"
	// ErrCodeConflict indicates a concurrent apply was detected for the same
	// transcript.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// Correction pipeline errors
const (
	// ErrCodeReassemblyMismatch indicates the rewrite provider returned a
	// different segment count than was submitted.
	ErrCodeReassemblyMismatch ErrorCode = "REASSEMBLY_MISMATCH"
	// ErrCodeProviderFailure indicates an ASR or text-generation provider
	// error or timeout.
	ErrCodeProviderFailure ErrorCode = "PROVIDER_FAILURE"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeStorageError indicates a persistence error.
	ErrCodeStorageError ErrorCode = "STORAGE_ERROR"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeNotReady:        true,
	ErrCodeConflict:        true,
	ErrCodeProviderFailure: true,
	ErrCodeTimeout:         true,
	ErrCodeStorageError:    true,
	ErrCodeExternalService: true,
	ErrCodeInternal:        false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
