package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors (retryable)
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeQueryRejected marks a query cache entry whose fetch failed.
	ErrCodeQueryRejected ErrorCode = "QUERY_REJECTED"
)

// Request errors
const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeUnknownAction is raised by strict reducers.
	ErrCodeUnknownAction ErrorCode = "UNKNOWN_ACTION"
	ErrCodeCancelled     ErrorCode = "CANCELLED"
)

// Programming errors
const (
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeThunkUnsupported ErrorCode = "THUNK_UNSUPPORTED"
	ErrCodeOutsideProvider  ErrorCode = "OUTSIDE_PROVIDER"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeExternalService:    true,
	ErrCodeQueryRejected:      true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
