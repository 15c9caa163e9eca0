package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the structured error type shared by stores, caches and the daemon.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status the daemon answers with.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code, so sentinel
// values such as store.ErrUnknownAction match any error carrying that code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithCause sets the underlying cause and returns the receiver.
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

// New creates an AppError; retryability follows the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// HasCode reports whether any error in err's chain is an AppError with code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	for err != nil {
		if stderrors.As(err, &appErr) {
			if appErr.Code == code {
				return true
			}
			err = appErr.Cause
			continue
		}
		return false
	}
	return false
}

// --- Store errors ---

// UnknownAction is returned by strict reducers for unhandled action types.
func UnknownAction(actionType string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownAction, Message: fmt.Sprintf("unknown action %q", actionType),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"type": actionType},
	}
}

// ThunkUnsupported is returned when a thunk reaches a store without the thunk middleware.
func ThunkUnsupported() *AppError {
	return &AppError{
		Code: ErrCodeThunkUnsupported, Message: "thunk dispatched to a store without thunk middleware",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// OutsideProvider is returned when a scoped value is read with no enclosing provider.
func OutsideProvider(name string) *AppError {
	return &AppError{
		Code: ErrCodeOutsideProvider, Message: fmt.Sprintf("%s was used outside of its provider", name),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"provider": name},
	}
}

// --- Query errors ---

// QueryRejected wraps a failed fetch with the message shown to subscribers.
func QueryRejected(endpoint, message string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeQueryRejected, Message: message,
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"endpoint": endpoint}, Cause: cause,
	}
}

// Cancelled marks work abandoned because nobody is waiting for it any more.
func Cancelled(operation string) *AppError {
	return &AppError{
		Code: ErrCodeCancelled, Message: fmt.Sprintf("%s was cancelled", operation),
		HTTPStatus: 499,
		Details:    map[string]any{"operation": operation},
	}
}

// Superseded marks work whose result was dropped because a newer request of
// the same kind replaced it.
func Superseded(operation string) *AppError {
	return &AppError{
		Code: ErrCodeCancelled, Message: fmt.Sprintf("%s superseded by a newer request", operation),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"operation": operation, "superseded": true},
	}
}

// --- Common constructors ---

// NotFound creates an AppError for a missing resource.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// InvalidInput creates an AppError for a bad field value.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates an AppError carrying a validation summary.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Timeout creates an AppError for an operation that ran out of time.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// ServiceUnavailable creates an AppError for a dependency that refuses work.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// ExternalServiceError wraps a failure reported by a remote API.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error. Please try again.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}

// Internal creates an AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}
