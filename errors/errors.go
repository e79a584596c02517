package errors

import (
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
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

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
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
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Record errors ---

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// InvalidFormat creates a new AppError for an invalid field format.
func InvalidFormat(field, expectedFormat string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: fmt.Sprintf("Invalid format for %s. Expected: %s", field, expectedFormat),
		Details: map[string]any{"field": field, "expected_format": expectedFormat},
	}
}

// NotFound creates a new AppError for a referenced resource that does not exist.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		Details: details,
	}
}

// --- Configuration errors ---

// InvalidInput creates a new AppError for an invalid option.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// --- Resource errors ---

// BufferExhausted creates a new AppError for a stage whose buffer grew past limit.
func BufferExhausted(stage string, limit int) *AppError {
	return &AppError{
		Code: ErrCodeBufferExhausted, Message: fmt.Sprintf("Stage %s buffered more than %d items.", stage, limit),
		Details: map[string]any{"stage": stage, "limit": limit},
	}
}

// ArchiveFailure creates a new AppError for an archive entry that could not be read.
func ArchiveFailure(name string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeArchive, Message: fmt.Sprintf("Unable to read %s.", name),
		Retryable: true, Details: map[string]any{"name": name}, Cause: cause,
	}
}

// ChecksumMismatch creates a new AppError for a resource whose digest differs from the expected one.
func ChecksumMismatch(name, want, got string) *AppError {
	return &AppError{
		Code: ErrCodeChecksumMismatch, Message: fmt.Sprintf("Checksum mismatch for %s.", name),
		Details: map[string]any{"name": name, "want": want, "got": got},
	}
}

// Busy creates a new AppError for a call rejected because all limit slots of
// name are in use.
func Busy(name string, limit int) *AppError {
	return &AppError{
		Code: ErrCodeBusy, Message: fmt.Sprintf("All %d %s slots are in use.", limit, name),
		Retryable: true, Details: map[string]any{"name": name, "limit": limit},
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}
