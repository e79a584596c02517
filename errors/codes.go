package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Record errors
const (
	// ErrCodeMissingField indicates a required record field is absent.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a record field has an unexpected shape.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeNotFound indicates a referenced entry (e.g. a category) does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Configuration errors
const (
	// ErrCodeInvalidInput indicates invalid options or configuration.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Resource errors
const (
	// ErrCodeBufferExhausted indicates a stage buffer exceeded its configured bound.
	ErrCodeBufferExhausted ErrorCode = "BUFFER_EXHAUSTED"
	// ErrCodeArchive indicates an archive or document could not be read.
	ErrCodeArchive ErrorCode = "ARCHIVE_ERROR"
	// ErrCodeChecksumMismatch indicates a local resource failed verification.
	ErrCodeChecksumMismatch ErrorCode = "CHECKSUM_MISMATCH"
	// ErrCodeBusy indicates every pass slot is taken.
	ErrCodeBusy ErrorCode = "BUSY"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// retryableCodes are transient: archive reads and busy slots.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeArchive: true,
	ErrCodeBusy:    true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
