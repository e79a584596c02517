package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeArchive, "read failed")
	if !err.Retryable {
		t.Error("ARCHIVE_ERROR should be retryable")
	}
}

func TestAppError_NotFound_Success(t *testing.T) {
	err := NotFound("category", "91")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", err.Code)
	}
	if err.Details["resource"] != "category" {
		t.Errorf("expected resource=category, got %v", err.Details["resource"])
	}
	if err.Details["id"] != "91" {
		t.Errorf("expected id=91, got %v", err.Details["id"])
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("category", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestAppError_BufferExhausted(t *testing.T) {
	err := BufferExhausted("join", 10)
	if err.Code != ErrCodeBufferExhausted {
		t.Errorf("expected BUFFER_EXHAUSTED, got %s", err.Code)
	}
	if err.Details["stage"] != "join" || err.Details["limit"] != 10 {
		t.Errorf("unexpected details %v", err.Details)
	}
	if err.Retryable {
		t.Error("buffer exhaustion must not be retryable")
	}
}

func TestAppError_ArchiveFailure(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := ArchiveFailure("train2017.zip", cause)
	if !err.Retryable {
		t.Error("archive failures should be retryable")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through errors.Is")
	}
}

func TestAppError_Busy(t *testing.T) {
	err := Busy("pass", 2)
	if err.Code != ErrCodeBusy || !err.Retryable {
		t.Errorf("expected retryable BUSY, got %s retryable=%v", err.Code, err.Retryable)
	}
	if err.Details["limit"] != 2 {
		t.Errorf("expected limit=2, got %v", err.Details["limit"])
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := MissingField("bbox").WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := MissingField("area").WithDetails(map[string]any{"kind": "instances"})
	if err.Details["kind"] != "instances" {
		t.Errorf("expected kind=instances in details")
	}
	if err.Details["field"] != "area" {
		t.Error("expected original details to be preserved")
	}

	err.WithDetails(map[string]any{"id": 7})
	if err.Details["id"] != 7 || err.Details["kind"] != "instances" {
		t.Errorf("expected merged details, got %v", err.Details)
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		retryable bool
	}{
		{"MissingField", MissingField("id"), ErrCodeMissingField, false},
		{"InvalidFormat", InvalidFormat("bbox", "4 numbers"), ErrCodeInvalidFormat, false},
		{"InvalidInput", InvalidInput("split", "unknown split"), ErrCodeInvalidInput, false},
		{"Validation", Validation("bad options"), ErrCodeInvalidInput, false},
		{"ChecksumMismatch", ChecksumMismatch("a.zip", "aa", "bb"), ErrCodeChecksumMismatch, false},
		{"Internal", Internal(nil), ErrCodeInternal, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestAppError_ToResponse_Success(t *testing.T) {
	resp := NotFound("category", "42").ToResponse()
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected code NOT_FOUND in response, got %s", resp.Error.Code)
	}
	if resp.Error.Details["resource"] != "category" {
		t.Error("expected resource=category in response details")
	}
}

func TestAppError_AsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("wrap: %w", BufferExhausted("demux", 3))

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed for wrapped AppError")
	}
	if got.Code != ErrCodeBufferExhausted {
		t.Errorf("expected BUFFER_EXHAUSTED, got %s", got.Code)
	}
	if !HasCode(wrapped, ErrCodeBufferExhausted) {
		t.Error("expected HasCode to see through wrapping")
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("expected IsAppError to return false for plain error")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	orig := MissingField("id")
	if Wrap(fmt.Errorf("outer: %w", orig)) != orig {
		t.Error("Wrap should return the AppError from the chain")
	}

	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("expected internal error wrapping cause, got %+v", got)
	}
}
