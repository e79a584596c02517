package sse

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriterSend(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if err := w.Send(EventTypeSample, map[string]string{"path": "a.jpg"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := w.Send(EventTypeEnd, End{Count: 1}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	want := "id: 0\nevent: sample\ndata: {\"path\":\"a.jpg\"}\n\n" +
		"id: 1\nevent: end\ndata: {\"count\":1}\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("unexpected stream:\n%q\nwant\n%q", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentType {
		t.Errorf("expected content type %s, got %q", ContentType, ct)
	}
	if !rec.Flushed {
		t.Error("expected the response to be flushed")
	}
	if w.Sent() != 2 {
		t.Errorf("expected 2 events sent, got %d", w.Sent())
	}
}

func TestWriterComment(t *testing.T) {
	rec := httptest.NewRecorder()
	w, _ := NewWriter(rec)

	if err := w.Comment("keep\nalive"); err != nil {
		t.Fatalf("Comment: %v", err)
	}
	if got := rec.Body.String(); got != ": keep alive\n\n" {
		t.Errorf("unexpected comment %q", got)
	}
	if w.Sent() != 0 {
		t.Errorf("comments are not events, got %d sent", w.Sent())
	}
}

func TestWriterMarshalError(t *testing.T) {
	rec := httptest.NewRecorder()
	w, _ := NewWriter(rec)

	if err := w.Send(EventTypeSample, make(chan int)); err == nil {
		t.Fatal("expected a marshal error")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected nothing written, got %q", rec.Body.String())
	}
}

type plainWriter struct{ http.ResponseWriter }

func TestNewWriterRequiresFlusher(t *testing.T) {
	_, err := NewWriter(plainWriter{httptest.NewRecorder()})
	if !errors.Is(err, ErrStreamingUnsupported) {
		t.Errorf("expected ErrStreamingUnsupported, got %v", err)
	}
}
