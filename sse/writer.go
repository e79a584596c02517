package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrStreamingUnsupported is returned when the response cannot be flushed.
var ErrStreamingUnsupported = errors.New("sse: streaming not supported")

// Writer frames events onto an HTTP response. It is not safe for concurrent
// use.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	sent    int
}

// NewWriter sets the event-stream headers on w. The response status is not
// written until the first event.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // nginx
	return &Writer{w: w, flusher: flusher}, nil
}

// DisableWriteDeadline lifts the server write timeout for this response.
// Writers that do not support deadlines return an error wrapping
// http.ErrNotSupported.
func (w *Writer) DisableWriteDeadline() error {
	return http.NewResponseController(w.w).SetWriteDeadline(time.Time{})
}

// Send writes v as the JSON data of a numbered event and flushes.
func (w *Writer) Send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sse: marshal %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w.w, "id: %d\nevent: %s\ndata: %s\n\n", w.sent, event, data); err != nil {
		return err
	}
	w.sent++
	w.flusher.Flush()
	return nil
}

// Comment writes a comment line, which clients ignore. Used as keep-alive.
func (w *Writer) Comment(text string) error {
	text = strings.ReplaceAll(text, "\n", " ")
	if _, err := fmt.Fprintf(w.w, ": %s\n\n", text); err != nil {
		return err
	}
	w.flusher.Flush()
	return nil
}

// Sent returns the number of events written.
func (w *Writer) Sent() int { return w.sent }
