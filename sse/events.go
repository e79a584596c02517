package sse

// ContentType is the media type of event streams.
const ContentType = "text/event-stream"

// Event types of sample streams.
const (
	// EventTypeSample carries one decoded sample.
	EventTypeSample = "sample"

	// EventTypeError is the last event of a failed pass.
	EventTypeError = "error"

	// EventTypeEnd is the last event of a completed pass.
	EventTypeEnd = "end"
)

// End is the payload of EventTypeEnd.
type End struct {
	Count int `json:"count"`
}
