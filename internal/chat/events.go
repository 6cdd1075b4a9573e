// ABOUTME: Stream event protocol emitted by StreamMessage
// ABOUTME: Chunks in strict order, then exactly one terminal complete or error

package chat

// EventType discriminates stream events.
type EventType string

const (
	// EventChunk carries one incremental text delta.
	EventChunk EventType = "chunk"

	// EventComplete is the single terminal success event, sent only after
	// every chunk has been forwarded and the accumulated text persisted.
	EventComplete EventType = "complete"

	// EventError is the single terminal failure event, carrying a sanitized
	// message. Nothing is persisted for the attempt.
	EventError EventType = "error"
)

// StreamEvent is one element of the ordered, finite event sequence produced
// by a streaming turn. Every event carries a unique ID. No event follows a
// terminal event or an observed cancellation.
type StreamEvent struct {
	ID   string
	Type EventType

	// Delta is set for chunk events.
	Delta string

	// ConversationID and MessageID are set on the complete event.
	ConversationID string
	MessageID      string

	// Err is set on the error event.
	Err *Error
}
