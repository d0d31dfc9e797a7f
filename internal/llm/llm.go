// Package llm abstracts the chat-streaming model backend. The engine treats
// it as a black box emitting a finite, cancelable sequence of text events.
package llm

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Options tune a single completion call.
type Options struct {
	Model     string
	MaxTokens int
}

// EventType discriminates streamed events.
type EventType string

const (
	// EventChange carries the full accumulated response text so far.
	// Consumers compute deltas by tracking the previously seen length.
	EventChange EventType = "change"

	// EventComplete signals a successful end of stream.
	EventComplete EventType = "complete"

	// EventError signals a failed stream; Err is set.
	EventError EventType = "error"
)

// Event is one element of a completion stream.
type Event struct {
	Type EventType
	Text string
	Err  error
}

// Streamer is the chat-streaming collaborator. Each call returns a fresh
// lazy event sequence that terminates with exactly one complete or error
// event; the channel is closed afterwards. Cancellation flows through ctx.
type Streamer interface {
	Chat(ctx context.Context, messages []Message, opts Options, requestID string) (<-chan Event, error)
}
