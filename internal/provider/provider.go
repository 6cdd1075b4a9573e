// ABOUTME: CompletionProvider interface and prompt message types
// ABOUTME: Boundary sentinels keep SDK error shapes out of the core

package provider

import (
	"context"
	"errors"
)

// Boundary errors. SDK and transport failures are translated into these
// exactly once, inside the provider implementation; nothing above this
// package ever sees a provider-native error type.
var (
	// ErrUnauthorized indicates the provider rejected our credential.
	ErrUnauthorized = errors.New("provider rejected credentials")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrUnavailable indicates the provider is unreachable or misconfigured.
	ErrUnavailable = errors.New("provider unavailable")
)

// Prompt roles, aligned with the chat-completions wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prompt message sent to the completion provider.
type Message struct {
	Role    string
	Content string
}

// CompletionStream yields incremental text deltas from an in-flight
// generation. Recv blocks until the next delta is available and returns
// io.EOF when the generation is complete. Close releases the underlying
// connection and is safe to call at any point.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}

// CompletionProvider is the external text-generation collaborator.
// Complete performs one blocking generation; Stream opens an incremental
// token stream that the caller advances pull-by-pull.
type CompletionProvider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Stream(ctx context.Context, messages []Message) (CompletionStream, error)
}
