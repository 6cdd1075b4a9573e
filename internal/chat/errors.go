// ABOUTME: Closed error taxonomy for the conversation engine
// ABOUTME: Classify translates collaborator failures so callers never see raw shapes

package chat

import (
	"errors"
	"time"

	"github.com/NEARBuilders/cyborg-gateway/internal/provider"
	"github.com/NEARBuilders/cyborg-gateway/internal/store"
)

// Kind identifies one of the closed set of caller-visible error categories.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"        // missing or invalid caller identity
	KindAccessDenied Kind = "access_denied"       // conversation owned by a different account
	KindNotFound     Kind = "not_found"           // unknown entity
	KindRateLimited  Kind = "rate_limited"        // quota exceeded
	KindUnavailable  Kind = "service_unavailable" // provider unreachable or misconfigured
	KindInternal     Kind = "internal"            // persistence or unexpected failure
)

// providerBackoff is the fixed retry hint attached when the provider itself
// throttles or fails.
const providerBackoff = 30 * time.Second

// ErrEmptyMessage rejects turns with no message content. It is a validation
// failure, not part of the caller-facing taxonomy; the transport maps it to
// a bad-request response before any side effect occurs.
var ErrEmptyMessage = errors.New("message is required")

// Quota reports the caller's rate-limit window state for one turn: how many
// requests remain in the current window and when the window resets.
type Quota struct {
	Remaining int
	ResetAt   time.Time
}

// Error is the typed error surfaced to callers. Message is always safe to
// show; raw collaborator errors never cross this boundary.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration // set for rate_limited and service_unavailable
	Quota      *Quota        // set on rate_limited denials from the gate
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// NewError builds a typed error with the given kind and safe message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// AsError unwraps err into an *Error when possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the taxonomy kind of err, defaulting to internal.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Classify translates provider and storage failures into the closed taxonomy.
// Already-typed errors pass through untouched. The mapping is identical for
// blocking and streaming paths.
func Classify(err error) *Error {
	if e, ok := AsError(err); ok {
		return e
	}

	switch {
	case errors.Is(err, provider.ErrUnauthorized):
		return &Error{Kind: KindUnauthorized, Message: "completion provider rejected credentials"}
	case errors.Is(err, provider.ErrRateLimited):
		return &Error{Kind: KindRateLimited, Message: "completion provider is throttling requests", RetryAfter: providerBackoff}
	case errors.Is(err, provider.ErrUnavailable):
		return &Error{Kind: KindUnavailable, Message: "completion provider is unavailable", RetryAfter: providerBackoff}
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: "not found"}
	default:
		return &Error{Kind: KindInternal, Message: "internal error"}
	}
}
