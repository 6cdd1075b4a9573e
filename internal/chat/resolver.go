// ABOUTME: Resolves an optional conversation id + owner into a concrete conversation
// ABOUTME: Enforces ownership before any provider call or persistence happens

package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/NEARBuilders/cyborg-gateway/internal/store"
)

// Resolution is the outcome of conversation resolution.
type Resolution struct {
	ConversationID string
	IsNew          bool
}

// Resolver maps an optional conversation id and a caller identity to a
// resolved conversation.
type Resolver struct {
	store store.Store
}

// NewResolver creates a Resolver over the given store.
func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the conversation to use for a turn. An empty id allocates
// a fresh one; an unknown id is treated as new with that id; a known id owned
// by a different account fails with access_denied — the engine never silently
// creates a different conversation for a foreign id, and never leaks the
// foreign conversation's content.
func (r *Resolver) Resolve(ctx context.Context, ownerID, conversationID string) (Resolution, error) {
	if conversationID == "" {
		return Resolution{ConversationID: uuid.New().String(), IsNew: true}, nil
	}

	conv, err := r.store.GetConversation(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return Resolution{ConversationID: conversationID, IsNew: true}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("looking up conversation: %w", err)
	}

	if conv.OwnerID != ownerID {
		return Resolution{}, NewError(KindAccessDenied, "conversation belongs to another account")
	}

	return Resolution{ConversationID: conv.ID, IsNew: false}, nil
}
