// ABOUTME: Store interface and data types for cyborg-gateway persistence
// ABOUTME: Defines Conversation, Message structs and the turn-transaction operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateConversation is returned when creating a conversation whose id already exists
var ErrDuplicateConversation = errors.New("conversation already exists")

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation is a titled, owned thread of ordered messages.
// The title is set once at creation; UpdatedAt is bumped by every turn.
// Ownership is never reassigned.
type Conversation struct {
	ID        string
	OwnerID   string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single immutable message within a conversation,
// ordered by CreatedAt ascending.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}

// UserTurn describes the atomic write for an incoming user message.
// When IsNew is set the conversation row is created with Title; otherwise
// only its updated_at is bumped. The message row is inserted in the same
// transaction.
type UserTurn struct {
	ConversationID string
	OwnerID        string
	IsNew          bool
	Title          string
	MessageID      string
	Content        string
	Timestamp      time.Time
}

// AssistantTurn describes the atomic write for a completed assistant reply:
// bump the conversation's updated_at and insert the assistant message row,
// in one transaction.
type AssistantTurn struct {
	ConversationID string
	MessageID      string
	Content        string
	Timestamp      time.Time
}

// Store defines the interface for conversation and message persistence.
// SaveUserTurn and SaveAssistantTurn are each a single transaction: a reader
// must never observe an updated_at that reflects a turn whose message row is
// missing.
type Store interface {
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, ownerID string, limit int) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	// RecentMessages returns the most recent limit messages of a conversation,
	// re-ordered oldest-first for prompt assembly.
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)

	SaveUserTurn(ctx context.Context, turn *UserTurn) error
	SaveAssistantTurn(ctx context.Context, turn *AssistantTurn) error

	Close() error
}
