// ABOUTME: Assembles the prompt for a turn: system instruction + history + new message
// ABOUTME: History is capped at the most recent messages of the resolved conversation

package chat

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/NEARBuilders/cyborg-gateway/internal/provider"
	"github.com/NEARBuilders/cyborg-gateway/internal/store"
)

// historyLimit caps how many prior messages are loaded into the prompt.
const historyLimit = 20

// titleLimit caps conversation titles minted from the first user message.
const titleLimit = 60

// systemInstruction is the fixed instruction prepended to every prompt.
const systemInstruction = "You are Cyborg, a helpful assistant for the builder community. " +
	"Answer clearly and concisely, and use the prior conversation when it is relevant."

// TurnContext is everything the coordinator needs to run one turn.
type TurnContext struct {
	ConversationID string
	IsNew          bool
	Timestamp      time.Time
	Prompt         []provider.Message
}

// ContextBuilder resolves the conversation and assembles the prompt sequence.
type ContextBuilder struct {
	store    store.Store
	resolver *Resolver
}

// NewContextBuilder creates a ContextBuilder over the given store.
func NewContextBuilder(s store.Store) *ContextBuilder {
	return &ContextBuilder{store: s, resolver: NewResolver(s)}
}

// BuildContext resolves the conversation for the caller and produces the
// prompt: system instruction first, then up to historyLimit prior messages
// oldest-first, then the new user message. History is filtered strictly by
// the resolved conversation id.
func (b *ContextBuilder) BuildContext(ctx context.Context, ownerID, userMessage, conversationID string) (*TurnContext, error) {
	res, err := b.resolver.Resolve(ctx, ownerID, conversationID)
	if err != nil {
		return nil, err
	}

	prompt := []provider.Message{{Role: provider.RoleSystem, Content: systemInstruction}}

	if !res.IsNew {
		history, err := b.store.RecentMessages(ctx, res.ConversationID, historyLimit)
		if err != nil {
			return nil, fmt.Errorf("loading history: %w", err)
		}
		for _, msg := range history {
			prompt = append(prompt, provider.Message{Role: promptRole(msg.Role), Content: msg.Content})
		}
	}

	prompt = append(prompt, provider.Message{Role: provider.RoleUser, Content: userMessage})

	return &TurnContext{
		ConversationID: res.ConversationID,
		IsNew:          res.IsNew,
		Timestamp:      time.Now().UTC(),
		Prompt:         prompt,
	}, nil
}

// promptRole maps stored roles onto provider roles. The sets coincide today;
// unknown roles degrade to user so the prompt stays well-formed.
func promptRole(role string) string {
	switch role {
	case store.RoleAssistant:
		return provider.RoleAssistant
	case store.RoleSystem:
		return provider.RoleSystem
	default:
		return provider.RoleUser
	}
}

// makeTitle derives a conversation title from the first user message:
// a truncated prefix, set once at creation.
func makeTitle(content string) string {
	if utf8.RuneCountInString(content) <= titleLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:titleLimit]) + "..."
}
