// ABOUTME: StreamCoordinator for conversation turns, blocking and streaming
// ABOUTME: Gates on rate limits, persists turns transactionally, streams events in order

package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NEARBuilders/cyborg-gateway/internal/provider"
	"github.com/NEARBuilders/cyborg-gateway/internal/ratelimit"
	"github.com/NEARBuilders/cyborg-gateway/internal/store"
)

// rateCategory is the limit category every turn is gated under.
const rateCategory = "chat"

// persistTimeout bounds the detached persistence write that follows a
// completed generation, so a caller disconnect cannot abort it mid-way.
const persistTimeout = 5 * time.Second

// Service coordinates a conversation turn end to end:
// resolve → persist user turn → invoke provider → persist assistant turn.
type Service struct {
	store    store.Store
	provider provider.CompletionProvider
	gate     *ratelimit.Gate
	builder  *ContextBuilder
	logger   *slog.Logger
}

// NewService creates the coordinator. gate may be nil (no rate limiting,
// used by tests); logger may be nil for default.
func NewService(s store.Store, p provider.CompletionProvider, gate *ratelimit.Gate, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		provider: p,
		gate:     gate,
		builder:  NewContextBuilder(s),
		logger:   logger.With("component", "chat"),
	}
}

// Response is the result of a blocking turn. Quota reflects the caller's
// rate-limit window after this turn was admitted; it is nil when no gate is
// configured.
type Response struct {
	ConversationID string
	Message        *store.Message
	Quota          *Quota
}

// SendMessage runs one blocking turn. The user message is persisted before
// the provider call; if generation fails the user turn deliberately remains —
// history should show what was asked even when the reply failed.
func (s *Service) SendMessage(ctx context.Context, ownerID, message, conversationID string) (*Response, error) {
	tc, quota, err := s.beginTurn(ctx, ownerID, message, conversationID)
	if err != nil {
		return nil, err
	}

	content, err := s.provider.Complete(ctx, tc.Prompt)
	if err != nil {
		return nil, Classify(err)
	}

	assistantMsg, err := s.persistAssistant(tc.ConversationID, content)
	if err != nil {
		return nil, err
	}

	return &Response{ConversationID: tc.ConversationID, Message: assistantMsg, Quota: quota}, nil
}

// StreamMessage runs one streaming turn. Gate, resolution, and user-turn
// persistence errors are returned synchronously, before any channel exists;
// the returned Quota reflects the admitted caller's window (nil without a
// gate) so transports can report it before streaming starts. On success the
// returned channel yields chunk events in strict arrival order followed by
// exactly one terminal complete or error event; it is unbuffered, so the
// upstream provider stream advances only as the consumer pulls (natural
// backpressure). Cancelling ctx between pulls stops the sequence
// immediately: nothing further is emitted and no assistant message is
// persisted.
func (s *Service) StreamMessage(ctx context.Context, ownerID, message, conversationID string) (<-chan StreamEvent, *Quota, error) {
	tc, quota, err := s.beginTurn(ctx, ownerID, message, conversationID)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan StreamEvent)
	go s.streamTurn(ctx, tc, out)
	return out, quota, nil
}

// beginTurn performs the shared synchronous prefix of both modes: identity
// check, rate gate, context assembly, and the user-turn transaction. Failures
// here guarantee no provider call and no partial writes beyond the rules
// documented on each step. The returned Quota is the caller's per-identity
// window state after admission, nil when no gate is configured.
func (s *Service) beginTurn(ctx context.Context, ownerID, message, conversationID string) (*TurnContext, *Quota, error) {
	if ownerID == "" {
		return nil, nil, NewError(KindUnauthorized, "caller identity is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, nil, ErrEmptyMessage
	}

	var quota *Quota
	if s.gate != nil {
		res, err := s.gate.Allow(rateCategory, ownerID)
		if err != nil {
			s.logger.Error("rate gate misconfigured", "error", err)
			return nil, nil, NewError(KindInternal, "internal error")
		}
		if !res.Allowed {
			return nil, nil, &Error{
				Kind:       KindRateLimited,
				Message:    "rate limit exceeded",
				RetryAfter: res.RetryAfter,
				Quota:      &Quota{Remaining: res.Remaining, ResetAt: res.ResetAt},
			}
		}
		quota = &Quota{Remaining: res.Remaining, ResetAt: res.ResetAt}
	}

	tc, err := s.builder.BuildContext(ctx, ownerID, message, conversationID)
	if err != nil {
		return nil, nil, Classify(err)
	}

	userTurn := &store.UserTurn{
		ConversationID: tc.ConversationID,
		OwnerID:        ownerID,
		IsNew:          tc.IsNew,
		Title:          makeTitle(message),
		MessageID:      uuid.New().String(),
		Content:        message,
		Timestamp:      tc.Timestamp,
	}
	if err := s.store.SaveUserTurn(ctx, userTurn); err != nil {
		s.logger.Error("failed to persist user turn",
			"error", err,
			"conversation_id", tc.ConversationID)
		return nil, nil, NewError(KindInternal, "failed to record message")
	}

	s.logger.Debug("user turn recorded",
		"conversation_id", tc.ConversationID,
		"message_id", userTurn.MessageID,
		"new_conversation", tc.IsNew)

	return tc, quota, nil
}

// streamTurn is the producing side of a streaming turn. It owns the output
// channel and is the only writer, which gives the ordering guarantee: chunks
// in arrival order, at most one terminal event, nothing after it.
func (s *Service) streamTurn(ctx context.Context, tc *TurnContext, out chan<- StreamEvent) {
	defer close(out)

	stream, err := s.provider.Stream(ctx, tc.Prompt)
	if err != nil {
		s.emit(ctx, out, StreamEvent{
			ID:   uuid.New().String(),
			Type: EventError,
			Err:  Classify(err),
		})
		return
	}
	// Closing here also tears down the upstream call when the caller cancels
	// mid-stream, rather than leaving it running to completion.
	defer stream.Close()

	var full strings.Builder
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				// Cancellation surfaced through the stream: no terminal event.
				return
			}
			s.logger.Warn("provider stream failed mid-generation",
				"conversation_id", tc.ConversationID,
				"error", err)
			s.emit(ctx, out, StreamEvent{
				ID:   uuid.New().String(),
				Type: EventError,
				Err:  Classify(err),
			})
			return
		}

		full.WriteString(delta)
		if !s.emit(ctx, out, StreamEvent{
			ID:    uuid.New().String(),
			Type:  EventChunk,
			Delta: delta,
		}) {
			// Cancellation observed between deliveries: stop immediately,
			// persist nothing.
			return
		}
	}

	if ctx.Err() != nil {
		// Cancelled after the last chunk but before completion.
		return
	}

	assistantMsg, err := s.persistAssistant(tc.ConversationID, full.String())
	if err != nil {
		s.emit(ctx, out, StreamEvent{
			ID:   uuid.New().String(),
			Type: EventError,
			Err:  Classify(err),
		})
		return
	}

	s.emit(ctx, out, StreamEvent{
		ID:             uuid.New().String(),
		Type:           EventComplete,
		ConversationID: tc.ConversationID,
		MessageID:      assistantMsg.ID,
	})
}

// emit delivers one event, honoring cancellation. Returns false when the
// context was cancelled instead.
func (s *Service) emit(ctx context.Context, out chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// persistAssistant runs the assistant-turn transaction with a detached
// timeout context so a caller disconnect cannot abort a write that has
// already been decided. A failure here, after a successful generation,
// surfaces as internal and the generated content is lost for the turn.
func (s *Service) persistAssistant(conversationID, content string) (*store.Message, error) {
	saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	msg := &store.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           store.RoleAssistant,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}

	err := s.store.SaveAssistantTurn(saveCtx, &store.AssistantTurn{
		ConversationID: conversationID,
		MessageID:      msg.ID,
		Content:        content,
		Timestamp:      msg.CreatedAt,
	})
	if err != nil {
		s.logger.Error("failed to persist assistant turn",
			"error", err,
			"conversation_id", conversationID)
		return nil, NewError(KindInternal, "failed to record reply")
	}

	s.logger.Debug("assistant turn recorded",
		"conversation_id", conversationID,
		"message_id", msg.ID)

	return msg, nil
}

// GetConversation returns conversation metadata, enforcing ownership on the
// read path.
func (s *Service) GetConversation(ctx context.Context, ownerID, conversationID string) (*store.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, Classify(err)
	}
	if conv.OwnerID != ownerID {
		return nil, NewError(KindAccessDenied, "conversation belongs to another account")
	}
	return conv, nil
}

// ListConversations returns the caller's conversations, most recent first.
func (s *Service) ListConversations(ctx context.Context, ownerID string, limit int) ([]*store.Conversation, error) {
	convs, err := s.store.ListConversations(ctx, ownerID, limit)
	if err != nil {
		return nil, Classify(err)
	}
	return convs, nil
}

// ListMessages returns a conversation's messages oldest-first, enforcing
// ownership first.
func (s *Service) ListMessages(ctx context.Context, ownerID, conversationID string, limit int) ([]*store.Message, error) {
	if _, err := s.GetConversation(ctx, ownerID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, Classify(err)
	}
	return msgs, nil
}

// DeleteConversation removes a conversation and its messages, enforcing
// ownership on the write path.
func (s *Service) DeleteConversation(ctx context.Context, ownerID, conversationID string) error {
	if _, err := s.GetConversation(ctx, ownerID, conversationID); err != nil {
		return err
	}
	if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
		return Classify(err)
	}
	return nil
}
