// ABOUTME: HTTP API handlers for the conversation engine, JSON and SSE
// ABOUTME: Provides POST /api/chat, POST /api/chat/stream, and conversation reads

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/NEARBuilders/cyborg-gateway/internal/auth"
	"github.com/NEARBuilders/cyborg-gateway/internal/chat"
	"github.com/NEARBuilders/cyborg-gateway/internal/store"
)

// defaultListLimit caps list responses when the client does not ask.
const defaultListLimit = 50

// ChatRequest is the JSON request body for POST /api/chat and /api/chat/stream.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// MessageResponse is the JSON shape of one stored message.
type MessageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

// ChatResponse is the JSON response for POST /api/chat.
type ChatResponse struct {
	ConversationID string          `json:"conversation_id"`
	Message        MessageResponse `json:"message"`
}

// ConversationResponse is the JSON shape of one conversation.
type ConversationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ListConversationsResponse is the JSON response for GET /api/conversations.
type ListConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

// ListMessagesResponse is the JSON response for GET /api/conversations/{id}/messages.
type ListMessagesResponse struct {
	ConversationID string            `json:"conversation_id"`
	Messages       []MessageResponse `json:"messages"`
}

// Server exposes the conversation engine over HTTP.
type Server struct {
	chat     *chat.Service
	verifier auth.TokenVerifier
	logger   *slog.Logger
}

// NewServer creates the API server. logger may be nil for default.
func NewServer(svc *chat.Service, verifier auth.TokenVerifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		chat:     svc,
		verifier: verifier,
		logger:   logger.With("component", "httpapi"),
	}
}

// Handler builds the route table. Health endpoints are public; everything
// under /api/ requires a valid bearer token.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/chat", s.handleChat)
	api.HandleFunc("POST /api/chat/stream", s.handleChatStream)
	api.HandleFunc("GET /api/conversations", s.handleListConversations)
	api.HandleFunc("GET /api/conversations/{id}", s.handleGetConversation)
	api.HandleFunc("GET /api/conversations/{id}/messages", s.handleListMessages)
	api.HandleFunc("DELETE /api/conversations/{id}", s.handleDeleteConversation)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/api/", auth.Middleware(s.verifier)(api))
	return mux
}

// handleHealth handles GET /health. No auth required.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleChat handles POST /api/chat: one blocking turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	req, err := parseChatRequest(r.Body)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.chat.SendMessage(r.Context(), id.AccountID, req.Message, req.ConversationID)
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	writeQuotaHeaders(w, resp.Quota)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{
		ConversationID: resp.ConversationID,
		Message:        toMessageResponse(resp.Message),
	})
}

// handleChatStream handles POST /api/chat/stream: one streaming turn over SSE.
// Synchronous failures (auth, rate limit, ownership, validation) come back as
// JSON errors before any SSE bytes are written; after the stream starts, the
// terminal condition arrives as an SSE complete or error event.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	req, err := parseChatRequest(r.Body)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Check streaming support before doing any work (fail fast)
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("streaming not supported")
		s.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, quota, err := s.chat.StreamMessage(r.Context(), id.AccountID, req.Message, req.ConversationID)
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	// Set quota and SSE headers; nothing can be added once streaming starts
	writeQuotaHeaders(w, quota)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher.Flush()

	s.streamEvents(w, flusher, events)
}

// streamEvents forwards engine events as SSE until the channel closes. The
// engine owns cancellation semantics: when the client disconnects the channel
// closes without a terminal event and there is nobody left to write to anyway.
func (s *Server) streamEvents(w http.ResponseWriter, flusher http.Flusher, events <-chan chat.StreamEvent) {
	for ev := range events {
		switch ev.Type {
		case chat.EventChunk:
			s.writeSSEEvent(w, "chunk", map[string]string{
				"id":    ev.ID,
				"delta": ev.Delta,
			})
		case chat.EventComplete:
			s.writeSSEEvent(w, "complete", map[string]string{
				"id":              ev.ID,
				"conversation_id": ev.ConversationID,
				"message_id":      ev.MessageID,
			})
		case chat.EventError:
			data := map[string]interface{}{
				"id":    ev.ID,
				"kind":  string(ev.Err.Kind),
				"error": ev.Err.Message,
			}
			if ev.Err.RetryAfter > 0 {
				data["retry_after_seconds"] = int(ev.Err.RetryAfter.Seconds())
			}
			s.writeSSEEvent(w, "error", data)
		}
		flusher.Flush()
	}
}

// handleListConversations handles GET /api/conversations.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	convs, err := s.chat.ListConversations(r.Context(), id.AccountID, listLimit(r))
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	resp := ListConversationsResponse{Conversations: make([]ConversationResponse, 0, len(convs))}
	for _, c := range convs {
		resp.Conversations = append(resp.Conversations, toConversationResponse(c))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleGetConversation handles GET /api/conversations/{id}.
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	conv, err := s.chat.GetConversation(r.Context(), id.AccountID, r.PathValue("id"))
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toConversationResponse(conv))
}

// handleListMessages handles GET /api/conversations/{id}/messages.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	conversationID := r.PathValue("id")

	msgs, err := s.chat.ListMessages(r.Context(), id.AccountID, conversationID, listLimit(r))
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	resp := ListMessagesResponse{
		ConversationID: conversationID,
		Messages:       make([]MessageResponse, 0, len(msgs)),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, toMessageResponse(m))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleDeleteConversation handles DELETE /api/conversations/{id}.
func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	if err := s.chat.DeleteConversation(r.Context(), id.AccountID, r.PathValue("id")); err != nil {
		s.writeChatError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeChatError maps engine errors to HTTP responses. A rate-limited denial
// carries Retry-After plus the quota headers so well-behaved clients can
// back off until the window resets.
func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	if errors.Is(err, chat.ErrEmptyMessage) {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := chat.Classify(err)
	if e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(e.RetryAfter.Seconds())))
	}
	writeQuotaHeaders(w, e.Quota)
	s.sendJSONError(w, statusForKind(e.Kind), e.Message)
}

// writeQuotaHeaders reports the caller's rate-limit window. No-op when the
// turn ran without a gate.
func writeQuotaHeaders(w http.ResponseWriter, q *chat.Quota) {
	if q == nil {
		return
	}
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(q.ResetAt.Unix(), 10))
}

// statusForKind maps the engine's error taxonomy onto HTTP status codes.
func statusForKind(kind chat.Kind) int {
	switch kind {
	case chat.KindUnauthorized:
		return http.StatusUnauthorized
	case chat.KindAccessDenied:
		return http.StatusForbidden
	case chat.KindNotFound:
		return http.StatusNotFound
	case chat.KindRateLimited:
		return http.StatusTooManyRequests
	case chat.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeSSEEvent writes a single SSE event to the response writer.
func (s *Server) writeSSEEvent(w http.ResponseWriter, event string, data interface{}) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", dataJSON)
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// parseChatRequest parses and validates a ChatRequest from the given reader.
func parseChatRequest(r io.Reader) (*ChatRequest, error) {
	var req ChatRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	if req.Message == "" {
		return nil, errors.New("message is required")
	}
	return &req, nil
}

// listLimit reads the optional ?limit query parameter.
func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return n
}

func toMessageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}

func toConversationResponse(c *store.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}
