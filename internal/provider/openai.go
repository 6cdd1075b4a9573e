// ABOUTME: OpenAI-compatible completion provider built on sashabaranov/go-openai
// ABOUTME: Configurable base URL, bearer credential, and model identifier

package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds the settings for an OpenAI-compatible endpoint.
// BaseURL may point at any chat-completions server (OpenAI, a proxy,
// a local runtime).
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string

	// RequestTimeout caps a whole generation, streaming included. Zero means
	// no cap.
	RequestTimeout time.Duration
}

// OpenAIProvider implements CompletionProvider against a chat-completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIProvider creates a provider for the configured endpoint.
// Pass nil logger for default.
func NewOpenAIProvider(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("provider model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.RequestTimeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger.With("component", "provider"),
	}, nil
}

// Complete performs a single blocking generation over the full prompt.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: toChatMessages(messages),
	})
	if err != nil {
		p.logger.Warn("completion call failed", "error", err)
		return "", translateError(err)
	}

	if len(resp.Choices) == 0 {
		p.logger.Warn("provider returned no choices")
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream opens an incremental token stream. The returned stream yields one
// text delta per Recv and io.EOF once the generation finishes.
func (p *OpenAIProvider) Stream(ctx context.Context, messages []Message) (CompletionStream, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: toChatMessages(messages),
	})
	if err != nil {
		p.logger.Warn("stream open failed", "error", err)
		return nil, translateError(err)
	}
	return &openaiStream{inner: stream}, nil
}

// openaiStream adapts the SDK stream to CompletionStream, skipping deltas
// with no text content (role prefaces, finish markers).
type openaiStream struct {
	inner *openai.ChatCompletionStream
}

func (s *openaiStream) Recv() (string, error) {
	for {
		resp, err := s.inner.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", translateError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		return delta, nil
	}
}

func (s *openaiStream) Close() error {
	return s.inner.Close()
}

func toChatMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// translateError maps SDK errors onto the boundary sentinels. Authentication
// failures and throttling are distinguished; everything else (5xx, network,
// misconfiguration) collapses to ErrUnavailable.
func translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(reqErr.HTTPStatusCode, reqErr.Error())
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func statusError(status int, msg string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, status, msg)
	}
}
