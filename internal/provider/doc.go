// Package provider wraps the external text-generation service.
//
// CompletionProvider exposes the two call shapes the engine needs: a single
// blocking Complete and an incremental Stream whose deltas the caller pulls
// one at a time. The OpenAI-compatible implementation works against any
// chat-completions endpoint via a configurable base URL, bearer credential,
// and model identifier.
//
// Error translation happens here and only here: SDK and transport failures
// become ErrUnauthorized, ErrRateLimited, or ErrUnavailable before they
// leave the package, so the core never handles provider-native error types.
package provider
