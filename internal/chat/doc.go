// Package chat is the streaming conversation engine.
//
// # Overview
//
// The chat package sits between the transport layer and the collaborators
// (store, completion provider, rate limiter), coordinating one conversation
// turn end to end:
//
//	resolve conversation → persist user turn → invoke provider → persist assistant turn
//
// # Service
//
// The Service exposes the two turn modes:
//
//   - SendMessage(ctx, owner, message, conversationID): one blocking
//     generation, returning the conversation id and the persisted assistant
//     message.
//   - StreamMessage(ctx, owner, message, conversationID): an ordered, finite
//     sequence of StreamEvents on an unbuffered channel.
//
// plus owner-scoped reads (GetConversation, ListConversations, ListMessages)
// and DeleteConversation.
//
// # Stream lifecycle
//
// A streaming turn moves through: context built → user persisted →
// generating → complete | error | cancelled. The producing goroutine is the
// channel's only writer, so the contract holds by construction:
//
//   - chunk events arrive in strict provider order, each with a unique id
//   - exactly one terminal event on success or provider failure
//   - the complete event is emitted only after the accumulated text has been
//     durably persisted
//   - cancellation is observed between deliveries; nothing further is
//     emitted and no assistant message is persisted
//
// The channel is unbuffered: the upstream provider stream advances only as
// the consumer pulls, which is the backpressure mechanism.
//
// # Ownership
//
// Resolution happens before any provider call or persistence. A conversation
// id owned by a different account fails with access_denied on every path,
// read or write, and no foreign content is ever loaded into a prompt.
//
// # Errors
//
// All collaborator failures are classified into the closed Kind set
// (unauthorized, access_denied, not_found, rate_limited,
// service_unavailable, internal). Streaming callers receive the terminal
// error event with a sanitized message; blocking callers receive the typed
// *Error.
//
// # Known races
//
// Two concurrent turns on the same conversation are not ordered: both read
// the prior history and both bump updated_at, last write wins. Serializing
// turns per conversation is deliberately out of scope here.
package chat
