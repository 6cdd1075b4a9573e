// Package store provides persistence for conversations and messages.
//
// # Data model
//
// A Conversation is a titled thread owned by exactly one account. Its title
// is set once, at creation, from a prefix of the first user message, and its
// updated_at is bumped by every turn. Messages are append-only and ordered
// by created_at ascending; deleting a conversation cascades to its messages.
//
// # Turn transactions
//
// The write path is two narrow operations, each wrapping one transaction:
//
//   - SaveUserTurn: insert the conversation row (first turn) or bump
//     updated_at, then insert the user message.
//   - SaveAssistantTurn: bump updated_at and insert the assistant message.
//
// The invariant both protect: a reader never observes an updated_at that
// reflects a turn whose message row is absent. The two turns are separate
// transactions on purpose — assistant persistence happens only after a full
// successful generation, so an interrupted generation leaves the user
// message durably recorded with no dangling assistant row.
//
// # Implementation
//
// SQLiteStore backs the interface with modernc.org/sqlite (pure Go, no cgo),
// WAL journaling, and foreign keys enabled. The schema is created on open.
package store
