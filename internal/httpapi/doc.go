// Package httpapi exposes the conversation engine over HTTP.
//
// Routes:
//
//	GET    /health                              liveness, public
//	POST   /api/chat                            one blocking turn
//	POST   /api/chat/stream                     one streaming turn (SSE)
//	GET    /api/conversations                   the caller's conversations
//	GET    /api/conversations/{id}              one conversation
//	GET    /api/conversations/{id}/messages     a conversation's messages
//	DELETE /api/conversations/{id}              remove a conversation
//
// Everything under /api/ requires a bearer token validated by the auth
// middleware. Engine error kinds map onto status codes (401, 403, 404, 429,
// 503, 500). Gated turns report the caller's window via X-RateLimit-Remaining
// and X-RateLimit-Reset; denials additionally carry Retry-After.
//
// The streaming endpoint commits to SSE only once the turn has started —
// failures before that point are plain JSON errors with the proper status.
package httpapi
