// Package auth provides JWT-based authentication for the HTTP API.
//
// Tokens are HS256-signed JWTs carrying the account id in the "sub" claim.
// The Middleware validates the bearer token on every request and attaches an
// Identity to the request context; handlers retrieve it with FromContext.
// Token validation is stateless — no account lookup happens here, ownership
// checks belong to the conversation engine.
package auth
