// Package authkeep is a credential and session lifecycle engine: JWT access and
// refresh tokens, cache-backed sessions, access-token revocation, fixed-window rate
// limiting, one-time secrets for password reset and email verification, and the
// account flows that compose them.
//
// Engine methods are safe for concurrent use after [Builder.Build]. All shared state
// lives in the injected [cache.Client] and [UserStore]; the engine holds none.
//
// # Credential model
//
// Each user has one refresh-token slot. Login, registration, account setup and
// refresh overwrite it, so the previous refresh token stops working immediately.
// Logout revokes the presented access token until its natural expiry.
//
// # Failure policy
//
// Cache failures on session renewal, invalidation and rate limiting are logged and
// skipped. Writes of reset OTPs and verification tokens are critical and surface as
// [KindUpstreamUnavailable]. The revocation check fails closed unless
// RevocationConfig.FailClosed is false.
//
// # Audit trail
//
// With [Builder.WithAuditSink], logins, logouts, rejected refreshes, registrations and
// account changes produce [AuditEvent] values. They are delivered from a background
// goroutine; a full buffer drops events and counts them. [Engine.Close] flushes.
//
// # Sub-packages
//
//   - cache: the cache capability and its go-redis adapter
//   - jwt, session, revocation, invalidation: the components the engine wires
//   - userstore, mailer, social: collaborator implementations
//   - middleware, httpapi: the HTTP boundary
package authkeep
