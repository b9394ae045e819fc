// Package middleware adapts Engine calls to net/http middleware.
//
// # Guards
//
//   - [Authenticate] resolves the Bearer token through Engine.Authenticate and stores
//     the [authkeep.Identity] in the request context.
//   - [RequireAdmin] and [RequireOwnerOrAdmin] gate on the stored identity.
//   - [RateLimit] applies a fixed-window [Policy] and sets the X-RateLimit-* headers.
//
// Failures are written as the JSON error envelope with the status of the error kind.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access the cache (Engine handles I/O).
package middleware
