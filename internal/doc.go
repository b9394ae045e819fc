// Package internal contains helpers that are private to authkeep, chiefly secure random
// generation for opaque tokens, session ids and OTPs.
//
// # Sub-packages
//
//   - audit: non-blocking event dispatcher
//   - authtest: engine fixture with recording mailer and fake clock
//   - cachetest: miniredis and failing cache fixtures for tests
//   - config: environment configuration for cmd/authkeep
//   - httpx: JSON envelopes and error-to-status mapping
//   - rate: fixed-window request counter over the cache
//   - stores: OTP, verification-token and temp-data stores
//
// # What this package must NOT do
//
//   - Export types that appear in the public authkeep API.
//   - Be imported by any package outside the authkeep module.
package internal
