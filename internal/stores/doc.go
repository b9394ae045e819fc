// Package stores provides short-lived cache records for authentication flows: one-time
// secrets (password reset OTPs, email verification tokens) and parked JSON payloads such
// as a social profile awaiting account setup.
//
// # Design
//
// A secret is stored as the hex SHA-256 of its value under <prefix><subject> with a TTL
// and compared in constant time. Issuing a new secret for the same subject replaces the
// previous one. Consumption is an explicit delete after the caller has acted on a match.
//
// Issue is a critical write and reports cache failures. Temp payload operations are
// best-effort and only log.
//
// # What this package must NOT do
//
//   - Import authkeep or any sibling internal package other than the cache client.
//   - Log or expose plaintext secrets.
//   - Use non-constant-time comparisons for secret matching.
package stores
