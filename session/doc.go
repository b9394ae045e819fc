// Package session provides cache-backed session records for authenticated clients.
//
// # Key layout
//
// A session lives under session:<id> as a JSON record and its owner has a single pointer
// user_session:<userId> holding the id of the most recent session. Both keys are written
// with the same TTL. Overwriting the pointer does not delete the previous record; that
// record becomes unreachable through the user and expires on its own TTL.
//
// # Encoding
//
// Records carry a schema version. Flat records written before the versioned envelope
// existed are read as version 1 and rewritten in the current format on the next sliding
// renewal.
//
// # Failure semantics
//
// Cache failures never reach the caller except from [Store.Create]. Reads degrade to
// "not found" and writes to no-ops, each logged at warn level.
//
// # What this package must NOT do
//
//   - Import authkeep or jwt (no upward imports).
//   - Interpret tokens or make authorization decisions.
//   - Store plaintext secrets in [Session] metadata.
package session
