// Package rate implements the fixed-window admission counter used by the HTTP rate-limit
// middleware.
//
// # Window semantics
//
// INCR on every request and EXPIRE only when the post-increment count is 1, so the first
// request of a window fixes its boundary. Across a boundary up to 2×max requests can be
// admitted; that is the contract, not a defect. Keys live under ratelimit:.
//
// # Failure semantics
//
// A cache error never denies a request. The decision is Allowed with Err set so the
// caller can log and count it.
//
// # What this package must NOT do
//
//   - Choose keys or policies (the middleware does).
//   - Be imported outside the authkeep module.
package rate
