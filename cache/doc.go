// Package cache defines the key/value capability every authkeep component is built on
// and a Redis-backed implementation of it.
//
// # Contract
//
// The components only need SET, GET, DEL, SET-with-expiry, EXPIRE, INCR and pattern
// enumeration. Individual commands are atomic at the cache layer; sequences of commands
// issued by a component are not.
//
// # Failure semantics
//
// Every call is bounded by a per-call timeout. A missing key is reported as [ErrMiss];
// any transport or server failure is wrapped with [ErrUnavailable]. There is no retry:
// callers decide whether a failure is fatal or skipped.
//
// # What this package must NOT do
//
//   - Know about sessions, tokens or any other key family.
//   - Retry or queue failed commands.
package cache
