// Package invalidation owns the cached user profile entries (user:<id>) and removes them
// when the source of truth changes. Invalidation never fails the write it accompanies;
// a missed delete leaves a stale entry for at most the profile TTL.
package invalidation
