// Package revocation keeps the registry of access tokens invalidated before their natural
// expiry. Each entry lives under blacklist:<token> and expires at the token's own exp
// claim, so the registry never outgrows the set of still-valid tokens.
package revocation
