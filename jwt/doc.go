// Package jwt mints and verifies the two signed token classes (access and refresh) and
// produces the unsigned random secrets used elsewhere (opaque tokens, numeric OTPs).
//
// Verification answers only "can this bitstring be trusted": signature, token class and
// expiry. Whether a token was revoked before expiry is a separate concern owned by the
// revocation package, so signature checks stay pure and side-effect free.
package jwt
