// Package password hashes and verifies account passwords with Argon2id.
//
// Hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verify reads the parameters from the stored hash, so records produced with older
// settings keep verifying. [Argon2.NeedsUpgrade] reports when a record should be
// re-hashed with the current parameters.
//
// The package never stores or logs passwords; user stores call it on write and on
// credential comparison.
package password
