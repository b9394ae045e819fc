// Package mailer delivers the engine's transactional email: verification links,
// password reset OTPs and welcome messages.
//
// SMTP sends through go-mail with the TLS policy chosen from the port. Log writes
// the messages to a zerolog logger and is meant for development.
package mailer
