package mailer

import (
	"context"

	"github.com/MrEthical07/authkeep"
	"github.com/rs/zerolog"
)

var _ authkeep.Mailer = Log{}

// Log writes messages to a logger instead of sending them. Secrets are included so
// local flows can be completed by hand; never use it in production.
type Log struct {
	Logger      zerolog.Logger
	FrontendURL string
}

func (l Log) SendVerification(_ context.Context, email, token, name string) error {
	l.Logger.Info().
		Str("kind", "verification").
		Str("to", email).
		Str("name", name).
		Str("link", verificationLink(l.FrontendURL, email, token)).
		Msg("email")
	return nil
}

func (l Log) SendPasswordResetOTP(_ context.Context, email, otp, name string) error {
	l.Logger.Info().Str("kind", "password_reset_otp").Str("to", email).Str("name", name).Str("otp", otp).Msg("email")
	return nil
}

func (l Log) SendWelcome(_ context.Context, email, name string) error {
	l.Logger.Info().Str("kind", "welcome").Str("to", email).Str("name", name).Msg("email")
	return nil
}
