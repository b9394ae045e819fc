package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authkeep"
	"github.com/go-mail/mail/v2"
	"github.com/rs/zerolog"
)

var _ authkeep.Mailer = (*SMTP)(nil)

// Config configures SMTP delivery.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// FrontendURL prefixes the links placed in messages.
	FrontendURL string

	// Validity windows quoted in message bodies.
	VerificationTTL time.Duration
	OTPTTL          time.Duration

	// Attempts is the number of delivery attempts per message. Zero means 3.
	Attempts int
	Timeout  time.Duration
}

// sender is the part of *mail.Dialer SMTP uses.
type sender interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTP sends messages through an SMTP relay.
type SMTP struct {
	cfg    Config
	sender sender
	logger zerolog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewSMTP builds a mailer for cfg. Port 587 requires STARTTLS, 465 uses implicit
// TLS, anything else upgrades opportunistically.
func NewSMTP(cfg Config, logger zerolog.Logger) *SMTP {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = cfg.Timeout
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	switch cfg.Port {
	case 587:
		d.StartTLSPolicy = mail.MandatoryStartTLS
	case 465:
		d.SSL = true
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}
	return newSMTP(cfg, d, logger)
}

func newSMTP(cfg Config, s sender, logger zerolog.Logger) *SMTP {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &SMTP{
		cfg:    cfg,
		sender: s,
		logger: logger.With().Str("component", "mailer").Logger(),
		sleep:  sleepCtx,
	}
}

func (s *SMTP) SendVerification(ctx context.Context, email, token, name string) error {
	c, err := verificationTemplate.render(templateData{
		Name:     name,
		Email:    email,
		Link:     verificationLink(s.cfg.FrontendURL, email, token),
		Validity: humanDuration(s.cfg.VerificationTTL),
	})
	if err != nil {
		return err
	}
	return s.deliver(ctx, email, c, "1")
}

func (s *SMTP) SendPasswordResetOTP(ctx context.Context, email, otp, name string) error {
	c, err := resetOTPTemplate.render(templateData{
		Name:     name,
		Email:    email,
		Code:     otp,
		Validity: humanDuration(s.cfg.OTPTTL),
	})
	if err != nil {
		return err
	}
	return s.deliver(ctx, email, c, "1")
}

func (s *SMTP) SendWelcome(ctx context.Context, email, name string) error {
	c, err := welcomeTemplate.render(templateData{
		Name:      name,
		Email:     email,
		Dashboard: s.cfg.FrontendURL + "/dashboard",
	})
	if err != nil {
		return err
	}
	return s.deliver(ctx, email, c, "")
}

func (s *SMTP) deliver(ctx context.Context, to string, c content, priority string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", s.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", c.Subject)
	if priority != "" {
		msg.SetHeader("X-Priority", priority)
	}
	msg.SetBody("text/plain", c.Text)
	msg.AddAlternative("text/html", c.HTML)

	var err error
	for attempt := 1; attempt <= s.cfg.Attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = s.sender.DialAndSend(msg); err == nil {
			s.logger.Debug().Str("subject", c.Subject).Int("attempt", attempt).Msg("email sent")
			return nil
		}
		s.logger.Warn().Err(err).Str("subject", c.Subject).Int("attempt", attempt).Msg("smtp attempt failed")
		if attempt < s.cfg.Attempts {
			if serr := s.sleep(ctx, time.Duration(attempt)*time.Second); serr != nil {
				err = serr
				break
			}
		}
	}
	return fmt.Errorf("send %q after %d attempts: %w", c.Subject, s.cfg.Attempts, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a limited time"
	case d%time.Hour == 0:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
