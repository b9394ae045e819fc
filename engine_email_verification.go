package authkeep

import (
	"context"

	"github.com/MrEthical07/authkeep/jwt"
)

// VerifyEmail marks the user verified when token matches the live verification token
// for email. The token is consumed and a welcome email is sent best-effort.
func (e *Engine) VerifyEmail(ctx context.Context, email, token string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	email = normalizeEmail(email)
	invalid := NewError(KindInvalidCredentials, "Invalid or expired verification token")

	ok, err := e.verifications.Match(ctx, email, token)
	if err != nil {
		e.metricInc(MetricEmailVerificationFailure)
		return "", wrapError(KindUpstreamUnavailable, "Service temporarily unavailable", err)
	}
	if !ok {
		e.metricInc(MetricEmailVerificationFailure)
		return "", invalid
	}

	user, err := e.users.FindByField(ctx, FieldEmail, email)
	if err != nil {
		e.metricInc(MetricEmailVerificationFailure)
		return "", e.storeError(err, invalid.Message)
	}

	verified := true
	if _, err := e.users.Update(ctx, user.ID, UserUpdate{IsEmailVerified: &verified}); err != nil {
		e.metricInc(MetricEmailVerificationFailure)
		return "", e.storeError(err, invalid.Message)
	}
	e.verifications.Consume(ctx, email)
	e.invalidator.InvalidateUser(ctx, user.ID)

	if err := e.mailer.SendWelcome(ctx, email, user.Fullname); err != nil {
		e.metricInc(MetricMailFailure)
		e.logger.Warn().Err(err).Str("op", "send_welcome").Str("user_id", user.ID).Msg("welcome email not sent")
	}

	e.metricInc(MetricEmailVerificationSuccess)
	e.emitAudit(ctx, AuditEmailVerified, user.ID, true, "")
	return "Email verified successfully", nil
}

// ResendVerification issues a fresh verification token for an unverified user and
// mails it. The previous token stops matching.
func (e *Engine) ResendVerification(ctx context.Context, email string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	email = normalizeEmail(email)

	user, err := e.users.FindByField(ctx, FieldEmail, email)
	if err != nil {
		return "", e.storeError(err, "User not found")
	}
	if user.IsEmailVerified {
		return "", NewError(KindConflict, "Email already verified")
	}

	token, err := jwt.RandomOpaqueToken()
	if err != nil {
		return "", wrapError(KindInternal, "Internal Server Error", err)
	}
	if err := e.verifications.Issue(ctx, email, token, e.config.Secrets.VerificationTTL); err != nil {
		return "", wrapError(KindUpstreamUnavailable, "Service temporarily unavailable", err)
	}
	if err := e.mailer.SendVerification(ctx, email, token, user.Fullname); err != nil {
		e.metricInc(MetricMailFailure)
		return "", wrapError(KindUpstreamUnavailable, "Failed to send verification email", err)
	}
	return "Verification email sent", nil
}
