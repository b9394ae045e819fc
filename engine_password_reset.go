package authkeep

import (
	"context"

	"github.com/MrEthical07/authkeep/jwt"
)

// ForgotPassword stores a 6-digit reset OTP for email and mails it. The OTP write is
// critical; a failed send is only logged.
func (e *Engine) ForgotPassword(ctx context.Context, email string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	email = normalizeEmail(email)

	user, err := e.users.FindByField(ctx, FieldEmail, email)
	if err != nil {
		return "", e.storeError(err, "User not found")
	}

	otp, err := jwt.RandomOTP()
	if err != nil {
		return "", wrapError(KindInternal, "Internal Server Error", err)
	}
	if err := e.otps.Issue(ctx, email, otp, e.config.Secrets.OTPTTL); err != nil {
		return "", wrapError(KindUpstreamUnavailable, "Service temporarily unavailable", err)
	}
	e.metricInc(MetricPasswordResetRequest)

	if err := e.mailer.SendPasswordResetOTP(ctx, email, otp, user.Fullname); err != nil {
		e.metricInc(MetricMailFailure)
		e.logger.Warn().Err(err).Str("op", "send_reset_otp").Str("user_id", user.ID).Msg("reset email not sent")
	}
	return "Password reset OTP sent to your email", nil
}

// ResetPassword sets a new password when otp matches the live OTP for email. The OTP
// is consumed and the user's session ended. The refresh slot is left for the next
// login to overwrite.
func (e *Engine) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	email = normalizeEmail(email)
	if err := validatePassword(newPassword); err != nil {
		return "", err
	}

	user, err := e.users.FindByField(ctx, FieldEmail, email)
	if err != nil {
		return "", e.storeError(err, "User not found")
	}

	ok, err := e.otps.Match(ctx, email, otp)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		return "", wrapError(KindUpstreamUnavailable, "Service temporarily unavailable", err)
	}
	if !ok {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, AuditPasswordReset, user.ID, false, "invalid otp")
		return "", NewError(KindInvalidCredentials, "Invalid or expired OTP")
	}

	if _, err := e.users.Update(ctx, user.ID, UserUpdate{Password: &newPassword}); err != nil {
		e.metricInc(MetricPasswordResetFailure)
		return "", e.storeError(err, "User not found")
	}
	e.otps.Consume(ctx, email)
	e.invalidateAndEnd(ctx, user.ID, true)

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, AuditPasswordReset, user.ID, true, "")
	return "Password reset successful", nil
}
