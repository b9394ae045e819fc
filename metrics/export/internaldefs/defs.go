package internaldefs

import "github.com/MrEthical07/authkeep"

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   authkeep.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   authkeep.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authkeep.MetricRegisterSuccess, Name: "authkeep_register_success_total", Help: "Completed registrations."},
	{ID: authkeep.MetricRegisterConflict, Name: "authkeep_register_conflict_total", Help: "Registrations rejected for a taken email or username."},
	{ID: authkeep.MetricLoginSuccess, Name: "authkeep_login_success_total", Help: "Successful password logins."},
	{ID: authkeep.MetricLoginFailure, Name: "authkeep_login_failure_total", Help: "Failed password logins."},
	{ID: authkeep.MetricSocialLogin, Name: "authkeep_social_login_total", Help: "Social logins of existing accounts."},
	{ID: authkeep.MetricAccountSetup, Name: "authkeep_account_setup_total", Help: "Accounts created through social account setup."},
	{ID: authkeep.MetricRefreshSuccess, Name: "authkeep_refresh_success_total", Help: "Successful refresh token exchanges."},
	{ID: authkeep.MetricRefreshFailure, Name: "authkeep_refresh_failure_total", Help: "Rejected refresh token exchanges."},
	{ID: authkeep.MetricLogout, Name: "authkeep_logout_total", Help: "Logouts."},
	{ID: authkeep.MetricTokensIssued, Name: "authkeep_tokens_issued_total", Help: "Token pairs issued."},
	{ID: authkeep.MetricSessionCreated, Name: "authkeep_session_created_total", Help: "Server-side sessions created."},
	{ID: authkeep.MetricSessionDestroyed, Name: "authkeep_session_destroyed_total", Help: "Server-side session teardowns."},
	{ID: authkeep.MetricTokenRevoked, Name: "authkeep_token_revoked_total", Help: "Access tokens added to the revocation registry."},
	{ID: authkeep.MetricRevocationLookupFailed, Name: "authkeep_revocation_lookup_failed_total", Help: "Revocation lookups that could not reach the cache."},
	{ID: authkeep.MetricPasswordResetRequest, Name: "authkeep_password_reset_request_total", Help: "Password reset OTPs issued."},
	{ID: authkeep.MetricPasswordResetSuccess, Name: "authkeep_password_reset_success_total", Help: "Completed password resets."},
	{ID: authkeep.MetricPasswordResetFailure, Name: "authkeep_password_reset_failure_total", Help: "Password resets rejected for a bad OTP."},
	{ID: authkeep.MetricEmailVerificationSuccess, Name: "authkeep_email_verification_success_total", Help: "Verified email addresses."},
	{ID: authkeep.MetricEmailVerificationFailure, Name: "authkeep_email_verification_failure_total", Help: "Rejected verification tokens."},
	{ID: authkeep.MetricRateLimitAllowed, Name: "authkeep_rate_limit_allowed_total", Help: "Requests admitted by the rate limiter."},
	{ID: authkeep.MetricRateLimitDenied, Name: "authkeep_rate_limit_denied_total", Help: "Requests denied by the rate limiter."},
	{ID: authkeep.MetricRateLimitFailOpen, Name: "authkeep_rate_limit_fail_open_total", Help: "Requests admitted because the rate limiter could not reach the cache."},
	{ID: authkeep.MetricMailFailure, Name: "authkeep_mail_failure_total", Help: "Emails that could not be sent."},
	{ID: authkeep.MetricAuditDropped, Name: "authkeep_audit_dropped_total", Help: "Audit events discarded because the buffer was full."},
}

var HistogramDefs = []HistogramDef{
	{ID: authkeep.MetricAuthenticateLatency, Name: "authkeep_authenticate_latency_seconds", Help: "Access token authentication latency."},
}

// HistogramBounds are the upper bucket bounds in seconds, excluding +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters without
// native histogram labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
