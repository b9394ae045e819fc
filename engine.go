package authkeep

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/authkeep/cache"
	"github.com/MrEthical07/authkeep/internal/audit"
	"github.com/MrEthical07/authkeep/internal/rate"
	"github.com/MrEthical07/authkeep/internal/stores"
	"github.com/MrEthical07/authkeep/invalidation"
	"github.com/MrEthical07/authkeep/jwt"
	"github.com/MrEthical07/authkeep/revocation"
	"github.com/MrEthical07/authkeep/session"
	"github.com/rs/zerolog"
)

// Engine runs the credential and session flows. All cross-request state lives in
// the cache and the user store; an Engine is safe for concurrent use.
type Engine struct {
	config Config
	cache  cache.Client
	users  UserStore
	mailer Mailer
	logger zerolog.Logger
	now    func() time.Time

	issuer        *jwt.Issuer
	sessions      *session.Store
	revocations   *revocation.Registry
	limiter       *rate.Limiter
	otps          *stores.SecretStore
	verifications *stores.SecretStore
	pendingSocial *stores.TempStore
	profiles      *invalidation.ProfileCache
	invalidator   *invalidation.Coordinator
	metrics       *Metrics
	audit         *audit.Dispatcher[AuditEvent]
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// MetricsSnapshot returns the current engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Ping checks cache reachability.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return e.cache.Ping(ctx)
}

// Admit counts one request against the fixed window of policy/key. Cache failures
// admit the request; the returned decision carries the error.
func (e *Engine) Admit(ctx context.Context, policy, key string, window time.Duration, max int64) RateDecision {
	d := e.limiter.Admit(ctx, policy+":"+key, window, max)
	switch {
	case d.Err != nil:
		e.metricInc(MetricRateLimitFailOpen)
		e.logger.Warn().Err(d.Err).Str("op", "rate_limit").Str("policy", policy).Msg("rate limiter failed open")
	case d.Allowed:
		e.metricInc(MetricRateLimitAllowed)
	default:
		e.metricInc(MetricRateLimitDenied)
	}
	return d
}

/*
====================================
LOGIN
====================================
*/

// Login authenticates by email (identifier containing '@') or username and issues a
// new token pair. The previous refresh token of the user stops working.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	res, err := e.login(ctx, identifier, password)
	if err != nil {
		e.emitAudit(ctx, AuditLoginFailed, "", false, auditReason(err))
		return nil, err
	}
	e.emitAudit(ctx, AuditLogin, res.User.ID, true, "")
	return res, nil
}

func (e *Engine) login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	field, value := FieldUsername, strings.TrimSpace(identifier)
	if strings.Contains(value, "@") {
		field, value = FieldEmail, normalizeEmail(value)
	}
	if value == "" || password == "" {
		return nil, ValidationError("Validation failed", []string{"email or username and password are required"})
	}

	user, err := e.users.FindByField(ctx, field, value)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, e.storeError(err, "User not found")
	}

	ok, err := e.users.ComparePassword(ctx, user, password)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, wrapError(KindInternal, "Internal Server Error", err)
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		return nil, NewError(KindInvalidCredentials, "Invalid credentials")
	}
	if !user.IsEmailVerified {
		e.metricInc(MetricLoginFailure)
		return nil, NewError(KindInvalidCredentials, "Please verify your email before logging in")
	}
	if !user.IsActive {
		e.metricInc(MetricLoginFailure)
		return nil, NewError(KindInvalidCredentials, "Account has been deactivated")
	}

	now := e.now().UTC()
	res, err := e.issueCredentials(ctx, user, UserUpdate{LastLogin: &now}, true)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}
	e.profiles.Put(ctx, user.ID, res.User)

	e.metricInc(MetricLoginSuccess)
	res.Message = "Login successful"
	return res, nil
}

/*
====================================
REFRESH
====================================
*/

// Refresh exchanges the user's current refresh token for a new pair. Only the value
// held in the user's refresh slot is accepted; it is replaced on success.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	res, err := e.refresh(ctx, refreshToken)
	if err != nil {
		e.emitAudit(ctx, AuditRefreshRejected, "", false, auditReason(err))
		return nil, err
	}
	return res, nil
}

func (e *Engine) refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		e.metricInc(MetricRefreshFailure)
		return nil, NewError(KindTokenInvalid, "Please login again")
	}

	claims, err := e.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, wrapError(KindTokenExpired, "Refresh token expired. Please login again.", err)
		}
		return nil, wrapError(KindTokenInvalid, "Invalid refresh token", err)
	}

	user, err := e.users.FindByID(ctx, claims.SubjectID())
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if errors.Is(err, ErrUserNotFound) {
			return nil, NewError(KindTokenInvalid, "Invalid refresh token")
		}
		return nil, e.storeError(err, "")
	}
	if !user.IsActive || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		e.metricInc(MetricRefreshFailure)
		return nil, NewError(KindTokenInvalid, "Invalid refresh token")
	}

	res, err := e.issueCredentials(ctx, user, UserUpdate{}, false)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}
	e.metricInc(MetricRefreshSuccess)
	res.Message = "Token refreshed successfully"
	return res, nil
}

/*
====================================
LOGOUT
====================================
*/

// Logout revokes accessToken, destroys the user's session and drops the cached
// profile. The refresh slot is untouched; the next issuance supersedes it. Every step
// is best-effort; Logout only fails on a nil engine.
func (e *Engine) Logout(ctx context.Context, accessToken, userID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if accessToken != "" {
		if err := e.revocations.Revoke(ctx, accessToken); err != nil {
			e.logger.Warn().Err(err).Str("op", "logout_revoke").Msg("access token not revoked")
		}
	}
	if userID != "" {
		e.sessions.DestroyAllForUser(ctx, userID)
		e.metricInc(MetricSessionDestroyed)
		e.invalidator.InvalidateUser(ctx, userID)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditLogout, userID, true, "")
	return nil
}

/*
====================================
AUTHENTICATE
====================================
*/

// Authenticate resolves an access token to an Identity: revocation check, then
// signature and expiry, then an active user.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricAuthenticateLatency, time.Since(start)) }()
	}

	if accessToken == "" {
		return nil, NewError(KindTokenInvalid, "Access denied. No token provided.")
	}
	if e.revocations.IsRevoked(ctx, accessToken) {
		return nil, NewError(KindTokenRevoked, "Token has been invalidated.")
	}

	claims, err := e.issuer.VerifyAccess(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, wrapError(KindTokenExpired, "Token expired.", err)
		}
		return nil, wrapError(KindTokenInvalid, "Invalid token.", err)
	}

	user, err := e.users.FindByID(ctx, claims.SubjectID())
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, e.storeError(err, "")
	}
	if user == nil || !user.IsActive {
		return nil, NewError(KindTokenInvalid, "Invalid token or user not found.")
	}

	return &Identity{
		UserID:    user.ID,
		Role:      user.Role,
		Token:     accessToken,
		ExpiresAt: claims.Expiry(),
		User:      user.Profile(),
	}, nil
}

/*
====================================
HELPERS
====================================
*/

// issueCredentials mints a pair for user, stores the refresh token in the user's slot
// together with extra, and optionally creates a session. A failed session write is
// logged and does not fail the flow.
func (e *Engine) issueCredentials(ctx context.Context, user *UserRecord, extra UserUpdate, withSession bool) (*AuthResult, error) {
	pair, err := e.issuer.IssuePair(user.ID)
	if err != nil {
		return nil, wrapError(KindInternal, "Internal Server Error", err)
	}

	extra.RefreshToken = &pair.RefreshToken
	updated, err := e.users.Update(ctx, user.ID, extra)
	if err != nil {
		return nil, e.storeError(err, "User not found")
	}
	e.metricInc(MetricTokensIssued)

	res := &AuthResult{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             updated.Profile(),
	}

	if withSession {
		sid, err := e.sessions.Create(ctx, user.ID, sessionMetadata(ctx), 0)
		if err != nil {
			e.logger.Warn().Err(err).Str("op", "session_create").Str("user_id", user.ID).Msg("session not created")
		} else {
			res.SessionID = sid
			e.metricInc(MetricSessionCreated)
		}
	}
	return res, nil
}

// storeError maps a UserStore error. notFound is the message for ErrUserNotFound;
// empty means the caller handles absence itself.
func (e *Engine) storeError(err error, notFound string) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		if notFound == "" {
			notFound = "User not found"
		}
		return wrapError(KindNotFound, notFound, err)
	case errors.Is(err, ErrDuplicateUser):
		return wrapError(KindConflict, "User already exists", err)
	default:
		var typed *Error
		if errors.As(err, &typed) {
			return typed
		}
		e.logger.Error().Err(err).Str("op", "user_store").Msg("user store call failed")
		return wrapError(KindUpstreamUnavailable, "Service temporarily unavailable", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// invalidateAndEnd drops the cached profile and, when endSessions is set, the user's
// session. Used after credential or status changes.
func (e *Engine) invalidateAndEnd(ctx context.Context, userID string, endSessions bool) {
	e.invalidator.InvalidateUser(ctx, userID)
	if endSessions {
		e.sessions.DestroyAllForUser(ctx, userID)
		e.metricInc(MetricSessionDestroyed)
	}
}
