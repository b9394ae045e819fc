package authkeep

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// EnvProduction is the Environment value that turns on secure cookies and hides
// error stacks.
const EnvProduction = "production"

// Config is the engine configuration. Build it from DefaultConfig and override
// fields; the engine keeps its own copy.
type Config struct {
	Environment string
	JWT         JWTConfig
	Session     SessionConfig
	Secrets     SecretsConfig
	Profile     ProfileConfig
	Revocation  RevocationConfig
	Cookie      CookieConfig
	Password    PasswordConfig
	RateLimit   RateLimitConfig
	Metrics     MetricsConfig
	Audit       AuditConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the HS256 token pair. The two secrets must differ.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
SESSION / SECRETS / PROFILE CONFIG
====================================
*/

// SessionConfig sets the sliding session lifetime.
type SessionConfig struct {
	TTL time.Duration
}

// SecretsConfig sets lifetimes of the single-use secrets and parked social profiles.
type SecretsConfig struct {
	OTPTTL           time.Duration
	VerificationTTL  time.Duration
	SocialProfileTTL time.Duration
}

// ProfileConfig sets the profile read-through cache TTL.
type ProfileConfig struct {
	CacheTTL time.Duration
}

// RevocationConfig selects the policy for an unreachable revocation registry.
type RevocationConfig struct {
	// FailClosed rejects access tokens while the registry cannot be read.
	FailClosed bool
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig describes the refresh-token cookie.
type CookieConfig struct {
	Name     string
	Path     string
	MaxAge   time.Duration
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id parameters for user stores built from this config.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RatePolicy is one fixed-window budget.
type RatePolicy struct {
	Window time.Duration
	Max    int64
}

// RateLimitConfig holds the three request budgets applied at the HTTP edge.
type RateLimitConfig struct {
	Global  RatePolicy
	Auth    RatePolicy
	General RatePolicy
}

// MetricsConfig toggles engine counters and the authenticate latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// AuditConfig sizes the audit event buffer. Events are only produced when a sink is
// set with Builder.WithAuditSink.
type AuditConfig struct {
	BufferSize int
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns development defaults. JWT secrets are left empty and must be
// set before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Environment: "development",
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
			Issuer:     "authkeep",
		},
		Session: SessionConfig{
			TTL: 24 * time.Hour,
		},
		Secrets: SecretsConfig{
			OTPTTL:           15 * time.Minute,
			VerificationTTL:  24 * time.Hour,
			SocialProfileTTL: 15 * time.Minute,
		},
		Profile: ProfileConfig{
			CacheTTL: time.Hour,
		},
		Revocation: RevocationConfig{
			FailClosed: true,
		},
		Cookie: CookieConfig{
			Name:     "refreshtoken",
			Path:     "/api/auth/refresh_token",
			MaxAge:   30 * 24 * time.Hour,
			Secure:   false,
			SameSite: http.SameSiteStrictMode,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		RateLimit: RateLimitConfig{
			Global:  RatePolicy{Window: 15 * time.Minute, Max: 1000},
			Auth:    RatePolicy{Window: 15 * time.Minute, Max: 5},
			General: RatePolicy{Window: 15 * time.Minute, Max: 10},
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Audit: AuditConfig{
			BufferSize: 256,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// IsProduction reports whether Environment is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvProduction)
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the engine cannot run with. Production adds
// stricter checks on secrets and cookies.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.AccessSecret) == 0 || len(c.JWT.RefreshSecret) == 0 {
		return errors.New("JWT AccessSecret and RefreshSecret are required")
	}
	if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be greater than AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Session and secrets
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Secrets.OTPTTL <= 0 || c.Secrets.VerificationTTL <= 0 || c.Secrets.SocialProfileTTL <= 0 {
		return errors.New("Secrets TTLs must be > 0")
	}
	if c.Profile.CacheTTL <= 0 {
		return errors.New("Profile CacheTTL must be > 0")
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("Cookie Name is required")
	}
	if !strings.HasPrefix(c.Cookie.Path, "/") {
		return errors.New("Cookie Path must start with /")
	}
	if c.Cookie.MaxAge <= 0 {
		return errors.New("Cookie MaxAge must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Rate limits
	for name, p := range map[string]RatePolicy{
		"Global":  c.RateLimit.Global,
		"Auth":    c.RateLimit.Auth,
		"General": c.RateLimit.General,
	} {
		if p.Window < time.Second || p.Max <= 0 {
			return fmt.Errorf("RateLimit %s needs Window >= 1s and Max > 0", name)
		}
	}

	if c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must be >= 0")
	}

	if c.IsProduction() {
		if len(c.JWT.AccessSecret) < 32 || len(c.JWT.RefreshSecret) < 32 {
			return errors.New("production requires JWT secrets of at least 32 bytes")
		}
		if !c.Cookie.Secure {
			return errors.New("production requires Secure refresh cookies")
		}
		if c.Password.Memory < 64*1024 || c.Password.Time < 2 {
			return errors.New("production requires Argon2 Memory >= 64MB and Time >= 2")
		}
	}
	return nil
}

/*
====================================
LINT
====================================
*/

// LintWarning is a configuration smell that Validate accepts.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult is the list of warnings from Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that are legal but risky.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code, msg string) {
		ws = append(ws, LintWarning{Code: code, Message: msg})
	}

	if !c.Revocation.FailClosed {
		add("revocation_fail_open", "revoked tokens are accepted while the cache is unreachable")
	}
	if c.JWT.AccessTTL > time.Hour {
		add("access_ttl_long", "access tokens live longer than 1h")
	}
	if c.JWT.RefreshTTL > 90*24*time.Hour {
		add("refresh_ttl_long", "refresh tokens live longer than 90d")
	}
	if c.Cookie.MaxAge < c.JWT.RefreshTTL {
		add("cookie_shorter_than_refresh", "refresh cookie expires before the refresh token")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		add("samesite_none_insecure", "SameSite=None cookies are rejected by browsers without Secure")
	}
	if c.Session.TTL > c.JWT.RefreshTTL {
		add("session_longer_than_refresh", "sessions outlive the refresh token that can renew them")
	}
	if c.RateLimit.Auth.Max > 50 {
		add("auth_rate_limit_loose", "more than 50 credential attempts per window")
	}
	return ws
}
