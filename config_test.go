package authkeep

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte(strings.Repeat("a", 32))
	cfg.JWT.RefreshSecret = []byte(strings.Repeat("r", 32))
	return cfg
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.JWT.AccessTTL != 15*time.Minute || cfg.JWT.RefreshTTL != 30*24*time.Hour {
		t.Fatalf("unexpected jwt ttls %v %v", cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	}
	if cfg.Session.TTL != 24*time.Hour || cfg.Profile.CacheTTL != time.Hour {
		t.Fatalf("unexpected session/profile ttls")
	}
	if cfg.Secrets.OTPTTL != 15*time.Minute || cfg.Secrets.VerificationTTL != 24*time.Hour {
		t.Fatalf("unexpected secret ttls")
	}
	if cfg.Cookie.Name != "refreshtoken" || cfg.Cookie.Path != "/api/auth/refresh_token" || cfg.Cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected cookie %+v", cfg.Cookie)
	}
	if !cfg.Revocation.FailClosed {
		t.Fatal("revocation must fail closed by default")
	}
	if cfg.RateLimit.Auth.Max != 5 || cfg.RateLimit.General.Max != 10 || cfg.RateLimit.Global.Max != 1000 {
		t.Fatalf("unexpected rate limits %+v", cfg.RateLimit)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config without secrets must not validate")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{name: "valid", mutate: func(*Config) {}, wantValid: true},
		{
			name:   "same secrets",
			mutate: func(c *Config) { c.JWT.RefreshSecret = cloneBytes(c.JWT.AccessSecret) },
		},
		{
			name:   "refresh not longer than access",
			mutate: func(c *Config) { c.JWT.RefreshTTL = c.JWT.AccessTTL },
		},
		{
			name:      "leeway within bound",
			mutate:    func(c *Config) { c.JWT.Leeway = 30 * time.Second },
			wantValid: true,
		},
		{
			name:   "leeway too large",
			mutate: func(c *Config) { c.JWT.Leeway = 3 * time.Minute },
		},
		{
			name:   "zero session ttl",
			mutate: func(c *Config) { c.Session.TTL = 0 },
		},
		{
			name:   "zero otp ttl",
			mutate: func(c *Config) { c.Secrets.OTPTTL = 0 },
		},
		{
			name:   "relative cookie path",
			mutate: func(c *Config) { c.Cookie.Path = "api/auth" },
		},
		{
			name:   "weak argon2 memory",
			mutate: func(c *Config) { c.Password.Memory = 1024 },
		},
		{
			name:   "sub-second rate window",
			mutate: func(c *Config) { c.RateLimit.Auth.Window = 500 * time.Millisecond },
		},
		{
			name:   "production without secure cookie",
			mutate: func(c *Config) { c.Environment = EnvProduction },
		},
		{
			name: "production short secret",
			mutate: func(c *Config) {
				c.Environment = EnvProduction
				c.Cookie.Secure = true
				c.JWT.AccessSecret = []byte("short")
			},
		},
		{
			name: "production hardened",
			mutate: func(c *Config) {
				c.Environment = "Production"
				c.Cookie.Secure = true
			},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuildConfigImmutabilityAgainstExternalMutation(t *testing.T) {
	cfg := validConfig()
	cloned := cloneConfig(cfg)
	cfg.JWT.AccessSecret[0] = 'X'
	if cloned.JWT.AccessSecret[0] == 'X' {
		t.Fatal("clone must not share secret backing arrays")
	}
}
