// Package config loads the authkeep server configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/cache"
	"github.com/MrEthical07/authkeep/mailer"
)

// Config holds runtime configuration for the authkeep server.
type Config struct {
	Env  string `env:"ENV,default=development"`
	Addr string `env:"ADDR,default=:5000"`

	RedisAddr      string        `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB,default=0"`
	CacheOpTimeout time.Duration `env:"CACHE_OP_TIMEOUT,default=250ms"`

	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET,required"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL,default=15m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL,default=720h"`

	// DBDSN selects the Postgres user store. Empty keeps users in memory.
	DBDSN string `env:"DB_DSN"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASS"`
	EmailFrom    string `env:"EMAIL_FROM,default=noreply@authkeep.local"`
	FrontendURL  string `env:"FRONTEND_URL,default=http://localhost:3000"`

	GoogleClientID string   `env:"GOOGLE_CLIENT_ID"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`
	TrustProxy     bool     `env:"TRUST_PROXY,default=false"`

	RevocationFailClosed bool `env:"REVOCATION_FAIL_CLOSED,default=true"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load reads an optional .env file and returns a Config populated from environment
// variables.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return Config{}, errors.New("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return Config{}, errors.New("config: ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return cfg, nil
}

// IsProduction reports whether ENV is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, authkeep.EnvProduction)
}

// Engine maps the server settings onto an engine config.
func (c Config) Engine() authkeep.Config {
	cfg := authkeep.DefaultConfig()
	cfg.Environment = strings.ToLower(c.Env)
	cfg.JWT.AccessSecret = []byte(c.AccessTokenSecret)
	cfg.JWT.RefreshSecret = []byte(c.RefreshTokenSecret)
	cfg.JWT.AccessTTL = c.AccessTokenTTL
	cfg.JWT.RefreshTTL = c.RefreshTokenTTL
	cfg.Cookie.MaxAge = c.RefreshTokenTTL
	cfg.Cookie.Secure = c.IsProduction()
	cfg.Revocation.FailClosed = c.RevocationFailClosed
	return cfg
}

// Redis returns the cache connection options.
func (c Config) Redis() cache.Options {
	return cache.Options{
		Addr:         c.RedisAddr,
		Password:     c.RedisPassword,
		DB:           c.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		OpTimeout:    c.CacheOpTimeout,
	}
}

// SMTPEnabled reports whether mail should go through an SMTP relay.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// Mailer returns the SMTP settings, with validity windows taken from engine.
func (c Config) Mailer(engine authkeep.Config) mailer.Config {
	return mailer.Config{
		Host:            c.SMTPHost,
		Port:            c.SMTPPort,
		Username:        c.SMTPUser,
		Password:        c.SMTPPassword,
		From:            c.EmailFrom,
		FrontendURL:     c.FrontendURL,
		VerificationTTL: engine.Secrets.VerificationTTL,
		OTPTTL:          engine.Secrets.OTPTTL,
	}
}
