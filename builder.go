package authkeep

import (
	"errors"
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

// Builder assembles an Engine. A Builder is single-use.
type Builder struct {
	config Config
	cache  cache.Client
	users  UserStore
	mailer Mailer
	logger zerolog.Logger
	now    func() time.Time
	sink   AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig and a no-op logger.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithCache sets the shared cache. Required.
func (b *Builder) WithCache(client cache.Client) *Builder {
	b.cache = client
	return b
}

// WithUserStore sets the user persistence collaborator. Required.
func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

// WithMailer sets the email collaborator. Required.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithLogger sets the structured logger handed to every component.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the wall clock used for token timestamps and revocation TTLs.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the in-process counters read by Engine.MetricsSnapshot.
// Call it after WithConfig, which replaces the whole configuration.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the authenticate latency histogram. It has no effect
// while metrics are disabled. Call it after WithConfig.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithAuditSink turns on the audit trail. Events are delivered to sink from a
// background goroutine; call Engine.Close to flush them on shutdown.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// Build validates the configuration and wires the engine components over the cache.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.cache == nil {
		return nil, errors.New("cache client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	issuer, err := jwt.NewIssuer(jwt.Config{
		AccessSecret:  cloneBytes(cfg.JWT.AccessSecret),
		RefreshSecret: cloneBytes(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Leeway:        cfg.JWT.Leeway,
		Issuer:        cfg.JWT.Issuer,
		Now:           b.now,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	now := b.now
	if now == nil {
		now = time.Now
	}
	metrics := NewMetrics(cfg.Metrics)

	engine := &Engine{
		config: cfg,
		cache:  b.cache,
		users:  b.users,
		mailer: b.mailer,
		logger: logger.With().Str("component", "engine").Logger(),
		now:    now,

		issuer:        issuer,
		sessions:      session.NewStore(b.cache, cfg.Session.TTL, logger),
		revocations:   revocation.NewRegistry(b.cache, revocation.Config{FailClosed: cfg.Revocation.FailClosed, Now: b.now}, logger, revocationObserver{m: metrics}),
		limiter:       rate.New(b.cache),
		otps:          stores.NewSecretStore(b.cache, stores.OTPPrefix, logger),
		verifications: stores.NewSecretStore(b.cache, stores.VerificationPrefix, logger),
		pendingSocial: stores.NewTempStore(b.cache, "social", logger),
		profiles:      invalidation.NewProfileCache(b.cache, cfg.Profile.CacheTTL, logger),
		invalidator:   invalidation.NewCoordinator(b.cache, logger),
		metrics:       metrics,
	}

	if b.sink != nil {
		engine.audit = audit.New(cfg.Audit.BufferSize, b.sink.Record)
	}

	b.built = true
	return engine, nil
}
