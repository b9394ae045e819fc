// Command authkeep serves the authentication API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/cache"
	"github.com/MrEthical07/authkeep/httpapi"
	"github.com/MrEthical07/authkeep/internal/config"
	"github.com/MrEthical07/authkeep/mailer"
	promexport "github.com/MrEthical07/authkeep/metrics/export/prometheus"
	"github.com/MrEthical07/authkeep/social"
	"github.com/MrEthical07/authkeep/userstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	logger := log.Logger

	engineCfg := cfg.Engine()
	for _, w := range engineCfg.Lint() {
		logger.Warn().Str("code", w.Code).Msg(w.Message)
	}

	redisCache, rdb := cache.NewRedisClient(cfg.Redis())
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisCache.Ping(ctx); err != nil {
		// Not fatal: the engine degrades per component while Redis is down.
		logger.Warn().Err(err).Msg("redis unreachable at startup")
	}

	users, closeUsers, err := openUsers(cfg, engineCfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open user store")
	}
	defer closeUsers()

	var mail authkeep.Mailer = mailer.Log{Logger: logger.With().Str("component", "mailer").Logger(), FrontendURL: cfg.FrontendURL}
	if cfg.SMTPEnabled() {
		mail = mailer.NewSMTP(cfg.Mailer(engineCfg), logger)
	} else if cfg.IsProduction() {
		logger.Warn().Msg("SMTP_HOST not set; emails are only logged")
	}

	engine, err := authkeep.New().
		WithConfig(engineCfg).
		WithCache(redisCache).
		WithUserStore(users).
		WithMailer(mail).
		WithLogger(logger).
		WithAuditSink(authkeep.NewLogAuditSink(logger)).
		Build()
	if err != nil {
		logger.Fatal().Err(err).Msg("build engine")
	}
	defer engine.Close()

	if cfg.AdminEmail != "" {
		created, err := engine.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		switch {
		case err != nil:
			logger.Error().Err(err).Str("email", cfg.AdminEmail).Msg("admin seed failed, continuing without it")
		case created:
			logger.Info().Str("email", cfg.AdminEmail).Msg("admin account created")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if _, err := promexport.Register(reg, engine); err != nil {
		logger.Fatal().Err(err).Msg("register metrics")
	}

	var google httpapi.SocialVerifier
	if cfg.GoogleClientID != "" {
		google = social.NewGoogle(cfg.GoogleClientID)
	}

	handler, err := httpapi.New(httpapi.Options{
		Engine:         engine,
		Google:         google,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build router")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("env", cfg.Env).Msg("starting authkeep")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
	}
}

func openUsers(cfg config.Config, engineCfg authkeep.Config, logger zerolog.Logger) (authkeep.UserStore, func(), error) {
	hasher, err := userstore.NewHasher(engineCfg.Password)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBDSN == "" {
		logger.Warn().Msg("DB_DSN not set; users are kept in memory")
		return userstore.NewMemory(hasher), func() {}, nil
	}
	store, err := userstore.OpenPostgres(cfg.DBDSN, hasher, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("close database")
		}
	}, nil
}
