// Package httpapi exposes the engine over HTTP: the /api/auth and /api/users routes,
// /health and /metrics.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/httpx"
	"github.com/MrEthical07/authkeep/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// SocialVerifier turns a provider ID token into a verified identity.
type SocialVerifier interface {
	Verify(ctx context.Context, token string) (authkeep.SocialIdentity, error)
}

// Options configures the router.
type Options struct {
	Engine *authkeep.Engine
	// Google verifies googlelogin tokens. Nil disables the route with 503.
	Google SocialVerifier
	Logger zerolog.Logger

	AllowedOrigins []string
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
	// Metrics is mounted on GET /metrics when set.
	Metrics http.Handler
	// MaxBodyBytes caps request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
}

// Server holds the handler dependencies.
type Server struct {
	engine   *authkeep.Engine
	google   SocialVerifier
	logger   zerolog.Logger
	validate *validator.Validate
	cookie   authkeep.CookieConfig
	limits   authkeep.RateLimitConfig
	debug    bool
	maxBody  int64
}

// New builds the router.
func New(opts Options) (http.Handler, error) {
	if opts.Engine == nil {
		return nil, errors.New("httpapi: engine required")
	}
	cfg := opts.Engine.Config()
	s := &Server{
		engine:   opts.Engine,
		google:   opts.Google,
		logger:   opts.Logger.With().Str("component", "http").Logger(),
		validate: newValidator(),
		cookie:   cfg.Cookie,
		limits:   cfg.RateLimit,
		debug:    !cfg.IsProduction(),
		maxBody:  opts.MaxBodyBytes,
	}
	if s.maxBody <= 0 {
		s.maxBody = 1 << 20
	}
	return s.routes(opts), nil
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))
	r.Use(middleware.ClientContext)
	r.Use(middleware.RateLimit(s.engine, s.policy("global", s.limits.Global, "Too many requests from this IP, please try again later.")))

	r.Get("/health", s.health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	authLimit := middleware.RateLimit(s.engine, s.policy("auth", s.limits.Auth, "Too many authentication attempts, please try again later."))
	generalLimit := middleware.RateLimit(s.engine, s.policy("general", s.limits.General, "Too many requests, please try again later."))
	authn := middleware.Authenticate(s.engine)

	r.Route("/api/auth", func(r chi.Router) {
		r.With(authLimit).Post("/register", s.register)
		r.With(authLimit).Post("/login", s.login)
		r.With(authLimit).Post("/googlelogin", s.googleLogin)
		r.With(generalLimit).Post("/accountsetup", s.accountSetup)
		r.With(authLimit).Post("/forgot-password", s.forgotPassword)
		r.With(authLimit).Post("/reset-password", s.resetPassword)
		r.With(generalLimit).Get("/verify-email", s.verifyEmail)
		r.With(generalLimit).Post("/resend-verification", s.resendVerification)
		r.With(generalLimit).Post("/refresh_token", s.refreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/logout", s.logout)
			r.Get("/profile", s.getProfile)
			r.Put("/profile", s.updateProfile)
			r.Get("/session", s.currentSession)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/users", s.listUsers)
				r.Get("/users/stats", s.userStats)
				r.Get("/users/export", s.exportUsers)
				r.Post("/users/bulk", s.bulkAction)
				r.Delete("/users/{userId}", s.deleteUser)
			})
		})
	})

	r.Route("/api/users/{userId}", func(r chi.Router) {
		r.Use(authn)
		r.With(middleware.RequireOwnerOrAdmin("userId")).Get("/", s.getUser)
		r.With(middleware.RequireOwnerOrAdmin("userId")).Put("/", s.updateUser)
		r.With(middleware.RequireOwnerOrAdmin("userId")).Put("/password", s.changePassword)
		r.With(middleware.RequireAdmin).Patch("/toggle-status", s.toggleStatus)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusNotFound, httpx.ErrorBody{Message: "Route not found"})
	})
	return r
}

func (s *Server) policy(name string, p authkeep.RatePolicy, msg string) middleware.Policy {
	return middleware.Policy{Name: name, Window: p.Window, Max: p.Max, Message: msg}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	e := authkeep.AsError(err)
	if e.Status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", chimw.GetReqID(r.Context())).Msg("request failed")
	}
	httpx.Error(w, e, s.debug)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	h := s.engine.Health(r.Context())
	code, status, redis := http.StatusOK, "OK", "OK"
	if !h.CacheAvailable {
		code, status, redis = http.StatusServiceUnavailable, "DEGRADED", "unavailable"
	}
	httpx.JSON(w, code, map[string]any{
		"status":       status,
		"message":      "Server is running",
		"redis":        redis,
		"redisLatency": h.CacheLatency.String(),
	})
}
