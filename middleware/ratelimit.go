package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/httpx"
)

// Admitter counts requests against fixed-window budgets.
type Admitter interface {
	Admit(ctx context.Context, policy, key string, window time.Duration, max int64) authkeep.RateDecision
}

// Policy is one named request budget.
type Policy struct {
	Name    string
	Window  time.Duration
	Max     int64
	Message string
	// KeyFunc picks the bucket within the policy. Nil means the client IP.
	KeyFunc func(*http.Request) string
}

// RateLimit enforces p. Cache failures let the request through without headers.
func RateLimit(a Admitter, p Policy) func(http.Handler) http.Handler {
	keyFn := p.KeyFunc
	if keyFn == nil {
		keyFn = ClientIP
	}
	msg := p.Message
	if msg == "" {
		msg = "Too many requests, please try again later."
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := a.Admit(r.Context(), p.Name, keyFn(r), p.Window, p.Max)
			if d.Err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if !d.Allowed {
				httpx.RateLimited(w, msg, int64(d.RetryAfter/time.Second))
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			h.Set("X-RateLimit-Reset", d.ResetAt.UTC().Format(http.TimeFormat))
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of RemoteAddr. Run chi's RealIP first when the
// service sits behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientContext records the client IP and User-Agent on the request context so new
// sessions carry them as metadata.
func ClientContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := authkeep.WithClientIP(r.Context(), ClientIP(r))
		ctx = authkeep.WithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
