package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/httpx"
)

// Authenticator resolves an access token to an Identity.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*authkeep.Identity, error)
}

type identityContextKey struct{}

// IdentityFromContext returns the Identity stored by Authenticate.
func IdentityFromContext(ctx context.Context) (*authkeep.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*authkeep.Identity)
	return id, ok && id != nil
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *authkeep.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// Authenticate requires a valid Bearer access token and stores the resolved
// Identity in the request context.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				httpx.Error(w, authkeep.ErrEngineNotReady, false)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			id, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				httpx.Error(w, err, false)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// bearerToken strips an optional "Bearer " prefix. An empty result means no token.
func bearerToken(value string) string {
	const bearer = "Bearer "
	value = strings.TrimSpace(value)
	if len(value) >= len(bearer) && strings.EqualFold(value[:len(bearer)], bearer) {
		value = value[len(bearer):]
	}
	return strings.TrimSpace(value)
}
