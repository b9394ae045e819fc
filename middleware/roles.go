package middleware

import (
	"net/http"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/httpx"
	"github.com/go-chi/chi/v5"
)

// RequireAdmin rejects callers without the admin role. It must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok || !id.IsAdmin() {
			httpx.Error(w, authkeep.NewError(authkeep.KindForbidden, "Access denied. Admin privileges required."), false)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireOwnerOrAdmin admits admins and the user named by the chi URL parameter.
func RequireOwnerOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || (!id.IsAdmin() && id.UserID != chi.URLParam(r, param)) {
				httpx.Error(w, authkeep.NewError(authkeep.KindForbidden, "Access denied. Insufficient privileges."), false)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
