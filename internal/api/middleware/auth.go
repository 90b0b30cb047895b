package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api/presenter"
	"github.com/hyejinbaek/cognition-ai-proj/internal/auth"
)

// AdminAuth requires a session token carrying the admin role.
// With an empty signing key every request is refused.
func AdminAuth(signingKey []byte) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(signingKey) == 0 {
				presenter.Error(w, r, "admin api is disabled", http.StatusNotFound)
				return
			}

			tokenStr := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			claims, err := auth.Authorize(signingKey, tokenStr, auth.AdminRole)
			switch {
			case errors.Is(err, auth.ErrInsufficientPrivilege):
				presenter.Error(w, r, err.Error(), http.StatusForbidden)
				return
			case errors.Is(err, auth.ErrMissingToken):
				presenter.Error(w, r, err.Error(), http.StatusUnauthorized)
				return
			case err != nil:
				log.Ctx(r.Context()).Warn().Err(err).Msg("admin token rejected")
				presenter.Error(w, r, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			log.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("sub", claims.Subject)
			})
			next.ServeHTTP(w, r)
		})
	}
}
