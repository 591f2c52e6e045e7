package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gramtop961/backend/internal/auth"
	"github.com/gramtop961/backend/internal/utils"
)

// context key
type ctxKey string

// CtxUserIDKey holds the verified token subject (the user id in hex).
const CtxUserIDKey ctxKey = "user_id"

// Auth verifies the bearer token with the injected issuer and pushes its
// subject into the request context.
func Auth(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				utils.JSONError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				utils.JSONError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			token := strings.TrimSpace(parts[1])
			if token == "" {
				utils.JSONError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			claims, err := issuer.Verify(token)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), CtxUserIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
