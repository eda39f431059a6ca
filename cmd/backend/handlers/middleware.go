package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/devadoot/devadoot/logger"
)

// AuthMiddleware validates the static API bearer token the browser
// extension is provisioned with. An empty configured token disables
// authentication, for local development.
type AuthMiddleware struct {
	token  string
	logger logger.Logger
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(token string, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		token:  token,
		logger: log,
	}
}

// Handler wraps an HTTP handler with bearer token authentication.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.logger.Warn(r.Context(), "missing bearer token", map[string]interface{}{
				"path": r.URL.Path,
			})
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		rawToken := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(rawToken), []byte(m.token)) != 1 {
			m.logger.Warn(r.Context(), "invalid bearer token", map[string]interface{}{
				"path": r.URL.Path,
			})
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
