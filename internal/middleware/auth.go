package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/researchkit/deep-research-mcp/internal/auth"
)

// RequireAPIKey is middleware that validates the caller's API key and
// injects the key ID into the request context. Keys are accepted from the
// Authorization header (Bearer) or X-API-Key.
func RequireAPIKey(keys *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := extractKey(r)
			if secret == "" {
				http.Error(w, `{"error":"api key required"}`, http.StatusUnauthorized)
				return
			}

			keyID, err := keys.Verify(r.Context(), secret)
			if err != nil {
				http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), "api_key_id", keyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}
