package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"galleria/internal/services"
	"galleria/internal/utils"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*utils.Claims, error)
}

// NewAuthMiddleware requires a valid bearer token. A missing or malformed header
// is a 401; a token that fails verification is a 403.
func NewAuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				utils.SendJSONError(w, "Missing token", http.StatusUnauthorized)
				return
			}

			// Extract the token from the "Bearer <token>" format
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) || strings.TrimSpace(header[len(prefix):]) == "" {
				utils.SendJSONError(w, "Invalid token format", http.StatusUnauthorized)
				return
			}
			token := strings.TrimSpace(header[len(prefix):])

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, services.ErrUnauthorized) {
					log.Warn().Str("path", r.URL.Path).Msg("Request with invalid token")
					utils.SendJSONError(w, "Invalid or expired token", http.StatusForbidden)
					return
				}
				log.Error().Err(err).Msg("Token verification failed")
				utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithAuth(r.Context(), claims, token)))
		})
	}
}
