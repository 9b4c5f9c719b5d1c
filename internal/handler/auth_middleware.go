package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/naramarket/naramarket-mcp/internal/model"
	"github.com/naramarket/naramarket-mcp/internal/service"
)

type contextKey string

const claimsContextKey = contextKey("claims")

type AuthMiddleware struct {
	authService service.IAuthService
	logger      zerolog.Logger
}

func NewAuthMiddleware(s service.IAuthService, l zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: s,
		logger:      l,
	}
}

// Authenticate requires a valid "Bearer <jwt>" Authorization header.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			respondWithError(w, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := m.authService.ValidateToken(r.Context(), headerParts[1])
		if err != nil {
			m.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected token")
			if errors.Is(err, service.ErrTokenExpired) {
				respondWithError(w, http.StatusUnauthorized, "Token has expired")
			} else {
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*model.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*model.Claims)
	return claims, ok
}
