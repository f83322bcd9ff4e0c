package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/gophdash/internal/server/auth"
)

// TokenQueryParam query параметр с токеном для websocket клиентов,
// которые не умеют выставлять заголовки (браузер)
const TokenQueryParam = "access_token"

// TokenValidator проверяет access token
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// AuthMiddleware создает middleware для проверки JWT токена
func AuthMiddleware(logger *slog.Logger, validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractToken(r)
			if !ok {
				logger.Warn("Missing or malformed credentials", "path", r.URL.Path)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized: missing token")
				return
			}

			claims, err := validator.Validate(tokenString)
			if err != nil {
				logger.Warn("Invalid access token", "error", err)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized: invalid token")
				return
			}

			logger.Debug("User authenticated", "user", claims.User())

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// extractToken берет токен из "Authorization: Bearer <token>", иначе из query
func extractToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if token := r.URL.Query().Get(TokenQueryParam); token != "" {
		return token, true
	}

	return "", false
}
