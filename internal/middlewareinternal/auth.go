package middlewareinternal

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Evgen-Mutagen/wager-custody/internal/core"
	"github.com/Evgen-Mutagen/wager-custody/internal/model"
	"github.com/Evgen-Mutagen/wager-custody/internal/types"
	"github.com/Evgen-Mutagen/wager-custody/internal/util/logger"
	"go.uber.org/zap"
)

var errMissingToken = errors.New("no jwt cookie or bearer token")

func JWTAuthMiddleware(authService core.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := extractToken(r)
			if err != nil {
				logger.Log.Debug("Failed to extract token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := authService.ValidateToken(tokenString)
			if err != nil {
				logger.Log.Warn("Invalid token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), types.UserIDKey, identity)
			logger.Log.Debug("User authenticated",
				zap.String("identity", string(identity)),
				zap.String("path", r.URL.Path))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie("jwt")
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errMissingToken
	}

	return parts[1], nil
}

func GetUserIDFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(types.UserIDKey).(model.Identity)
	return identity, ok && identity != ""
}
