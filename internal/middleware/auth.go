package middleware

import (
	"context"
	"net/http"
	"strings"

	"clicker/internal/auth"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "userID"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RequireAuth validates the bearer access token and stores its account ID in the request context
func RequireAuth(secret []byte, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w)
				return
			}

			userID, err := auth.GetUserIDFromToken(token, secret)
			if err != nil {
				logger.Debug("Rejected access token", zap.String("path", r.URL.Path), zap.Error(err))
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the account ID stored by RequireAuth
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
