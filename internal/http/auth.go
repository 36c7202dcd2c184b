package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type contextKey string

const UserIDKey contextKey = "userId"

const devUser = "dev-user"

// ExtractUserMiddleware reads the user name set by the reverse proxy's
// basic auth. Requests without one run as dev-user.
func ExtractUserMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Traefik BasicAuth sets this header
			userID := r.Header.Get("X-Auth-User")

			if userID == "" {
				userID = r.Header.Get("X-Forwarded-User")
			}
			if userID == "" {
				userID = r.Header.Get("Remote-User")
			}

			if userID == "" {
				userID = devUser
				log.Debug("no auth header, using dev user", zap.String("path", r.URL.Path))
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
