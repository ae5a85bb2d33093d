package middleware

import (
	"context"
	"net/http"

	"Reco/models"
	"Reco/services"

	"github.com/goccy/go-json"
)

type contextKey struct{}

var userKey contextKey

// UserFromContext returns the user RequireAuth stored on the request.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

// WithUser is used by RequireAuth and by tests.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// RequireAuth rejects requests without a session for an existing user.
func RequireAuth(sessions *services.SessionStore, users services.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := sessions.UserID(r)
			if !ok {
				unauthorized(w, http.StatusUnauthorized, "authentication required")
				return
			}

			// Verify user still exists
			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				unauthorized(w, http.StatusInternalServerError, "failed to load user")
				return
			}
			if user == nil {
				unauthorized(w, http.StatusUnauthorized, "authentication required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			unauthorized(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !user.IsAdmin {
			unauthorized(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
