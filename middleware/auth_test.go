package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"Reco/database/memory"
	"Reco/models"
	"Reco/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(t *testing.T, want *models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, want.ID, user.ID)
		w.WriteHeader(http.StatusTeapot)
	})
}

func loggedInRequest(t *testing.T, sessions *services.SessionStore, user *models.User) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Login(rec, httptest.NewRequest(http.MethodPost, "/", nil), user.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestRequireAuth(t *testing.T) {
	users := memory.NewUserStore()
	sessions := services.NewSessionStore("secret", false)
	user, err := models.NewUser("ada@example.com", "hash", "")
	require.NoError(t, err)
	require.NoError(t, users.Add(context.Background(), user))

	handler := RequireAuth(sessions, users)(okHandler(t, user))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, loggedInRequest(t, sessions, user))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	ghost, err := models.NewUser("ghost@example.com", "hash", "")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, loggedInRequest(t, sessions, ghost))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	user, err := models.NewUser("ada@example.com", "hash", "")
	require.NoError(t, err)
	handler := RequireAdmin(okHandler(t, user))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), user)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	user.IsAdmin = true
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), user)))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
