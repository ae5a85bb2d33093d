package services

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	sessionName   = "reco-session"
	sessionUserID = "user_id"
)

// SessionStore keeps the logged-in user id in a signed cookie.
type SessionStore struct {
	store *sessions.CookieStore
}

func NewSessionStore(secret string, secure bool) *SessionStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store}
}

func (s *SessionStore) Get(r *http.Request) (*sessions.Session, error) {
	return s.store.Get(r, sessionName)
}

// Login records userID on the session and writes the cookie.
func (s *SessionStore) Login(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	session, err := s.Get(r)
	if err != nil && session == nil {
		return err
	}
	session.Values[sessionUserID] = userID.String()
	return session.Save(r, w)
}

func (s *SessionStore) Logout(w http.ResponseWriter, r *http.Request) error {
	session, err := s.Get(r)
	if err != nil && session == nil {
		return err
	}
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// UserID returns the id stored on the request's session, if any.
func (s *SessionStore) UserID(r *http.Request) (uuid.UUID, bool) {
	session, err := s.Get(r)
	if err != nil {
		return uuid.Nil, false
	}
	raw, ok := session.Values[sessionUserID].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
