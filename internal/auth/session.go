package auth

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
)

// Flash kinds consumed by the next rendered page.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
)

// Flash is a one-shot, severity-tagged status message.
type Flash struct {
	Kind string
	Text string
}

func init() {
	gob.Register(Flash{})
}

// SessionManager owns the cookie sessions: one for the authenticated user,
// one for flash messages. Flashes live in their own session so logging out
// (which expires the auth session) does not eat the confirmation banner.
type SessionManager struct {
	store     *sessions.CookieStore
	authName  string
	flashName string
}

// NewSessionManager builds a manager around a cookie store keyed with secret.
func NewSessionManager(secret []byte, name string) *SessionManager {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{
		store:     store,
		authName:  name,
		flashName: name + "_flash",
	}
}

// Login binds the session to the user id.
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, userID string) error {
	s, _ := m.store.Get(r, m.authName)
	s.Values["user_id"] = userID
	return s.Save(r, w)
}

// Logout expires the auth session unconditionally.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) {
	s, _ := m.store.Get(r, m.authName)
	s.Options.MaxAge = -1
	delete(s.Values, "user_id")
	_ = s.Save(r, w)
}

// UserID returns the authenticated user id, if any.
func (m *SessionManager) UserID(r *http.Request) (string, bool) {
	s, _ := m.store.Get(r, m.authName)
	id, ok := s.Values["user_id"].(string)
	return id, ok && id != ""
}

// Flash queues a one-shot message for the next rendered page.
func (m *SessionManager) Flash(w http.ResponseWriter, r *http.Request, kind, text string) {
	s, _ := m.store.Get(r, m.flashName)
	s.AddFlash(Flash{Kind: kind, Text: text})
	_ = s.Save(r, w)
}

// TakeFlashes returns queued messages and clears them.
func (m *SessionManager) TakeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	s, _ := m.store.Get(r, m.flashName)
	raw := s.Flashes()
	if len(raw) > 0 {
		_ = s.Save(r, w)
	}
	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}
