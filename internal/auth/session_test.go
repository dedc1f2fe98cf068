package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// cookieJar carries cookies between simulated requests the way a browser would.
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newJar() *cookieJar {
	return &cookieJar{cookies: map[string]*http.Cookie{}}
}

func (j *cookieJar) update(w *httptest.ResponseRecorder) {
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(j.cookies, c.Name)
			continue
		}
		j.cookies[c.Name] = c
	}
}

func (j *cookieJar) request(method, target string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	for _, c := range j.cookies {
		r.AddCookie(c)
	}
	return r
}

func TestLoginThenUserID(t *testing.T) {
	m := NewSessionManager([]byte("test-secret"), "test_session")
	jar := newJar()

	w := httptest.NewRecorder()
	if err := m.Login(w, jar.request(http.MethodPost, "/login"), "user-1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	jar.update(w)

	id, ok := m.UserID(jar.request(http.MethodGet, "/dashboard"))
	if !ok || id != "user-1" {
		t.Fatalf("UserID = %q, %v; want user-1, true", id, ok)
	}
}

func TestUserIDWithoutSession(t *testing.T) {
	m := NewSessionManager([]byte("test-secret"), "test_session")
	if _, ok := m.UserID(httptest.NewRequest(http.MethodGet, "/dashboard", nil)); ok {
		t.Fatal("fresh request should carry no user")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	m := NewSessionManager([]byte("test-secret"), "test_session")
	jar := newJar()

	w := httptest.NewRecorder()
	if err := m.Login(w, jar.request(http.MethodPost, "/login"), "user-1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	jar.update(w)

	w = httptest.NewRecorder()
	m.Logout(w, jar.request(http.MethodGet, "/logout"))
	jar.update(w)

	if _, ok := m.UserID(jar.request(http.MethodGet, "/dashboard")); ok {
		t.Fatal("session should be gone after logout")
	}
}

func TestFlashesAreOneShot(t *testing.T) {
	m := NewSessionManager([]byte("test-secret"), "test_session")
	jar := newJar()

	w := httptest.NewRecorder()
	m.Flash(w, jar.request(http.MethodPost, "/login"), FlashSuccess, "¡Inicio de sesión exitoso!")
	jar.update(w)

	w = httptest.NewRecorder()
	flashes := m.TakeFlashes(w, jar.request(http.MethodGet, "/dashboard"))
	jar.update(w)
	if len(flashes) != 1 {
		t.Fatalf("flashes = %d, want 1", len(flashes))
	}
	if flashes[0].Kind != FlashSuccess || flashes[0].Text != "¡Inicio de sesión exitoso!" {
		t.Errorf("unexpected flash %+v", flashes[0])
	}

	w = httptest.NewRecorder()
	if again := m.TakeFlashes(w, jar.request(http.MethodGet, "/dashboard")); len(again) != 0 {
		t.Fatalf("flashes should be cleared after read, got %d", len(again))
	}
}

func TestFlashSurvivesLogout(t *testing.T) {
	m := NewSessionManager([]byte("test-secret"), "test_session")
	jar := newJar()

	w := httptest.NewRecorder()
	if err := m.Login(w, jar.request(http.MethodPost, "/login"), "user-1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	jar.update(w)

	w = httptest.NewRecorder()
	r := jar.request(http.MethodGet, "/logout")
	m.Logout(w, r)
	m.Flash(w, r, FlashSuccess, "Has cerrado sesión correctamente.")
	jar.update(w)

	w = httptest.NewRecorder()
	flashes := m.TakeFlashes(w, jar.request(http.MethodGet, "/login"))
	if len(flashes) != 1 || flashes[0].Text != "Has cerrado sesión correctamente." {
		t.Fatalf("logout confirmation lost, got %+v", flashes)
	}
}
