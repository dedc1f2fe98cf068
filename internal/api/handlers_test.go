package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"asistencia/internal/account"
	"asistencia/internal/attendance"
	"asistencia/internal/auth"
)

type fakeAccounts struct {
	user     account.User
	password string
}

func (f *fakeAccounts) Authenticate(_ context.Context, username, password string) (account.User, error) {
	if username == f.user.Username && password == f.password {
		return f.user, nil
	}
	return account.User{}, account.ErrInvalidCredentials
}

type fakeRecords struct {
	records    []attendance.Record
	gotClassID string
	gotLimit   int
	gotOffset  int
}

func (f *fakeRecords) List(_ context.Context, classID string, limit, offset int) ([]attendance.Record, error) {
	f.gotClassID, f.gotLimit, f.gotOffset = classID, limit, offset
	return f.records, nil
}

func newTestRouter() (*gin.Engine, *fakeRecords) {
	gin.SetMode(gin.TestMode)
	records := &fakeRecords{records: []attendance.Record{{
		ID: "rec-1", ClassID: "mat101", Surname: "PÉREZ", GivenName: "Ana María",
		DNI: "30111222", RecordedAt: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
	}}}
	accounts := &fakeAccounts{
		user:     account.User{ID: "user-1", Username: "profesor"},
		password: "secreta123",
	}
	r := gin.New()
	New(accounts, records, "asistencia", "test-key", 15*time.Minute).Register(r)
	return r, records
}

func issueToken(t *testing.T, r *gin.Engine, body string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("token status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	if resp.AccessToken == "" || resp.ExpiresAt == 0 {
		t.Fatalf("incomplete token response: %s", w.Body.String())
	}
	return resp.AccessToken
}

func TestTokenIssuesValidJWT(t *testing.T) {
	r, _ := newTestRouter()
	token := issueToken(t, r, `{"username":"profesor","password":"secreta123"}`)

	claims, err := auth.Parse(token, "test-key", "asistencia")
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
}

func TestTokenRejectsBadCredentials(t *testing.T) {
	r, _ := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/token",
		strings.NewReader(`{"username":"profesor","password":"equivocada"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRecordsRequireToken(t *testing.T) {
	r, _ := newTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/records", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRecordsRejectForeignToken(t *testing.T) {
	r, _ := newTestRouter()
	token, _, err := auth.Issue("user-1", "asistencia", "other-key", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRecordsListWithFilters(t *testing.T) {
	r, records := newTestRouter()
	token := issueToken(t, r, `{"username":"profesor","password":"secreta123"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records?clase_id=mat101&limit=10&offset=5", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if records.gotClassID != "mat101" || records.gotLimit != 10 || records.gotOffset != 5 {
		t.Errorf("filters = (%q, %d, %d), want (mat101, 10, 5)",
			records.gotClassID, records.gotLimit, records.gotOffset)
	}
	if !strings.Contains(w.Body.String(), "30111222") {
		t.Errorf("record missing from response: %s", w.Body.String())
	}
}
