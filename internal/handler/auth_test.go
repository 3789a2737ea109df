package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/perchwood/curbside/internal/database"
	"github.com/perchwood/curbside/internal/middleware"
	"github.com/perchwood/curbside/internal/model"
	"github.com/perchwood/curbside/internal/store"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, *store.SessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sessions := store.NewSessionStore(db)
	return NewAuthHandler(store.NewAccountStore(db), sessions, testLogger()), sessions
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestRegisterCreatesAccountAndSession(t *testing.T) {
	h, sessions := setupAuthHandler(t)

	body := `{"email":"Alice@Example.com","password":"hunter2hunter2","role":"resident","name":"Alice"}`
	req := httptest.NewRequest("POST", "/api/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	var got model.Account
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased", got.Email)
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}
	sess, err := sessions.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		t.Fatalf("session lookup: %v %v", sess, err)
	}
	if sess.AccountID != got.ID {
		t.Errorf("session account = %d, want %d", sess.AccountID, got.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := setupAuthHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"not-an-email","password":"hunter2hunter2"}`},
		{"short password", `{"email":"a@b.com","password":"short"}`},
		{"bad role", `{"email":"a@b.com","password":"hunter2hunter2","role":"admin"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Register(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := setupAuthHandler(t)

	body := `{"email":"a@b.com","password":"hunter2hunter2"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest("POST", "/api/register", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest("POST", "/api/register", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("second register = %d, want 409", rec.Code)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	h, _ := setupAuthHandler(t)

	register := `{"email":"a@b.com","password":"hunter2hunter2","role":"collector","name":"Bob","phone":"555-0101"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest("POST", "/api/register", strings.NewReader(register)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"email":"a@b.com","password":"hunter2hunter2"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", rec.Code, rec.Body)
	}
	if sessionCookie(t, rec) == nil {
		t.Error("expected session cookie on login")
	}

	// Wrong password and unknown email look identical to the caller.
	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"email":"a@b.com","password":"wrong-password"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"email":"nobody@b.com","password":"hunter2hunter2"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown email = %d, want 401", rec.Code)
	}
}

func TestLogoutDeletesSession(t *testing.T) {
	h, sessions := setupAuthHandler(t)

	register := `{"email":"a@b.com","password":"hunter2hunter2"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest("POST", "/api/register", strings.NewReader(register)))
	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}

	req := httptest.NewRequest("POST", "/api/logout", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.Logout(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout = %d", rec.Code)
	}

	sess, err := sessions.GetByToken(cookie.Value)
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	if sess != nil {
		t.Error("expected session to be deleted")
	}

	cleared := sessionCookie(t, rec)
	if cleared == nil || cleared.MaxAge != -1 {
		t.Error("expected cookie to be cleared")
	}
}
