package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/mindengage-studycentre/internal/auth/middleware"
	"github.com/mind-engage/mindengage-studycentre/internal/rbac"
)

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) tokenResponse {
	t.Helper()
	var out tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestGuestLoginIssuesLearnerToken(t *testing.T) {
	a := authmw.NewAuthService("test-secret", time.Hour)
	h := GuestLoginHandler(a, true, false, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	out := decodeToken(t, rec)
	if !strings.HasPrefix(out.Subject, guestPrefix) || out.Role != rbac.RoleLearner {
		t.Fatalf("unexpected guest %+v", out)
	}
	claims, err := a.Parse(out.AccessToken)
	if err != nil || claims.Sub != out.Subject {
		t.Fatalf("token does not parse back: %v %+v", err, claims)
	}

	// the cookie brings the same identity back
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != out.Subject {
		t.Fatalf("guest cookie not set: %+v", cookies)
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/guest", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if again := decodeToken(t, rec); again.Subject != out.Subject {
		t.Fatalf("guest identity not reused: %s vs %s", again.Subject, out.Subject)
	}

	// forged cookies are ignored
	req = httptest.NewRequest(http.MethodPost, "/auth/guest", nil)
	req.AddCookie(&http.Cookie{Name: guestCookie, Value: "admin"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if forged := decodeToken(t, rec); forged.Subject == "admin" {
		t.Fatalf("forged cookie accepted")
	}
}

func TestGuestLoginDisabled(t *testing.T) {
	a := authmw.NewAuthService("test-secret", time.Hour)
	rec := httptest.NewRecorder()
	GuestLoginHandler(a, false, false, zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a := authmw.NewAuthService("test-secret", time.Hour)
	h := LoginHandler(a, "admin", string(hash), zap.NewNop())

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body)))
		return rec
	}

	rec := post(`{"username":"admin","password":"s3cret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if out := decodeToken(t, rec); out.Role != rbac.RoleAdmin {
		t.Fatalf("expected admin role, got %+v", out)
	}
	if rec := post(`{"username":"admin","password":"nope"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d", rec.Code)
	}
	if rec := post(`{"username":"root","password":"s3cret"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong user: %d", rec.Code)
	}
	if rec := post(`not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body: %d", rec.Code)
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := authmw.NewAuthService("test-secret", time.Hour)
	var gotSub, gotRole string
	h := authmw.JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = authmw.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	tok, _ := a.IssueJWT("guest|x", rbac.RoleLearner)
	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || gotSub != "guest|x" || gotRole != rbac.RoleLearner {
		t.Fatalf("context not populated: %d %q %q", rec.Code, gotSub, gotRole)
	}

	other := authmw.NewAuthService("other-secret", time.Hour)
	forged, _ := other.IssueJWT("guest|x", rbac.RoleAdmin)
	for _, hdr := range []string{"", "Bearer junk", "Bearer " + forged} {
		req := httptest.NewRequest(http.MethodGet, "/pages", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", hdr, rec.Code)
		}
	}
}
