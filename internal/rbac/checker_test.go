package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)
	if !c.Has(RoleLearner, PermQuizAnswer) || c.Has(RoleLearner, PermCatalogReload) {
		t.Fatalf("learner permissions wrong")
	}
	if !c.Has(RoleAdmin, PermCatalogReload) || !c.Has(RoleAdmin, PermExamAttempt) {
		t.Fatalf("admin must hold every permission")
	}
	if c.Any("stranger", PermPageView) {
		t.Fatalf("unknown role granted a permission")
	}
}

func TestWildcardSuffix(t *testing.T) {
	c := NewChecker(map[string][]string{"editor": {"catalog:*"}})
	if !c.Has("editor", PermCatalogReload) || c.Has("editor", PermPageView) {
		t.Fatalf("prefix wildcard mismatch")
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(PermCatalogReload)(ok)

	for role, want := range map[string]int{
		"":          http.StatusForbidden,
		RoleLearner: http.StatusForbidden,
		RoleAdmin:   http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodPost, "/admin/catalog/reload", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("role %q: got %d want %d", role, rec.Code, want)
		}
	}
}

func TestRequireAny(t *testing.T) {
	c := NewChecker(map[string][]string{"examinee": {PermExamAttempt}})
	if !c.Any("examinee", PermQuizAnswer, PermExamAttempt) || c.Any("examinee", PermQuizAnswer) {
		t.Fatalf("any mismatch")
	}
	if c.Any("examinee") {
		t.Fatalf("empty permission list must not pass Any")
	}

	h := RequireAny(PermQuizAnswer, PermCatalogReload)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/quizzes/x", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), RoleLearner)))
	if rec.Code != http.StatusOK {
		t.Fatalf("learner rejected: %d", rec.Code)
	}
}
