package course

import (
	"errors"
	"testing"
)

func issueFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	out := map[string]string{}
	for _, is := range verr.Issues {
		out[is.Field] = is.Message
	}
	return out
}

func TestValidatePageNav(t *testing.T) {
	b := Bundle{Pages: []Page{{
		ID: "level2/module1/section3", Title: "Isolation", SEO: SEO{Title: "Isolation"},
		Nav: Nav{
			Prev: &Link{Label: "Back", Path: ""},
			Next: &Link{Label: "Self", Path: "/level2/module1/section3"},
		},
	}}}
	got := issueFields(t, Validate(b))
	if _, ok := got["pages[level2/module1/section3].nav.prev.path"]; !ok {
		t.Errorf("missing prev path issue: %v", got)
	}
	if msg := got["pages[level2/module1/section3].nav.next.path"]; msg != "points at the page itself" {
		t.Errorf("self link issue = %q", msg)
	}
}

func TestValidateExam(t *testing.T) {
	q := func(id string) BankQuestion {
		return BankQuestion{Question: Question{ID: ID(id), Prompt: "?", Options: []string{"a", "b"}}, Category: "Testing"}
	}
	bad := q("2")
	bad.Category = "Wiring"
	bad.Difficulty = "expert"
	b := Bundle{Exams: []MockExam{{
		ID: "el", Title: "Mock", TotalQuestions: 3, PassThreshold: 120,
		Categories: []string{"Testing"}, Bank: []BankQuestion{q("1"), bad},
	}}}
	got := issueFields(t, Validate(b))
	for _, field := range []string{
		"exams[el].totalQuestions",
		"exams[el].passThreshold",
		"exams[el].bank[1].category",
		"exams[el].bank[1].difficulty",
	} {
		if _, ok := got[field]; !ok {
			t.Errorf("missing issue for %s: %v", field, got)
		}
	}
}

func TestValidateDuplicateIDs(t *testing.T) {
	page := func(id string) Page { return Page{ID: id, Title: "T", SEO: SEO{Title: "T"}} }
	p := page("a")
	p.Checks = []Question{
		{ID: "c", Prompt: "?", Options: []string{"x", "y"}},
		{ID: "c", Prompt: "?", Options: []string{"x", "y"}},
	}
	got := issueFields(t, Validate(Bundle{Pages: []Page{p, page("a")}}))
	if _, ok := got["pages[a].checks[1].id"]; !ok {
		t.Errorf("duplicate check id not reported: %v", got)
	}
	if msg := got["pages[a].id"]; msg != `duplicate page id "a"` {
		t.Errorf("duplicate page id message = %q", msg)
	}
}
