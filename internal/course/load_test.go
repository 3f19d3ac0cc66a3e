package course

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const yamlPage = `
version: 1
pages:
  - id: first-aid/recovery-position
    course: first-aid-at-work
    module: module-2
    title: The Recovery Position
    seo:
      title: Recovery Position | First Aid
      description: When and how to place a casualty in the recovery position.
    prev: {label: Primary survey, to: /first-aid/primary-survey}
    next: {label: CPR, to: /first-aid/cpr}
    quickChecks:
      - id: rp-breathing
        question: The casualty is unresponsive but breathing normally. What next?
        options: [Start CPR, Recovery position, Leave them]
        correctIndex: 1
        explanation: Breathing casualties go into the recovery position.
    quiz:
      title: Recovery position quiz
      questions:
        - id: 1
          question: Which hand goes under the cheek?
          options: [Near hand, Far hand]
          correctAnswer: 1
        - id: 2
          question: How often should breathing be rechecked?
          options: [Every hour, Continuously, Never]
          correctAnswer: 1
`

const jsonExam = `{
  "mockExams": [{
    "examId": "faw-mock-1",
    "examTitle": "First Aid at Work mock exam",
    "totalQuestions": 2,
    "timeLimit": 1800,
    "passThreshold": 70,
    "exitPath": "/first-aid",
    "categories": ["CPR", "Bleeding"],
    "questions": [
      {"id": 101, "question": "Compression depth?", "options": ["2cm", "5-6cm"], "correctAnswer": 1, "category": "CPR", "difficulty": "Basic"},
      {"id": 102, "question": "First action for severe bleeding?", "options": ["Direct pressure", "Tourniquet", "Elevate"], "correctAnswer": 0, "category": "Bleeding"}
    ]
  }]
}`

const tomlPage = `
[[pages]]
id = "health-safety/risk"
course = "health-safety"
title = "Risk assessment"

[pages.seo]
title = "Risk assessment"

[[pages.quickChecks]]
id = "rk-1"
question = "Who is responsible for risk assessments?"
options = ["The employer", "Visitors"]
correctIndex = 0
`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDirAllFormats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "recovery.yaml", yamlPage)
	writeFile(t, dir, "exam.json", jsonExam)
	writeFile(t, dir, "risk.toml", tomlPage)
	writeFile(t, dir, "README.md", "ignored")

	b, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(b.Pages) != 2 || len(b.Exams) != 1 {
		t.Fatalf("expected 2 pages and 1 exam, got %d/%d", len(b.Pages), len(b.Exams))
	}

	var rp Page
	for _, p := range b.Pages {
		if p.ID == "first-aid/recovery-position" {
			rp = p
		}
	}
	if rp.Nav.Next == nil || rp.Nav.Next.Path != "/first-aid/cpr" {
		t.Fatalf("nav not decoded: %+v", rp.Nav)
	}
	chk, ok := rp.Check("rp-breathing")
	if !ok || chk.Correct != 1 {
		t.Fatalf("quick check not decoded: %+v", chk)
	}
	if rp.Quiz == nil || rp.Quiz.Questions[0].ID != "1" || rp.Quiz.Questions[1].Correct != 1 {
		t.Fatalf("quiz not decoded: %+v", rp.Quiz)
	}

	e := b.Exams[0]
	if e.TimeLimitSec != 1800 || e.PassThreshold != 70 {
		t.Fatalf("exam settings not decoded: %+v", e)
	}
	q, ok := e.Question("101")
	if !ok || q.Difficulty != DifficultyBasic || q.Category != "CPR" {
		t.Fatalf("bank question not decoded: %+v", q)
	}
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	cases := map[string]string{
		"bad.yaml": "pages:\n  - id: x\n    titel: typo\n",
		"bad.json": `{"pages": [{"id": "x", "titel": "typo"}]}`,
		"bad.toml": "[[pages]]\nid = \"x\"\ntitel = \"typo\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, name, body)
			if _, err := LoadDir(dir); err == nil {
				t.Fatalf("expected unknown field to be rejected")
			}
		})
	}
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "v2.yaml", "version: 2\npages: []\n")
	_, err := LoadDir(dir)
	if err == nil || !strings.Contains(err.Error(), "unsupported version") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestLoadReportsEveryIssue(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", `
pages:
  - id: broken
    title: Broken
    seo: {title: Broken}
    quickChecks:
      - id: a
        question: Out of range
        options: [x, y]
        correctIndex: 2
      - id: a
        question: Missing answer
        options: [x, y]
`)
	_, err := LoadDir(dir)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := map[string]bool{
		"broken.yaml: pages[0].quickChecks[1].correctAnswer": false,
		"pages[broken].checks[0].correct":                    false,
		"pages[broken].checks[1].id":                         false,
	}
	for _, is := range verr.Issues {
		if _, ok := want[is.Field]; ok {
			want[is.Field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("missing issue for %s in %v", field, verr.Issues)
		}
	}
}

func TestLoadDirDuplicatePagesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", yamlPage)
	writeFile(t, dir, "b.yaml", yamlPage)
	_, err := LoadDir(dir)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected duplicate page ids to fail validation, got %v", err)
	}
}

func TestShippedContentIsValid(t *testing.T) {
	b, err := LoadDir(filepath.Join("..", "..", "content"))
	if err != nil {
		t.Fatalf("shipped content: %v", err)
	}
	if len(b.Pages) != 2 || len(b.Exams) != 1 {
		t.Fatalf("got %d pages, %d exams", len(b.Pages), len(b.Exams))
	}
	p := b.Pages[0]
	if p.ID == "level2/module1/section5/earthing-systems" {
		p = b.Pages[1]
	}
	if p.Quiz == nil || p.Quiz.Questions[0].ID != "1" || p.Quiz.Questions[0].Correct != 3 {
		t.Fatalf("unexpected safe isolation quiz: %+v", p.Quiz)
	}
}
