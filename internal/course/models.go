package course

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ID is an opaque question identifier. Content files use numbers for quiz
// questions and slugs for quick checks; both decode to the same string form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id *ID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: id must be a scalar", value.Line)
	}
	*id = ID(strings.TrimSpace(value.Value))
	return nil
}

// UnmarshalTOML satisfies toml.Unmarshaler.
func (id *ID) UnmarshalTOML(v any) error {
	switch t := v.(type) {
	case string:
		*id = ID(strings.TrimSpace(t))
	case int64:
		*id = ID(strconv.FormatInt(t, 10))
	default:
		return fmt.Errorf("id must be a string or integer, got %T", v)
	}
	return nil
}

func (id ID) String() string { return string(id) }

// Question is one knowledge-check or quiz item. Options are in display order and
// Correct indexes into them, so the two must never be reordered independently.
type Question struct {
	ID          ID       `json:"id"`
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation,omitempty"`
}

// InRange reports whether i is a selectable option index.
func (q Question) InRange(i int) bool { return i >= 0 && i < len(q.Options) }

// IsCorrect reports whether selecting option i answers q correctly.
func (q Question) IsCorrect(i int) bool { return i == q.Correct }

// Kind is the grading kind of the question.
func (q Question) Kind() string {
	if len(q.Options) == 2 {
		return KindTrueFalse
	}
	return KindSingleChoice
}

const (
	KindSingleChoice = "single_choice"
	KindTrueFalse    = "true_false"
)

type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Link struct {
	Label string `json:"label,omitempty"`
	Path  string `json:"path"`
}

type Nav struct {
	Prev *Link `json:"prev,omitempty"`
	Next *Link `json:"next,omitempty"`
}

type QuizSpec struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Page is one course section: its metadata, the inline checks placed through the
// article and the end-of-article quiz.
type Page struct {
	ID      string     `json:"id"`
	Course  string     `json:"course"`
	Module  string     `json:"module,omitempty"`
	Section string     `json:"section,omitempty"`
	Title   string     `json:"title"`
	SEO     SEO        `json:"seo"`
	Nav     Nav        `json:"nav"`
	Checks  []Question `json:"checks,omitempty"`
	Quiz    *QuizSpec  `json:"quiz,omitempty"`
}

// Check returns the inline check with the given id.
func (p Page) Check(id string) (Question, bool) {
	for _, q := range p.Checks {
		if string(q.ID) == id {
			return q, true
		}
	}
	return Question{}, false
}

type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBasic, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// BankQuestion is a mock exam question tagged for balanced drawing.
type BankQuestion struct {
	Question
	Section    string     `json:"section,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Topic      string     `json:"topic,omitempty"`
	Category   string     `json:"category"`
}

// MockExam is a timed exam drawn from a categorised question bank.
type MockExam struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	TotalQuestions int            `json:"total_questions"`
	TimeLimitSec   int            `json:"time_limit_sec"`
	PassThreshold  int            `json:"pass_threshold"` // percent
	ExitPath       string         `json:"exit_path,omitempty"`
	Categories     []string       `json:"categories"`
	Bank           []BankQuestion `json:"bank"`
}

// Question returns the bank question with the given id.
func (e MockExam) Question(id string) (BankQuestion, bool) {
	for _, q := range e.Bank {
		if string(q.ID) == id {
			return q, true
		}
	}
	return BankQuestion{}, false
}

// Bundle is everything loaded from a content directory.
type Bundle struct {
	Pages []Page     `json:"pages"`
	Exams []MockExam `json:"exams"`
}

func (b *Bundle) merge(o Bundle) {
	b.Pages = append(b.Pages, o.Pages...)
	b.Exams = append(b.Exams, o.Exams...)
}
