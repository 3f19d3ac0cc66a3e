package course

import (
	"fmt"
	"strings"
)

// Issue is one content defect, addressed by a field path.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports every issue found in a content bundle.
type ValidationError struct {
	Issues []Issue
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("content validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

// Validate checks a bundle for authoring defects: out-of-range answer indices,
// missing text, duplicate ids and inconsistent mock exam configuration.
func Validate(b Bundle) error {
	c := &issueCollector{}
	validateBundle(c, b)
	return c.result()
}

// ValidateQuestions checks a single question list, e.g. one supplied directly by a caller.
func ValidateQuestions(qs []Question) error {
	c := &issueCollector{}
	validateQuestions(c, "questions", qs)
	return c.result()
}

func validateBundle(c *issueCollector, b Bundle) {
	pageIDs := map[string]struct{}{}
	for i, p := range b.Pages {
		prefix := fmt.Sprintf("pages[%d]", i)
		if p.ID != "" {
			prefix = fmt.Sprintf("pages[%s]", p.ID)
		}
		if p.ID == "" {
			c.add(prefix+".id", "is required")
		} else if _, dup := pageIDs[p.ID]; dup {
			c.add(prefix+".id", fmt.Sprintf("duplicate page id %q", p.ID))
		} else {
			pageIDs[p.ID] = struct{}{}
		}
		validatePage(c, prefix, p)
	}

	examIDs := map[string]struct{}{}
	for i, e := range b.Exams {
		prefix := fmt.Sprintf("exams[%d]", i)
		if e.ID != "" {
			prefix = fmt.Sprintf("exams[%s]", e.ID)
		}
		if e.ID == "" {
			c.add(prefix+".id", "is required")
		} else if _, dup := examIDs[e.ID]; dup {
			c.add(prefix+".id", fmt.Sprintf("duplicate exam id %q", e.ID))
		} else {
			examIDs[e.ID] = struct{}{}
		}
		validateExam(c, prefix, e)
	}
}

func validatePage(c *issueCollector, prefix string, p Page) {
	if strings.TrimSpace(p.Title) == "" {
		c.add(prefix+".title", "is required")
	}
	if strings.TrimSpace(p.SEO.Title) == "" {
		c.add(prefix+".seo.title", "is required")
	}
	validateLink(c, prefix+".nav.prev", p.ID, p.Nav.Prev)
	validateLink(c, prefix+".nav.next", p.ID, p.Nav.Next)
	validateQuestions(c, prefix+".checks", p.Checks)
	if p.Quiz != nil {
		if strings.TrimSpace(p.Quiz.Title) == "" {
			c.add(prefix+".quiz.title", "is required")
		}
		if len(p.Quiz.Questions) == 0 {
			c.add(prefix+".quiz.questions", "must include at least one entry")
		}
		validateQuestions(c, prefix+".quiz.questions", p.Quiz.Questions)
	}
}

func validateLink(c *issueCollector, field, pageID string, l *Link) {
	if l == nil {
		return
	}
	path := strings.TrimSpace(l.Path)
	switch {
	case path == "":
		c.add(field+".path", "is required")
	case pageID != "" && strings.Trim(path, "/") == pageID:
		c.add(field+".path", "points at the page itself")
	}
}

func validateExam(c *issueCollector, prefix string, e MockExam) {
	if strings.TrimSpace(e.Title) == "" {
		c.add(prefix+".title", "is required")
	}
	if e.TotalQuestions <= 0 {
		c.add(prefix+".totalQuestions", "must be positive")
	} else if e.TotalQuestions > len(e.Bank) {
		c.add(prefix+".totalQuestions", fmt.Sprintf("exceeds bank size %d", len(e.Bank)))
	}
	if e.TimeLimitSec < 0 {
		c.add(prefix+".timeLimit", "must not be negative")
	}
	if e.PassThreshold < 0 || e.PassThreshold > 100 {
		c.add(prefix+".passThreshold", "must be between 0 and 100")
	}
	if len(e.Categories) == 0 {
		c.add(prefix+".categories", "must include at least one entry")
	}
	cats := make(map[string]struct{}, len(e.Categories))
	for _, cat := range e.Categories {
		cats[cat] = struct{}{}
	}

	qs := make([]Question, 0, len(e.Bank))
	for i, bq := range e.Bank {
		field := fmt.Sprintf("%s.bank[%d]", prefix, i)
		if _, ok := cats[bq.Category]; !ok {
			c.add(field+".category", fmt.Sprintf("unknown category %q", bq.Category))
		}
		if bq.Difficulty != "" && !bq.Difficulty.Valid() {
			c.add(field+".difficulty", fmt.Sprintf("unknown difficulty %q", bq.Difficulty))
		}
		qs = append(qs, bq.Question)
	}
	validateQuestions(c, prefix+".bank", qs)
}

func validateQuestions(c *issueCollector, prefix string, qs []Question) {
	seen := map[ID]struct{}{}
	for i, q := range qs {
		field := fmt.Sprintf("%s[%d]", prefix, i)
		if q.ID == "" {
			c.add(field+".id", "is required")
		} else if _, dup := seen[q.ID]; dup {
			c.add(field+".id", fmt.Sprintf("duplicate id %q", q.ID))
		} else {
			seen[q.ID] = struct{}{}
		}
		if strings.TrimSpace(q.Prompt) == "" {
			c.add(field+".question", "is required")
		}
		if len(q.Options) < 2 {
			c.add(field+".options", "must include at least two entries")
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				c.add(fmt.Sprintf("%s.options[%d]", field, j), "is required")
			}
		}
		if len(q.Options) > 0 && !q.InRange(q.Correct) {
			c.add(field+".correct", fmt.Sprintf("index %d out of range for %d options", q.Correct, len(q.Options)))
		}
	}
}
