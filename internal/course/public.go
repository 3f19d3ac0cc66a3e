package course

// PublicQuestion is a question as shown to a learner before answering: no
// correct index and no explanation.
type PublicQuestion struct {
	ID      ID       `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type PublicQuiz struct {
	Title     string           `json:"title"`
	Questions []PublicQuestion `json:"questions"`
}

// PublicPage is the learner-safe form of a Page.
type PublicPage struct {
	ID      string           `json:"id"`
	Course  string           `json:"course"`
	Module  string           `json:"module,omitempty"`
	Section string           `json:"section,omitempty"`
	Title   string           `json:"title"`
	SEO     SEO              `json:"seo"`
	Nav     Nav              `json:"nav"`
	Checks  []PublicQuestion `json:"checks,omitempty"`
	Quiz    *PublicQuiz      `json:"quiz,omitempty"`
}

// PageSummary is a page listing entry.
type PageSummary struct {
	ID         string `json:"id"`
	Course     string `json:"course"`
	Module     string `json:"module,omitempty"`
	Section    string `json:"section,omitempty"`
	Title      string `json:"title"`
	CheckCount int    `json:"check_count"`
	QuizLength int    `json:"quiz_length"`
}

// ExamSummary is a mock exam listing entry; the bank itself is never listed.
type ExamSummary struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	TotalQuestions int      `json:"total_questions"`
	TimeLimitSec   int      `json:"time_limit_sec"`
	PassThreshold  int      `json:"pass_threshold"`
	ExitPath       string   `json:"exit_path,omitempty"`
	Categories     []string `json:"categories"`
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{ID: q.ID, Prompt: q.Prompt, Options: append([]string(nil), q.Options...)}
}

func (p Page) Public() PublicPage {
	out := PublicPage{
		ID:      p.ID,
		Course:  p.Course,
		Module:  p.Module,
		Section: p.Section,
		Title:   p.Title,
		SEO:     p.SEO,
		Nav:     p.Nav,
	}
	for _, q := range p.Checks {
		out.Checks = append(out.Checks, q.Public())
	}
	if p.Quiz != nil {
		pq := &PublicQuiz{Title: p.Quiz.Title}
		for _, q := range p.Quiz.Questions {
			pq.Questions = append(pq.Questions, q.Public())
		}
		out.Quiz = pq
	}
	return out
}

func (p Page) Summary() PageSummary {
	s := PageSummary{
		ID:         p.ID,
		Course:     p.Course,
		Module:     p.Module,
		Section:    p.Section,
		Title:      p.Title,
		CheckCount: len(p.Checks),
	}
	if p.Quiz != nil {
		s.QuizLength = len(p.Quiz.Questions)
	}
	return s
}

func (e MockExam) Summary() ExamSummary {
	return ExamSummary{
		ID:             e.ID,
		Title:          e.Title,
		TotalQuestions: e.TotalQuestions,
		TimeLimitSec:   e.TimeLimitSec,
		PassThreshold:  e.PassThreshold,
		ExitPath:       e.ExitPath,
		Categories:     append([]string(nil), e.Categories...),
	}
}
