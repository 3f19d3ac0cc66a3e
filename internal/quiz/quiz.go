// Package quiz implements the end-of-article assessment: answers are collected
// without feedback, then a single submission scores the whole quiz and reveals
// every question's answer and explanation.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-studycentre/internal/course"
	"github.com/mind-engage/mindengage-studycentre/internal/grading"
)

type State string

const (
	StateUnanswered State = "unanswered"
	StateInProgress State = "in_progress"
	StateSubmitted  State = "submitted"
)

var (
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrOptionOutOfRange = errors.New("option index out of range")
	ErrSubmitted        = errors.New("quiz already submitted")
	ErrTimeUp           = errors.New("time limit reached")
	ErrResultMismatch   = errors.New("stored result does not match quiz")
)

// Quiz is one rendered quiz. It is not safe for concurrent use; callers
// serialise access per instance.
type Quiz struct {
	title     string
	questions []course.Question
	index     map[course.ID]int
	selected  map[course.ID]int
	submitted bool
	timedOut  bool
	result    Result

	grader   grading.Grader
	deadline time.Time
	passMark int
	now      func() time.Time
}

type Option func(*Quiz)

func WithGrader(g grading.Grader) Option { return func(q *Quiz) { q.grader = g } }

// WithDeadline makes the quiz submit itself once t has passed.
func WithDeadline(t time.Time) Option { return func(q *Quiz) { q.deadline = t } }

// WithPassMark sets a percentage pass mark reported in the result.
func WithPassMark(pct int) Option { return func(q *Quiz) { q.passMark = pct } }

func WithClock(now func() time.Time) Option { return func(q *Quiz) { q.now = now } }

func New(title string, questions []course.Question, opts ...Option) *Quiz {
	q := &Quiz{
		title:     title,
		questions: questions,
		index:     make(map[course.ID]int, len(questions)),
		selected:  map[course.ID]int{},
		passMark:  -1,
		now:       time.Now,
	}
	for i, qq := range questions {
		q.index[qq.ID] = i
	}
	for _, o := range opts {
		o(q)
	}
	if q.grader == nil {
		q.grader = grading.NewDefaultGrader()
	}
	return q
}

// Saved is the minimal state needed to rebuild a quiz instance. Result is set
// once submitted and is the graded outcome at submission time.
type Saved struct {
	Selections map[string]int
	Submitted  bool
	TimedOut   bool
	Result     *Result
}

// Restore rebuilds a quiz from saved state. A saved submission keeps its stored
// result even if the question configuration has changed since; only saved
// state without a result is graded again.
func Restore(ctx context.Context, title string, questions []course.Question, s Saved, opts ...Option) (*Quiz, error) {
	q := New(title, questions, opts...)
	if s.Submitted && s.Result != nil {
		if len(s.Result.Questions) != len(questions) {
			return nil, fmt.Errorf("%w: stored result has %d questions, quiz has %d",
				ErrResultMismatch, len(s.Result.Questions), len(questions))
		}
		for i, r := range s.Result.Questions {
			if r.ID != questions[i].ID {
				return nil, fmt.Errorf("%w: question %d is %q, stored %q", ErrResultMismatch, i, questions[i].ID, r.ID)
			}
		}
		for id, opt := range s.Selections {
			if _, ok := q.index[course.ID(id)]; ok {
				q.selected[course.ID(id)] = opt
			}
		}
		q.result = *s.Result
		q.timedOut = s.Result.TimedOut
		q.submitted = true
		return q, nil
	}
	for id, opt := range s.Selections {
		if err := q.record(course.ID(id), opt); err != nil {
			return nil, err
		}
	}
	if s.Submitted {
		q.timedOut = s.TimedOut
		if _, err := q.submit(ctx); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// Save captures the state Restore needs.
func (q *Quiz) Save() Saved {
	s := Saved{Selections: q.Selections(), Submitted: q.submitted, TimedOut: q.timedOut}
	if q.submitted {
		res := q.result
		s.Result = &res
	}
	return s
}

func (q *Quiz) Title() string { return q.title }

func (q *Quiz) Questions() []course.Question { return q.questions }

func (q *Quiz) Deadline() (time.Time, bool) { return q.deadline, !q.deadline.IsZero() }

func (q *Quiz) State() State {
	switch {
	case q.submitted:
		return StateSubmitted
	case len(q.selected) > 0:
		return StateInProgress
	default:
		return StateUnanswered
	}
}

// Select records the learner's choice for a question, replacing any earlier
// choice. Once the quiz is submitted selections are frozen.
func (q *Quiz) Select(ctx context.Context, id course.ID, option int) error {
	if q.submitted {
		return ErrSubmitted
	}
	if expired, err := q.Expire(ctx); err != nil {
		return err
	} else if expired {
		return ErrTimeUp
	}
	return q.record(id, option)
}

func (q *Quiz) record(id course.ID, option int) error {
	i, ok := q.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, id)
	}
	if !q.questions[i].InRange(option) {
		return fmt.Errorf("%w: %d of %d", ErrOptionOutOfRange, option, len(q.questions[i].Options))
	}
	q.selected[id] = option
	return nil
}

// Expire submits the quiz if its deadline has passed and reports whether it did.
func (q *Quiz) Expire(ctx context.Context) (bool, error) {
	if q.submitted || q.deadline.IsZero() || q.now().Before(q.deadline) {
		return false, nil
	}
	q.timedOut = true
	if _, err := q.submit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Submit scores the quiz. Unanswered questions count towards the total only.
// Submitting again returns the original result.
func (q *Quiz) Submit(ctx context.Context) (Result, error) {
	if q.submitted {
		return q.result, nil
	}
	if _, err := q.Expire(ctx); err != nil {
		return Result{}, err
	}
	return q.submit(ctx)
}

func (q *Quiz) submit(ctx context.Context) (Result, error) {
	if q.submitted {
		return q.result, nil
	}
	res := Result{TimedOut: q.timedOut, Questions: make([]QuestionResult, 0, len(q.questions))}
	graded := make([]grading.Result, 0, len(q.questions))
	for _, qq := range q.questions {
		var resp grading.Response
		if sel, ok := q.selected[qq.ID]; ok {
			resp = grading.Selected(sel)
		}
		gr, err := q.grader.Grade(ctx, grading.Q{Kind: qq.Kind(), OptionCount: len(qq.Options), Correct: qq.Correct}, resp)
		if err != nil {
			return Result{}, fmt.Errorf("grade question %q: %w", qq.ID, err)
		}
		graded = append(graded, gr)
		res.Questions = append(res.Questions, QuestionResult{
			ID:           qq.ID,
			Selected:     resp.Selected,
			Correct:      gr.Correct,
			CorrectIndex: qq.Correct,
			Explanation:  qq.Explanation,
		})
	}
	res.Score = grading.Tally(graded)
	if q.passMark >= 0 {
		passed := res.Score.Passed(q.passMark)
		res.Passed = &passed
	}
	q.result = res
	q.submitted = true
	return res, nil
}

// Selections returns a copy of the recorded answers keyed by question id.
func (q *Quiz) Selections() map[string]int {
	out := make(map[string]int, len(q.selected))
	for id, v := range q.selected {
		out[string(id)] = v
	}
	return out
}

// Result returns the submission result, if submitted.
func (q *Quiz) Result() (Result, bool) { return q.result, q.submitted }

type QuestionResult struct {
	ID           course.ID `json:"id"`
	Selected     *int      `json:"selected,omitempty"`
	Correct      bool      `json:"correct"`
	CorrectIndex int       `json:"correct_index"`
	Explanation  string    `json:"explanation,omitempty"`
}

type Result struct {
	Score     grading.Score    `json:"score"`
	Passed    *bool            `json:"passed,omitempty"`
	TimedOut  bool             `json:"timed_out,omitempty"`
	Questions []QuestionResult `json:"questions"`
}
