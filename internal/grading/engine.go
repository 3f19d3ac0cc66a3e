package grading

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoOptions        = errors.New("question has no options")
	ErrOptionOutOfRange = errors.New("option index out of range")
)

// Q is the minimal view of a question needed for grading.
type Q struct {
	Kind        string
	OptionCount int
	Correct     int
}

// Response is a learner's answer to one question. A nil Selected means the
// question was left unanswered.
type Response struct {
	Selected *int
}

// Selected is a convenience for building an answered Response.
func Selected(i int) Response { return Response{Selected: &i} }

// Result is the outcome of grading a single question response.
type Result struct {
	Answered  bool    `json:"answered"`
	Correct   bool    `json:"correct"`
	Points    float64 `json:"points"`
	MaxPoints float64 `json:"max_points"`
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, r Response, points float64) (Result, error)
}

// Grader routes by question kind to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, r Response) (Result, error)
}

type defaultGrader struct {
	points     float64
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, r Response) (Result, error) {
	s, ok := g.strategies[q.Kind]
	if !ok {
		return Result{MaxPoints: g.points}, fmt.Errorf("no strategy for kind %q", q.Kind)
	}
	return s.Grade(ctx, q, r, g.points)
}

// Engine options

type Option func(*config)

type config struct {
	Points float64 // awarded per correct answer
}

func WithPoints(p float64) Option { return func(c *config) { c.Points = p } }

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{Points: 1}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		points: cfg.Points,
		strategies: map[string]Strategy{
			"single_choice": singleChoiceStrategy{},
			"true_false":    singleChoiceStrategy{},
		},
	}
}

// --- Strategies ---

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(_ context.Context, q Q, r Response, points float64) (Result, error) {
	res := Result{MaxPoints: points}
	if q.OptionCount <= 0 {
		return res, ErrNoOptions
	}
	if r.Selected == nil {
		// unanswered counts against the total, never towards the score
		return res, nil
	}
	sel := *r.Selected
	if sel < 0 || sel >= q.OptionCount {
		return res, fmt.Errorf("%w: %d of %d", ErrOptionOutOfRange, sel, q.OptionCount)
	}
	res.Answered = true
	if sel == q.Correct {
		res.Correct = true
		res.Points = points
	}
	return res, nil
}
