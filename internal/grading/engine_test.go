package grading

import (
	"context"
	"errors"
	"testing"
)

func TestSingleChoiceCorrectness(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Kind: "single_choice", OptionCount: 4, Correct: 1}

	for i := 0; i < 4; i++ {
		res, err := g.Grade(context.Background(), q, Selected(i))
		if err != nil {
			t.Fatalf("grade %d: %v", i, err)
		}
		if res.Correct != (i == 1) {
			t.Fatalf("option %d: correct=%v", i, res.Correct)
		}
		if !res.Answered {
			t.Fatalf("option %d: expected answered", i)
		}
	}
}

func TestUnansweredScoresZero(t *testing.T) {
	g := NewDefaultGrader(WithPoints(2))
	res, err := g.Grade(context.Background(), Q{Kind: "true_false", OptionCount: 2, Correct: 0}, Response{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answered || res.Correct || res.Points != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.MaxPoints != 2 {
		t.Fatalf("expected max points 2, got %v", res.MaxPoints)
	}
}

func TestOutOfRange(t *testing.T) {
	g := NewDefaultGrader()
	_, err := g.Grade(context.Background(), Q{Kind: "single_choice", OptionCount: 3}, Selected(3))
	if !errors.Is(err, ErrOptionOutOfRange) {
		t.Fatalf("expected ErrOptionOutOfRange, got %v", err)
	}
}

func TestUnknownKind(t *testing.T) {
	g := NewDefaultGrader()
	if _, err := g.Grade(context.Background(), Q{Kind: "essay", OptionCount: 1}, Selected(0)); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestTally(t *testing.T) {
	s := Tally([]Result{
		{Answered: true, Correct: true, Points: 1, MaxPoints: 1},
		{Answered: true, Correct: true, Points: 1, MaxPoints: 1},
		{Answered: true, MaxPoints: 1},
	})
	if s.Correct != 2 || s.Total != 3 || s.Answered != 3 {
		t.Fatalf("unexpected score %+v", s)
	}
	if s.Percent != 66.7 {
		t.Fatalf("expected 66.7%%, got %v", s.Percent)
	}
	if !s.Passed(60) || s.Passed(80) {
		t.Fatalf("pass mark mismatch for %v%%", s.Percent)
	}
	if (Score{}).Passed(0) {
		t.Fatalf("empty score must not pass")
	}
}
