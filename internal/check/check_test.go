package check

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mind-engage/mindengage-studycentre/internal/course"
)

func sample() course.Question {
	return course.Question{
		ID:          "avpu-scale-check",
		Prompt:      "What is their AVPU level?",
		Options:     []string{"A", "B", "C", "D"},
		Correct:     1,
		Explanation: "They respond to voice.",
	}
}

func TestInitialStateHidesAnswer(t *testing.T) {
	v := New(sample()).View()
	if v.Answered || v.Selected != nil || v.Correct != nil || v.CorrectIndex != nil {
		t.Fatalf("expected nothing revealed, got %+v", v)
	}
	if v.Explanation != "" {
		t.Fatalf("explanation must be hidden before answering")
	}
	for _, o := range v.Options {
		if o.Selected || o.Correct {
			t.Fatalf("option %d marked before answering", o.Index)
		}
	}
}

func TestSelectCorrect(t *testing.T) {
	c := New(sample())
	if err := c.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	v := c.View()
	if v.Correct == nil || !*v.Correct {
		t.Fatalf("expected correct, got %+v", v)
	}
	if v.Explanation != "They respond to voice." {
		t.Fatalf("expected explanation revealed, got %q", v.Explanation)
	}
	if !v.Options[1].Selected || !v.Options[1].Correct {
		t.Fatalf("expected option 1 marked selected and correct: %+v", v.Options[1])
	}
}

func TestSelectIncorrectStillRevealsAnswer(t *testing.T) {
	c := New(sample())
	if err := c.Select(3); err != nil {
		t.Fatalf("select: %v", err)
	}
	v := c.View()
	if v.Correct == nil || *v.Correct {
		t.Fatalf("expected incorrect")
	}
	if *v.CorrectIndex != 1 {
		t.Fatalf("expected correct index 1, got %d", *v.CorrectIndex)
	}
	if !v.Options[3].Selected || v.Options[3].Correct {
		t.Fatalf("option 3 should be selected only: %+v", v.Options[3])
	}
	if !v.Options[1].Correct || v.Options[1].Selected {
		t.Fatalf("option 1 should be marked correct only: %+v", v.Options[1])
	}
	if v.Explanation == "" {
		t.Fatalf("explanation must be revealed regardless of correctness")
	}
}

func TestSelectionCorrectnessForEveryOption(t *testing.T) {
	q := sample()
	for i := range q.Options {
		c := New(q)
		if err := c.Select(i); err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
		if c.Correct() != (i == q.Correct) {
			t.Fatalf("option %d: Correct()=%v", i, c.Correct())
		}
	}
}

func TestSelectIsIdempotent(t *testing.T) {
	once := New(sample())
	_ = once.Select(2)

	twice := New(sample())
	_ = twice.Select(2)
	if err := twice.Select(2); err != nil {
		t.Fatalf("reselecting the same option: %v", err)
	}
	if !reflect.DeepEqual(once.View(), twice.View()) {
		t.Fatalf("views differ:\n%+v\n%+v", once.View(), twice.View())
	}
}

func TestAnswerIsLocked(t *testing.T) {
	c := New(sample())
	_ = c.Select(0)
	if err := c.Select(1); !errors.Is(err, ErrAnswerLocked) {
		t.Fatalf("expected ErrAnswerLocked, got %v", err)
	}
	if sel, _ := c.Selected(); sel != 0 {
		t.Fatalf("first answer must stand, got %d", sel)
	}
}

func TestOutOfRange(t *testing.T) {
	c := New(sample())
	for _, i := range []int{-1, 4} {
		if err := c.Select(i); !errors.Is(err, ErrOptionOutOfRange) {
			t.Fatalf("select %d: expected ErrOptionOutOfRange, got %v", i, err)
		}
	}
	if c.Answered() {
		t.Fatalf("rejected selection must not change state")
	}
}

func TestRestore(t *testing.T) {
	sel := 3
	c, err := Restore(sample(), &sel)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got, ok := c.Selected(); !ok || got != 3 {
		t.Fatalf("expected restored selection 3, got %d/%v", got, ok)
	}
	bad := 9
	if _, err := Restore(sample(), &bad); !errors.Is(err, ErrOptionOutOfRange) {
		t.Fatalf("expected ErrOptionOutOfRange, got %v", err)
	}
}
