package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-studycentre/internal/course"
)

// threeQuestions builds a quiz whose correct answers are [1,2,0].
func threeQuestions() []course.Question {
	correct := []int{1, 2, 0}
	qs := make([]course.Question, 0, len(correct))
	for i, c := range correct {
		qs = append(qs, course.Question{
			ID:          course.ID(fmt.Sprint(i + 1)),
			Prompt:      fmt.Sprintf("Question %d", i+1),
			Options:     []string{"A", "B", "C", "D"},
			Correct:     c,
			Explanation: fmt.Sprintf("Because %d", c),
		})
	}
	return qs
}

func selectAll(t *testing.T, q *Quiz, picks ...int) {
	t.Helper()
	for i, p := range picks {
		if p < 0 {
			continue
		}
		if err := q.Select(context.Background(), course.ID(fmt.Sprint(i+1)), p); err != nil {
			t.Fatalf("select q%d=%d: %v", i+1, p, err)
		}
	}
}

func submit(t *testing.T, q *Quiz) Result {
	t.Helper()
	res, err := q.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return res
}

func TestScenarioTwoOfThree(t *testing.T) {
	q := New("Recovery position", threeQuestions())
	selectAll(t, q, 1, 2, 1)
	res := submit(t, q)
	if res.Score.Correct != 2 || res.Score.Total != 3 {
		t.Fatalf("expected 2/3, got %d/%d", res.Score.Correct, res.Score.Total)
	}
	if !res.Questions[0].Correct || !res.Questions[1].Correct || res.Questions[2].Correct {
		t.Fatalf("unexpected per-question results %+v", res.Questions)
	}
}

func TestScenarioOnlyFirstAnswered(t *testing.T) {
	q := New("Recovery position", threeQuestions())
	selectAll(t, q, 1, -1, -1)
	res := submit(t, q)
	if res.Score.Correct != 1 || res.Score.Total != 3 {
		t.Fatalf("expected 1/3, got %d/%d", res.Score.Correct, res.Score.Total)
	}
	if res.Questions[1].Selected != nil {
		t.Fatalf("unanswered question reported a selection")
	}
}

func TestScenarioLastChoiceWins(t *testing.T) {
	q := New("Recovery position", threeQuestions())
	selectAll(t, q, 0, 0, 0)
	selectAll(t, q, 1)
	if got := q.Selections()["1"]; got != 1 {
		t.Fatalf("expected last selection 1 recorded, got %d", got)
	}
	res := submit(t, q)
	// answers [1,0,0] against [1,2,0]
	if res.Score.Correct != 2 {
		t.Fatalf("expected 2/3, got %d/3", res.Score.Correct)
	}
}

func TestUnansweredCountsAsIncorrect(t *testing.T) {
	q := New("Quiz", threeQuestions())
	selectAll(t, q, 0) // wrong
	res := submit(t, q)
	if res.Score.Correct != 0 || res.Score.Total != 3 {
		t.Fatalf("expected 0/3, got %d/%d", res.Score.Correct, res.Score.Total)
	}
}

func TestSubmitWithNothingAnswered(t *testing.T) {
	q := New("Quiz", threeQuestions())
	if q.State() != StateUnanswered {
		t.Fatalf("expected unanswered, got %s", q.State())
	}
	res := submit(t, q)
	if res.Score.Correct != 0 || q.State() != StateSubmitted {
		t.Fatalf("unexpected result %+v in state %s", res.Score, q.State())
	}
}

func TestScoreBoundsAllCombinations(t *testing.T) {
	qs := threeQuestions()
	// every combination of -1 (unanswered) and 0..3 for three questions
	for a := -1; a < 4; a++ {
		for b := -1; b < 4; b++ {
			for c := -1; c < 4; c++ {
				q := New("Quiz", qs)
				selectAll(t, q, a, b, c)
				res := submit(t, q)
				want := 0
				for i, p := range []int{a, b, c} {
					if p == qs[i].Correct {
						want++
					}
				}
				if res.Score.Correct != want {
					t.Fatalf("picks %v: expected %d, got %d", []int{a, b, c}, want, res.Score.Correct)
				}
				if res.Score.Correct < 0 || res.Score.Correct > res.Score.Total {
					t.Fatalf("score out of bounds: %+v", res.Score)
				}
			}
		}
	}
}

func TestStateTransitions(t *testing.T) {
	q := New("Quiz", threeQuestions())
	if q.State() != StateUnanswered {
		t.Fatalf("initial state %s", q.State())
	}
	selectAll(t, q, 2)
	if q.State() != StateInProgress {
		t.Fatalf("after select: %s", q.State())
	}
	selectAll(t, q, 3)
	if q.State() != StateInProgress {
		t.Fatalf("after reselect: %s", q.State())
	}
	submit(t, q)
	if q.State() != StateSubmitted {
		t.Fatalf("after submit: %s", q.State())
	}
}

func TestPostSubmissionImmutability(t *testing.T) {
	q := New("Quiz", threeQuestions())
	selectAll(t, q, 1, 2, 1)
	first := submit(t, q)

	err := q.Select(context.Background(), "3", 0)
	if !errors.Is(err, ErrSubmitted) {
		t.Fatalf("expected ErrSubmitted, got %v", err)
	}
	if q.Selections()["3"] != 1 {
		t.Fatalf("selection changed after submit")
	}
	second := submit(t, q)
	if second.Score != first.Score {
		t.Fatalf("score changed after submit: %+v vs %+v", first.Score, second.Score)
	}
}

func TestSelectRejectsBadInput(t *testing.T) {
	q := New("Quiz", threeQuestions())
	if err := q.Select(context.Background(), "9", 0); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}
	if err := q.Select(context.Background(), "1", 4); !errors.Is(err, ErrOptionOutOfRange) {
		t.Fatalf("expected ErrOptionOutOfRange, got %v", err)
	}
	if q.State() != StateUnanswered {
		t.Fatalf("rejected input changed state to %s", q.State())
	}
}

func TestViewHidesCorrectnessUntilSubmitted(t *testing.T) {
	q := New("Quiz", threeQuestions())
	selectAll(t, q, 1)
	v := q.View()
	if v.Score != nil {
		t.Fatalf("score visible before submit")
	}
	for _, qv := range v.Questions {
		if qv.Correct != nil || qv.CorrectIndex != nil || qv.Explanation != "" {
			t.Fatalf("question %s revealed before submit: %+v", qv.ID, qv)
		}
	}
	if v.Answered != 1 || v.Total != 3 {
		t.Fatalf("unexpected counts %d/%d", v.Answered, v.Total)
	}

	submit(t, q)
	v = q.View()
	if v.Score == nil || v.Score.Correct != 1 {
		t.Fatalf("expected score 1 after submit, got %+v", v.Score)
	}
	for _, qv := range v.Questions {
		if qv.Correct == nil || qv.CorrectIndex == nil || qv.Explanation == "" {
			t.Fatalf("question %s not revealed after submit: %+v", qv.ID, qv)
		}
	}
}

func TestDeadlineAutoSubmits(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	q := New("Mock exam", threeQuestions(),
		WithDeadline(now.Add(30*time.Minute)), WithClock(clock), WithPassMark(80))

	selectAll(t, q, 1, 2)
	now = now.Add(31 * time.Minute)

	if err := q.Select(context.Background(), "3", 0); !errors.Is(err, ErrTimeUp) {
		t.Fatalf("expected ErrTimeUp, got %v", err)
	}
	res, ok := q.Result()
	if !ok || !res.TimedOut {
		t.Fatalf("expected timed out submission, got %+v (submitted=%v)", res, ok)
	}
	if res.Score.Correct != 2 {
		t.Fatalf("late answer must not count: %+v", res.Score)
	}
	if res.Passed == nil || *res.Passed {
		t.Fatalf("2/3 must fail an 80%% pass mark")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := New("Quiz", threeQuestions())
	selectAll(t, q, 1, 2, 1)
	want := submit(t, q)

	back, err := Restore(ctx, "Quiz", threeQuestions(), q.Save())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, ok := back.Result()
	if !ok || got.Score != want.Score {
		t.Fatalf("restored result %+v, want %+v", got.Score, want.Score)
	}
	if err := back.Select(ctx, "1", 0); !errors.Is(err, ErrSubmitted) {
		t.Fatalf("restored submitted quiz accepted a selection: %v", err)
	}

	if _, err := Restore(ctx, "Quiz", threeQuestions(), Saved{Selections: map[string]int{"1": 7}}); !errors.Is(err, ErrOptionOutOfRange) {
		t.Fatalf("expected ErrOptionOutOfRange from bad saved state, got %v", err)
	}
}

func TestRestoreKeepsSubmittedResultAfterContentChange(t *testing.T) {
	ctx := context.Background()
	q := New("Quiz", threeQuestions())
	selectAll(t, q, 1, 2, 1)
	want := submit(t, q)

	changed := threeQuestions()
	changed[0].Correct = 3
	changed[0].Explanation = "rewritten"
	back, err := Restore(ctx, "Quiz", changed, q.Save())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, _ := back.Result()
	if got.Score != want.Score {
		t.Fatalf("score changed after content edit: got %+v want %+v", got.Score, want.Score)
	}
	v := back.View()
	if v.Questions[0].CorrectIndex == nil || *v.Questions[0].CorrectIndex != want.Questions[0].CorrectIndex {
		t.Fatalf("revealed answer changed: %+v", v.Questions[0])
	}

	saved := q.Save()
	if _, err := Restore(ctx, "Quiz", changed[:2], saved); !errors.Is(err, ErrResultMismatch) {
		t.Fatalf("expected ErrResultMismatch for a shorter quiz, got %v", err)
	}
}
