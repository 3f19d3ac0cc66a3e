// Package check holds the state of an inline knowledge check: a single question
// whose correctness and explanation are revealed as soon as an option is picked.
package check

import (
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-studycentre/internal/course"
)

var (
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrAnswerLocked is returned when a different option is picked after the
	// check has been answered. The first answer stands.
	ErrAnswerLocked = errors.New("check already answered")
)

// Check is one rendered inline check. The zero value is not usable; use New.
type Check struct {
	q        course.Question
	selected int
	answered bool
}

func New(q course.Question) *Check {
	return &Check{q: q, selected: -1}
}

// Restore rebuilds a check from a stored selection (nil means unanswered).
func Restore(q course.Question, selected *int) (*Check, error) {
	c := New(q)
	if selected != nil {
		if err := c.Select(*selected); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Select records option i and reveals the answer. Picking the same option again
// is a no-op.
func (c *Check) Select(i int) error {
	if !c.q.InRange(i) {
		return fmt.Errorf("%w: %d of %d", ErrOptionOutOfRange, i, len(c.q.Options))
	}
	if c.answered {
		if c.selected == i {
			return nil
		}
		return ErrAnswerLocked
	}
	c.selected = i
	c.answered = true
	return nil
}

func (c *Check) Question() course.Question { return c.q }

func (c *Check) Answered() bool { return c.answered }

// Selected returns the chosen option, if any.
func (c *Check) Selected() (int, bool) {
	if !c.answered {
		return 0, false
	}
	return c.selected, true
}

// Correct reports whether the chosen option is the right one. Unanswered checks
// are never correct.
func (c *Check) Correct() bool {
	return c.answered && c.q.IsCorrect(c.selected)
}

type Option struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
	Correct  bool   `json:"correct"` // only ever true once revealed
}

// View is what the learner sees. Correctness fields stay empty until answered.
type View struct {
	ID           course.ID `json:"id"`
	Prompt       string    `json:"prompt"`
	Options      []Option  `json:"options"`
	Answered     bool      `json:"answered"`
	Selected     *int      `json:"selected,omitempty"`
	Correct      *bool     `json:"correct,omitempty"`
	CorrectIndex *int      `json:"correct_index,omitempty"`
	Explanation  string    `json:"explanation,omitempty"`
}

func (c *Check) View() View {
	v := View{
		ID:       c.q.ID,
		Prompt:   c.q.Prompt,
		Options:  make([]Option, len(c.q.Options)),
		Answered: c.answered,
	}
	for i, text := range c.q.Options {
		v.Options[i] = Option{Index: i, Text: text}
	}
	if !c.answered {
		return v
	}
	sel, ok, correct := c.selected, c.Correct(), c.q.Correct
	v.Selected = &sel
	v.Correct = &ok
	v.CorrectIndex = &correct
	v.Explanation = c.q.Explanation
	v.Options[sel].Selected = true
	v.Options[correct].Correct = true
	return v
}
