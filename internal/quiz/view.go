package quiz

import (
	"time"

	"github.com/mind-engage/mindengage-studycentre/internal/course"
	"github.com/mind-engage/mindengage-studycentre/internal/grading"
)

type QuestionView struct {
	ID       course.ID `json:"id"`
	Prompt   string    `json:"prompt"`
	Options  []string  `json:"options"`
	Selected *int      `json:"selected,omitempty"`

	// revealed after submission
	Correct      *bool  `json:"correct,omitempty"`
	CorrectIndex *int   `json:"correct_index,omitempty"`
	Explanation  string `json:"explanation,omitempty"`
}

// View is the learner's picture of the quiz. Nothing about correctness appears
// until the quiz is submitted.
type View struct {
	Title     string         `json:"title"`
	State     State          `json:"state"`
	Total     int            `json:"total"`
	Answered  int            `json:"answered"`
	Deadline  *time.Time     `json:"deadline,omitempty"`
	Questions []QuestionView `json:"questions"`
	Score     *grading.Score `json:"score,omitempty"`
	Passed    *bool          `json:"passed,omitempty"`
	TimedOut  bool           `json:"timed_out,omitempty"`
}

func (q *Quiz) View() View {
	v := View{
		Title:     q.title,
		State:     q.State(),
		Total:     len(q.questions),
		Answered:  len(q.selected),
		Questions: make([]QuestionView, 0, len(q.questions)),
	}
	if d, ok := q.Deadline(); ok {
		v.Deadline = &d
	}
	for i, qq := range q.questions {
		qv := QuestionView{ID: qq.ID, Prompt: qq.Prompt, Options: qq.Options}
		if sel, ok := q.selected[qq.ID]; ok {
			qv.Selected = &sel
		}
		if q.submitted {
			r := q.result.Questions[i]
			correct, idx := r.Correct, r.CorrectIndex
			qv.Correct = &correct
			qv.CorrectIndex = &idx
			qv.Explanation = r.Explanation
		}
		v.Questions = append(v.Questions, qv)
	}
	if q.submitted {
		score := q.result.Score
		v.Score = &score
		v.Passed = q.result.Passed
		v.TimedOut = q.result.TimedOut
	}
	return v
}
