// Package session stores the ephemeral state of widget instances between
// requests. Nothing here outlives its TTL; there are no learner records.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrConflict is returned when an update loses a race and retries run out.
	ErrConflict = errors.New("session changed concurrently")
)

type Kind string

const (
	KindCheck Kind = "check"
	KindQuiz  Kind = "quiz"
	KindExam  Kind = "exam"
)

// Snapshot is everything needed to rebuild one widget instance from catalog
// configuration. For a check Selections holds at most the checked question's
// entry; for an exam QuestionIDs is the drawn order.
type Snapshot struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	Owner       string         `json:"owner"`
	PageID      string         `json:"page_id,omitempty"`
	WidgetID    string         `json:"widget_id,omitempty"`
	QuestionIDs []string       `json:"question_ids,omitempty"`
	Selections  map[string]int `json:"selections,omitempty"`
	Submitted   bool           `json:"submitted,omitempty"`
	TimedOut    bool           `json:"timed_out,omitempty"`
	// Result is the graded outcome recorded at submission, opaque to the store.
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Deadline    time.Time      `json:"deadline,omitzero"`
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.QuestionIDs = append([]string(nil), s.QuestionIDs...)
	if s.Result != nil {
		out.Result = append(json.RawMessage(nil), s.Result...)
	}
	if s.Selections != nil {
		out.Selections = make(map[string]int, len(s.Selections))
		for k, v := range s.Selections {
			out.Selections[k] = v
		}
	}
	return out
}

// Store persists snapshots. Update applies fn atomically: concurrent updates to
// the same session never interleave, and fn's changes are discarded when it
// returns an error.
type Store interface {
	Create(ctx context.Context, s Snapshot) (Snapshot, error)
	Get(ctx context.Context, id string) (Snapshot, error)
	Update(ctx context.Context, id string, fn func(*Snapshot) error) (Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// prepare fills the id and creation time of a new snapshot.
func prepare(s Snapshot, now time.Time) Snapshot {
	s = s.clone()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.Selections == nil {
		s.Selections = map[string]int{}
	}
	return s
}
