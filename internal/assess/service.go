// Package assess drives widget sessions: it rebuilds a check or quiz from catalog
// configuration and a stored snapshot, applies one learner action, and stores
// the result.
package assess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-studycentre/internal/catalog"
	"github.com/mind-engage/mindengage-studycentre/internal/check"
	"github.com/mind-engage/mindengage-studycentre/internal/course"
	"github.com/mind-engage/mindengage-studycentre/internal/grading"
	"github.com/mind-engage/mindengage-studycentre/internal/mockexam"
	"github.com/mind-engage/mindengage-studycentre/internal/quiz"
	"github.com/mind-engage/mindengage-studycentre/internal/session"
)

var (
	// ErrNotFound covers unknown pages, checks, exams and sessions, including
	// sessions owned by someone else.
	ErrNotFound = errors.New("not found")
	ErrNoQuiz   = errors.New("page has no quiz")
)

type Service struct {
	catalog  catalog.Catalog
	sessions session.Store
	log      *zap.Logger
	grader   grading.Grader
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Service)

func WithGrader(g grading.Grader) Option { return func(s *Service) { s.grader = g } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithSeed makes mock exam draws reproducible.
func WithSeed(a, b uint64) Option {
	return func(s *Service) { s.rng = rand.New(rand.NewPCG(a, b)) }
}

func New(cat catalog.Catalog, sessions session.Store, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:  cat,
		sessions: sessions,
		log:      log,
		grader:   grading.NewDefaultGrader(),
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// CheckSession is an inline check instance as returned to the learner.
type CheckSession struct {
	ID string `json:"session_id"`
	check.View
}

// QuizSession is a quiz or mock exam instance as returned to the learner.
type QuizSession struct {
	ID     string       `json:"session_id"`
	Kind   session.Kind `json:"kind"`
	PageID string       `json:"page_id,omitempty"`
	ExamID string       `json:"exam_id,omitempty"`
	quiz.View
}

func notFound(what, id string) error { return fmt.Errorf("%s %q: %w", what, id, ErrNotFound) }

func (s *Service) lookupErr(err error, what, id string) error {
	if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, session.ErrNotFound) {
		return notFound(what, id)
	}
	return err
}

// ---- inline checks ----

func (s *Service) StartCheck(ctx context.Context, owner, pageID, checkID string) (CheckSession, error) {
	page, err := s.catalog.GetPage(ctx, pageID)
	if err != nil {
		return CheckSession{}, s.lookupErr(err, "page", pageID)
	}
	q, ok := page.Check(checkID)
	if !ok {
		return CheckSession{}, notFound("check", checkID)
	}
	snap, err := s.sessions.Create(ctx, session.Snapshot{
		Kind:     session.KindCheck,
		Owner:    owner,
		PageID:   pageID,
		WidgetID: checkID,
	})
	if err != nil {
		return CheckSession{}, fmt.Errorf("create session: %w", err)
	}
	s.log.Debug("check started", zap.String("session", snap.ID), zap.String("page", pageID), zap.String("check", checkID))
	return CheckSession{ID: snap.ID, View: check.New(q).View()}, nil
}

func (s *Service) SelectCheck(ctx context.Context, owner, sessionID string, option int) (CheckSession, error) {
	var c *check.Check
	_, err := s.sessions.Update(ctx, sessionID, func(snap *session.Snapshot) error {
		var err error
		c, err = s.restoreCheck(ctx, owner, snap)
		if err != nil {
			return err
		}
		if err := c.Select(option); err != nil {
			return err
		}
		snap.Selections = map[string]int{snap.WidgetID: option}
		return nil
	})
	if err != nil {
		return CheckSession{}, s.lookupErr(err, "session", sessionID)
	}
	s.log.Info("check answered",
		zap.String("session", sessionID),
		zap.String("check", string(c.Question().ID)),
		zap.Bool("correct", c.Correct()))
	return CheckSession{ID: sessionID, View: c.View()}, nil
}

func (s *Service) CheckView(ctx context.Context, owner, sessionID string) (CheckSession, error) {
	snap, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return CheckSession{}, s.lookupErr(err, "session", sessionID)
	}
	c, err := s.restoreCheck(ctx, owner, &snap)
	if err != nil {
		return CheckSession{}, s.lookupErr(err, "session", sessionID)
	}
	return CheckSession{ID: sessionID, View: c.View()}, nil
}

func (s *Service) restoreCheck(ctx context.Context, owner string, snap *session.Snapshot) (*check.Check, error) {
	if snap.Owner != owner || snap.Kind != session.KindCheck {
		return nil, session.ErrNotFound
	}
	page, err := s.catalog.GetPage(ctx, snap.PageID)
	if err != nil {
		return nil, err
	}
	q, ok := page.Check(snap.WidgetID)
	if !ok {
		return nil, notFound("check", snap.WidgetID)
	}
	var sel *int
	if v, ok := snap.Selections[snap.WidgetID]; ok {
		sel = &v
	}
	return check.Restore(q, sel)
}

// ---- quizzes and mock exams ----

func (s *Service) StartQuiz(ctx context.Context, owner, pageID string) (QuizSession, error) {
	page, err := s.catalog.GetPage(ctx, pageID)
	if err != nil {
		return QuizSession{}, s.lookupErr(err, "page", pageID)
	}
	if page.Quiz == nil {
		return QuizSession{}, fmt.Errorf("page %q: %w", pageID, ErrNoQuiz)
	}
	ids := make([]string, 0, len(page.Quiz.Questions))
	for _, q := range page.Quiz.Questions {
		ids = append(ids, string(q.ID))
	}
	snap, err := s.sessions.Create(ctx, session.Snapshot{
		Kind:        session.KindQuiz,
		Owner:       owner,
		PageID:      pageID,
		QuestionIDs: ids,
	})
	if err != nil {
		return QuizSession{}, fmt.Errorf("create session: %w", err)
	}
	s.log.Debug("quiz started", zap.String("session", snap.ID), zap.String("page", pageID))
	return s.quizSession(snap, quiz.New(page.Quiz.Title, page.Quiz.Questions, s.quizOptions(snap, 0)...)), nil
}

// StartExam draws a balanced set of bank questions and starts the clock.
func (s *Service) StartExam(ctx context.Context, owner, examID string) (QuizSession, error) {
	e, err := s.catalog.GetExam(ctx, examID)
	if err != nil {
		return QuizSession{}, s.lookupErr(err, "exam", examID)
	}
	s.rngMu.Lock()
	drawn := mockexam.Draw(e, e.TotalQuestions, s.rng)
	s.rngMu.Unlock()

	ids := make([]string, 0, len(drawn))
	for _, q := range drawn {
		ids = append(ids, string(q.ID))
	}
	now := s.now()
	snap := session.Snapshot{
		Kind:        session.KindExam,
		Owner:       owner,
		WidgetID:    examID,
		QuestionIDs: ids,
		CreatedAt:   now,
	}
	if e.TimeLimitSec > 0 {
		snap.Deadline = now.Add(time.Duration(e.TimeLimitSec) * time.Second)
	}
	snap, err = s.sessions.Create(ctx, snap)
	if err != nil {
		return QuizSession{}, fmt.Errorf("create session: %w", err)
	}
	s.log.Info("mock exam started",
		zap.String("session", snap.ID),
		zap.String("exam", examID),
		zap.Int("questions", len(ids)),
		zap.Time("deadline", snap.Deadline))
	q := quiz.New(e.Title, mockexam.Questions(drawn), s.quizOptions(snap, e.PassThreshold)...)
	return s.quizSession(snap, q), nil
}

// SelectAnswer records a quiz answer. Answering after a mock exam's deadline
// submits the exam and returns quiz.ErrTimeUp; the submission is kept.
func (s *Service) SelectAnswer(ctx context.Context, owner, sessionID, questionID string, option int) (QuizSession, error) {
	var selErr error
	sess, err := s.mutateQuiz(ctx, owner, sessionID, func(q *quiz.Quiz) error {
		selErr = q.Select(ctx, course.ID(questionID), option)
		if errors.Is(selErr, quiz.ErrTimeUp) {
			return nil
		}
		return selErr
	})
	if err != nil {
		return QuizSession{}, err
	}
	if selErr != nil {
		s.logSubmitted(sess)
		return sess, selErr
	}
	return sess, nil
}

// Submit scores the quiz. Submitting twice returns the first result.
func (s *Service) Submit(ctx context.Context, owner, sessionID string) (QuizSession, error) {
	var already bool
	sess, err := s.mutateQuiz(ctx, owner, sessionID, func(q *quiz.Quiz) error {
		_, already = q.Result()
		_, err := q.Submit(ctx)
		return err
	})
	if err != nil {
		return QuizSession{}, err
	}
	if !already {
		s.logSubmitted(sess)
	}
	return sess, nil
}

// QuizView returns the current view. A mock exam past its deadline is
// submitted first.
func (s *Service) QuizView(ctx context.Context, owner, sessionID string) (QuizSession, error) {
	return s.mutateQuiz(ctx, owner, sessionID, func(q *quiz.Quiz) error {
		_, err := q.Expire(ctx)
		return err
	})
}

func (s *Service) mutateQuiz(ctx context.Context, owner, sessionID string, fn func(*quiz.Quiz) error) (QuizSession, error) {
	var q *quiz.Quiz
	snap, err := s.sessions.Update(ctx, sessionID, func(snap *session.Snapshot) error {
		var err error
		q, err = s.restoreQuiz(ctx, owner, snap)
		if err != nil {
			return err
		}
		if err := fn(q); err != nil {
			return err
		}
		saved := q.Save()
		snap.Selections = saved.Selections
		snap.Submitted = saved.Submitted
		snap.TimedOut = saved.TimedOut
		if saved.Result != nil && snap.Result == nil {
			raw, err := json.Marshal(saved.Result)
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			snap.Result = raw
		}
		return nil
	})
	if err != nil {
		return QuizSession{}, s.lookupErr(err, "session", sessionID)
	}
	return s.quizSession(snap, q), nil
}

func (s *Service) restoreQuiz(ctx context.Context, owner string, snap *session.Snapshot) (*quiz.Quiz, error) {
	if snap.Owner != owner || (snap.Kind != session.KindQuiz && snap.Kind != session.KindExam) {
		return nil, session.ErrNotFound
	}
	var (
		title    string
		qs       []course.Question
		passMark int
	)
	switch snap.Kind {
	case session.KindQuiz:
		page, err := s.catalog.GetPage(ctx, snap.PageID)
		if err != nil {
			return nil, err
		}
		if page.Quiz == nil {
			return nil, fmt.Errorf("page %q: %w", snap.PageID, ErrNoQuiz)
		}
		title = page.Quiz.Title
		byID := make(map[string]course.Question, len(page.Quiz.Questions))
		for _, q := range page.Quiz.Questions {
			byID[string(q.ID)] = q
		}
		for _, id := range snap.QuestionIDs {
			q, ok := byID[id]
			if !ok {
				return nil, notFound("question", id)
			}
			qs = append(qs, q)
		}
	case session.KindExam:
		e, err := s.catalog.GetExam(ctx, snap.WidgetID)
		if err != nil {
			return nil, err
		}
		title, passMark = e.Title, e.PassThreshold
		for _, id := range snap.QuestionIDs {
			bq, ok := e.Question(id)
			if !ok {
				return nil, notFound("question", id)
			}
			qs = append(qs, bq.Question)
		}
	}
	saved := quiz.Saved{
		Selections: snap.Selections,
		Submitted:  snap.Submitted,
		TimedOut:   snap.TimedOut,
	}
	if len(snap.Result) > 0 {
		saved.Result = &quiz.Result{}
		if err := json.Unmarshal(snap.Result, saved.Result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	return quiz.Restore(ctx, title, qs, saved, s.quizOptions(*snap, passMark)...)
}

func (s *Service) quizOptions(snap session.Snapshot, passMark int) []quiz.Option {
	opts := []quiz.Option{quiz.WithGrader(s.grader), quiz.WithClock(s.now)}
	if snap.Kind == session.KindExam {
		opts = append(opts, quiz.WithPassMark(passMark))
		if !snap.Deadline.IsZero() {
			opts = append(opts, quiz.WithDeadline(snap.Deadline))
		}
	}
	return opts
}

func (s *Service) quizSession(snap session.Snapshot, q *quiz.Quiz) QuizSession {
	out := QuizSession{ID: snap.ID, Kind: snap.Kind, View: q.View()}
	if snap.Kind == session.KindExam {
		out.ExamID = snap.WidgetID
	} else {
		out.PageID = snap.PageID
	}
	return out
}

func (s *Service) logSubmitted(sess QuizSession) {
	if sess.Score == nil {
		return
	}
	fields := []zap.Field{
		zap.String("session", sess.ID),
		zap.String("kind", string(sess.Kind)),
		zap.Int("correct", sess.Score.Correct),
		zap.Int("total", sess.Score.Total),
		zap.Bool("timed_out", sess.TimedOut),
	}
	if sess.Passed != nil {
		fields = append(fields, zap.Bool("passed", *sess.Passed))
	}
	s.log.Info("quiz submitted", fields...)
}
