package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-studycentre/internal/assess"
	authmw "github.com/mind-engage/mindengage-studycentre/internal/auth/middleware"
	"github.com/mind-engage/mindengage-studycentre/internal/quiz"
)

// POST /checks  { "page_id": "...", "check_id": "..." }
func StartCheckHandler(svc *assess.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PageID  string `json:"page_id"`
			CheckID string `json:"check_id"`
		}
		if !decodeBody(w, r, &req) || req.PageID == "" || req.CheckID == "" {
			http.Error(w, "page_id and check_id required", http.StatusBadRequest)
			return
		}
		cs, err := svc.StartCheck(r.Context(), authmw.SubjectFromContext(r.Context()), req.PageID, req.CheckID)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, cs)
	}
}

// POST /checks/{sessionID}/select  { "option": 1 }
func SelectCheckHandler(svc *assess.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Option *int `json:"option"`
		}
		if !decodeBody(w, r, &req) || req.Option == nil {
			http.Error(w, "option required", http.StatusBadRequest)
			return
		}
		cs, err := svc.SelectCheck(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID"), *req.Option)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
	}
}

// GET /checks/{sessionID}
func GetCheckHandler(svc *assess.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, err := svc.CheckView(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
	}
}

// POST /quizzes  { "page_id": "..." }
func StartQuizHandler(svc *assess.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PageID string `json:"page_id"`
		}
		if !decodeBody(w, r, &req) || req.PageID == "" {
			http.Error(w, "page_id required", http.StatusBadRequest)
			return
		}
		qs, err := svc.StartQuiz(r.Context(), authmw.SubjectFromContext(r.Context()), req.PageID)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, qs)
	}
}

// POST /exams/{examID}/attempts
func StartExamHandler(svc *assess.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := svc.StartExam(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "examID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, qs)
	}
}

// POST /quizzes/{sessionID}/answers  { "question_id": "1", "option": 2 }
// A late answer on a timed exam gets 409 with the submitted exam in the body.
func SelectAnswerHandler(svc *assess.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID string `json:"question_id"`
			Option     *int   `json:"option"`
		}
		if !decodeBody(w, r, &req) || req.QuestionID == "" || req.Option == nil {
			http.Error(w, "question_id and option required", http.StatusBadRequest)
			return
		}
		qs, err := svc.SelectAnswer(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID"), req.QuestionID, *req.Option)
		if errors.Is(err, quiz.ErrTimeUp) {
			writeJSON(w, http.StatusConflict, struct {
				Error   string             `json:"error"`
				Session assess.QuizSession `json:"session"`
			}{Error: err.Error(), Session: qs})
			return
		}
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

// POST /quizzes/{sessionID}/submit
func SubmitQuizHandler(svc *assess.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := svc.Submit(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

// GET /quizzes/{sessionID}
func GetQuizHandler(svc *assess.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := svc.QuizView(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}
