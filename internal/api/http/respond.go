package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-studycentre/internal/assess"
	"github.com/mind-engage/mindengage-studycentre/internal/catalog"
	"github.com/mind-engage/mindengage-studycentre/internal/check"
	"github.com/mind-engage/mindengage-studycentre/internal/course"
	"github.com/mind-engage/mindengage-studycentre/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr *course.ValidationError
	switch {
	case errors.Is(err, assess.ErrNotFound),
		errors.Is(err, assess.ErrNoQuiz),
		errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, check.ErrOptionOutOfRange),
		errors.Is(err, quiz.ErrOptionOutOfRange),
		errors.Is(err, quiz.ErrUnknownQuestion):
		return http.StatusBadRequest
	case errors.Is(err, check.ErrAnswerLocked),
		errors.Is(err, quiz.ErrSubmitted),
		errors.Is(err, quiz.ErrTimeUp):
		return http.StatusConflict
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

// maxBodyBytes caps request bodies; answer payloads are a few dozen bytes.
const maxBodyBytes = 64 << 10

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v) == nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
