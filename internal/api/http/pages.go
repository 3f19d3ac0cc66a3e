package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-studycentre/internal/catalog"
)

// GET /pages?course=&module=&q=&limit=&offset=
func ListPagesHandler(cat catalog.Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		list, err := cat.ListPages(r.Context(), catalog.ListOpts{
			Course: strings.TrimSpace(qs.Get("course")),
			Module: strings.TrimSpace(qs.Get("module")),
			Q:      strings.TrimSpace(qs.Get("q")),
			Limit:  parseIntDefault(qs.Get("limit"), 50),
			Offset: parseIntDefault(qs.Get("offset"), 0),
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /pages/{pageID...}
// Page ids are paths (course/section), so the id is the rest of the URL.
// The response never includes correct answers or explanations.
func GetPageHandler(cat catalog.Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.Trim(chi.URLParam(r, "*"), "/")
		if id == "" {
			http.Error(w, "page id required", http.StatusBadRequest)
			return
		}
		p, err := cat.GetPage(r.Context(), id)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, p.Public())
	}
}

// GET /exams
func ListExamsHandler(cat catalog.Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := cat.ListExams(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
