package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-studycentre/internal/course"
)

// Reloader re-reads catalog content from its source.
type Reloader interface {
	Reload(ctx context.Context) (course.Bundle, error)
}

// POST /admin/catalog/reload
// Invalid content is rejected with every issue listed; the old content stays live.
func ReloadCatalogHandler(rl Reloader, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rl == nil {
			http.Error(w, "catalog is not file backed", http.StatusNotImplemented)
			return
		}
		b, err := rl.Reload(r.Context())
		if err != nil {
			log.Warn("catalog reload failed", zap.Error(err))
			writeError(w, r, log, err)
			return
		}
		log.Info("catalog reloaded", zap.Int("pages", len(b.Pages)), zap.Int("exams", len(b.Exams)))
		writeJSON(w, http.StatusOK, map[string]int{"pages": len(b.Pages), "exams": len(b.Exams)})
	}
}
