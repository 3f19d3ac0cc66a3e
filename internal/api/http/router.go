package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-studycentre/internal/assess"
	"github.com/mind-engage/mindengage-studycentre/internal/auth"
	authmw "github.com/mind-engage/mindengage-studycentre/internal/auth/middleware"
	"github.com/mind-engage/mindengage-studycentre/internal/catalog"
	"github.com/mind-engage/mindengage-studycentre/internal/config"
	"github.com/mind-engage/mindengage-studycentre/internal/rbac"
)

type Deps struct {
	Config   config.Config
	Catalog  catalog.Catalog
	Reloader Reloader // nil unless the catalog is file backed
	Assess   *assess.Service
	Auth     *authmw.AuthService
	Log      *zap.Logger
	// Ready reports whether backing stores are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/guest", auth.GuestLoginHandler(d.Auth, d.Config.EnableGuestAuth, d.Config.Mode == config.ModeOnline, log))
	if d.Config.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Config.AdminUser, d.Config.AdminPassHash, log))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermPageView)).Get("/pages", ListPagesHandler(d.Catalog, log))
		pr.With(rbac.Require(rbac.PermPageView)).Get("/pages/*", GetPageHandler(d.Catalog, log))
		pr.With(rbac.Require(rbac.PermPageView)).Get("/exams", ListExamsHandler(d.Catalog, log))

		pr.Route("/checks", func(cr chi.Router) {
			cr.Use(rbac.Require(rbac.PermCheckAnswer))
			cr.Post("/", StartCheckHandler(d.Assess, log))
			cr.Get("/{sessionID}", GetCheckHandler(d.Assess, log))
			cr.Post("/{sessionID}/select", SelectCheckHandler(d.Assess, log))
		})

		pr.Route("/quizzes", func(qr chi.Router) {
			qr.Use(rbac.RequireAny(rbac.PermQuizAnswer, rbac.PermExamAttempt))
			qr.With(rbac.Require(rbac.PermQuizAnswer)).Post("/", StartQuizHandler(d.Assess, log))
			qr.Get("/{sessionID}", GetQuizHandler(d.Assess, log))
			qr.Post("/{sessionID}/answers", SelectAnswerHandler(d.Assess, log))
			qr.Post("/{sessionID}/submit", SubmitQuizHandler(d.Assess, log))
		})

		pr.With(rbac.Require(rbac.PermExamAttempt)).
			Post("/exams/{examID}/attempts", StartExamHandler(d.Assess, log))

		pr.With(rbac.Require(rbac.PermCatalogReload)).
			Post("/admin/catalog/reload", ReloadCatalogHandler(d.Reloader, log))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				log.Warn("not ready", zap.Error(err))
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// RequestLogger logs one line per request with zap.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
