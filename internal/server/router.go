// Package server exposes the template library over a JSON HTTP API.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opencode-ai/narrator/internal/library"
	"github.com/opencode-ai/narrator/internal/logging"
	"github.com/opencode-ai/narrator/internal/narrative"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Deps holds everything the router serves from.
type Deps struct {
	Library *library.Library
	Engine  *narrative.Engine
	Logger  zerolog.Logger
}

type handlers struct {
	lib    *library.Library
	engine *narrative.Engine
	logger zerolog.Logger
}

// NewRouter assembles the chi router. The library is shared read-only across
// requests; every request builds its own value environment.
func NewRouter(deps Deps) http.Handler {
	logger := logging.Component(deps.Logger, "server")
	engine := deps.Engine
	if engine == nil {
		engine = narrative.New(narrative.WithLogger(logger))
	}
	h := &handlers{lib: deps.Library, engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(jsonContentType)

	r.Get("/healthz", h.health)
	r.Get("/lint", h.lint)
	r.Post("/report", h.report)
	r.Post("/codes", h.codes)

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", h.listTemplates)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getTemplate)
			r.Get("/relationships", h.relationships)
			r.Post("/generate", h.generate)
			r.Post("/validate", h.validate)
		})
	})

	return r
}

// jsonContentType sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
