// Package api serves the tracker over a small local HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/jmtracker/internal/ingest"
	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/normalize"
	"github.com/sells-group/jmtracker/internal/review"
	"github.com/sells-group/jmtracker/internal/source"
	"github.com/sells-group/jmtracker/internal/tracker"
)

// Server exposes tracker views and actions as JSON endpoints.
type Server struct {
	tracker  *tracker.Service
	reviewer *review.Reviewer
	engine   *ingest.Engine
	registry *source.Registry
	inputDir string
	origins  []string
}

// Options configures a Server.
type Options struct {
	Tracker  *tracker.Service
	Reviewer *review.Reviewer
	Engine   *ingest.Engine
	Registry *source.Registry
	InputDir string

	// CORSOrigins are the origins allowed to call the API from a browser.
	CORSOrigins []string
}

// New creates a Server.
func New(opts Options) *Server {
	return &Server{
		tracker:  opts.Tracker,
		reviewer: opts.Reviewer,
		engine:   opts.Engine,
		registry: opts.Registry,
		inputDir: opts.InputDir,
		origins:  opts.CORSOrigins,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Get("/postings", s.handlePostings)
	r.Get("/deadlines", s.handleDeadlines)
	r.Route("/postings/{origin}/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetPosting)
		r.Post("/status", s.handleSetStatus)
		r.Post("/application/{action}", s.handleApplication)
	})

	r.Get("/pending", s.handlePending)
	r.Route("/pending/{origin}/{id}", func(r chi.Router) {
		r.Post("/accept", s.handleAccept)
		r.Post("/reject", s.handleReject)
		r.Post("/accept/{field}", s.handleAcceptField)
	})

	r.Post("/ingest", s.handleIngest)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func keyFrom(r *http.Request) model.Key {
	return model.Key{Origin: chi.URLParam(r, "origin"), OriginID: chi.URLParam(r, "id")}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps tracker errors to status codes. Empty states are not
// failures and come back as 200 with a message.
func writeErr(w http.ResponseWriter, err error) {
	var verr *source.ValidationError
	var merr *normalize.MissingColumnError
	switch {
	case errors.Is(err, tracker.ErrNothingPending), errors.Is(err, tracker.ErrNoPostings):
		writeJSON(w, http.StatusOK, map[string]any{"message": err.Error(), "items": []any{}})
	case errors.Is(err, tracker.ErrStoreCorrupt):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrNoTransition), errors.Is(err, tracker.ErrInvalidTransition), errors.As(err, &verr), errors.As(err, &merr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zap.L().Error("api request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
