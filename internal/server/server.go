// Package server exposes the form controllers over HTTP.
//
// Requests from the Datastar client get an SSE stream of presentation
// patches. Any other client gets the recorded presentation state as JSON.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"

	"github.com/braamfashionweek/formmail"
)

// Options tunes the HTTP layer.
type Options struct {
	// BannerTTL overrides each form's banner lifetime when positive.
	BannerTTL time.Duration

	// RateLimit and RateBurst bound submits per client IP.
	RateLimit float64
	RateBurst int

	// MaxUploadBytes caps request bodies.
	MaxUploadBytes int64
}

// DefaultOptions returns one submit per second with a burst of five.
func DefaultOptions() Options {
	return Options{
		RateLimit:      1,
		RateBurst:      5,
		MaxUploadBytes: 32 << 20,
	}
}

// Server routes form requests to one controller per catalog form.
type Server struct {
	catalog     *formmail.Catalog
	controllers map[string]*formmail.Controller
	logger      *slog.Logger
	opts        Options
	limiters    *limiterCache
	policy      *bluemonday.Policy
}

// New builds a controller for every form in catalog. A nil or unconfigured
// transport is accepted; submits then do nothing visible and log an error.
func New(catalog *formmail.Catalog, transport formmail.Transport, logger *slog.Logger, opts Options) (*Server, error) {
	if catalog == nil {
		return nil, fmt.Errorf("server: catalog is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.RateLimit <= 0 {
		opts.RateLimit = def.RateLimit
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = def.RateBurst
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = def.MaxUploadBytes
	}

	s := &Server{
		catalog:     catalog,
		controllers: make(map[string]*formmail.Controller),
		logger:      logger,
		opts:        opts,
		limiters:    newLimiterCache(opts.RateLimit, opts.RateBurst),
		policy:      newPolicy(),
	}

	for _, id := range catalog.IDs() {
		form, err := catalog.Form(id)
		if err != nil {
			return nil, err
		}
		ctrl, err := formmail.NewController(form, transport,
			formmail.WithLogger(logger),
			formmail.WithBannerTTL(opts.BannerTTL),
		)
		if err != nil {
			return nil, fmt.Errorf("server: form %s: %w", id, err)
		}
		if !ctrl.Configured() {
			logger.Warn("form will not send until the email relay is configured", slog.String("form", id))
		}
		s.controllers[id] = ctrl
	}

	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/forms/{form}", func(r chi.Router) {
		r.With(s.rateLimit).Post("/submit", s.handleSubmit)
		r.Post("/fields/{field}", s.handleField)
		r.Post("/files/{input}", s.handleFiles)
		r.Post("/counter", s.handleCounter)
		r.Post("/phone", s.handlePhone)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Not found.")
	})

	return r
}

func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*formmail.Controller, bool) {
	id := chi.URLParam(r, "form")
	ctrl, ok := s.controllers[id]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_form", fmt.Sprintf("Unknown form %q.", id))
		return nil, false
	}
	return ctrl, true
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}
