package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig wires handlers and cross-cutting middleware.
type RouterConfig struct {
	Rooms       *RoomHandler
	Meetings    *MeetingHandler
	Verifier    *TokenVerifier
	Health      Pinger
	CORSOrigins []string
	Logger      *slog.Logger
	Middleware  []func(http.Handler) http.Handler
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(RequestLogger(logger))
	router.Use(middleware.Recoverer)
	if corsHandler := CORS(cfg.CORSOrigins); corsHandler != nil {
		router.Use(corsHandler)
	}
	for _, mw := range cfg.Middleware {
		if mw != nil {
			router.Use(mw)
		}
	}

	router.Get("/healthz", healthHandler(cfg.Health, logger))

	router.Group(func(r chi.Router) {
		if cfg.Verifier != nil {
			r.Use(RequireToken(cfg.Verifier, logger))
		}

		if cfg.Rooms != nil {
			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", cfg.Rooms.List)
				r.Post("/", cfg.Rooms.Create)
				r.Route("/{roomID}", func(r chi.Router) {
					r.Get("/", cfg.Rooms.Get)
					r.Put("/", cfg.Rooms.Update)
					r.Delete("/", cfg.Rooms.Delete)
					if cfg.Meetings != nil {
						r.Get("/availability", cfg.Meetings.Availability)
					}
				})
			})
		}

		if cfg.Meetings != nil {
			r.Route("/meetings", func(r chi.Router) {
				r.Get("/", cfg.Meetings.List)
				r.Post("/", cfg.Meetings.Create)
				r.Route("/{meetingID}", func(r chi.Router) {
					r.Get("/", cfg.Meetings.Get)
					r.Delete("/", cfg.Meetings.Delete)
					r.Post("/approve", cfg.Meetings.Approve)
					r.Post("/reject", cfg.Meetings.Reject)
					r.Put("/invitees/{userID}", cfg.Meetings.Respond)
				})
			})
		}
	})

	return router
}

func healthHandler(pinger Pinger, logger *slog.Logger) http.HandlerFunc {
	responder := newResponder(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "health check failed", "error", err)
				responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

type healthResponse struct {
	Status string `json:"status"`
}
