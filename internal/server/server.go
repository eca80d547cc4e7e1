// Package server exposes the conversational agent over HTTP: a JSON chat
// endpoint, an SSE streaming variant, and session inspection routes.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frameiq/agent-server/internal/service"
)

// Config holds HTTP server settings.
type Config struct {
	Port            string `envconfig:"PORT" default:"8080"`
	ReadTimeoutSecs int    `envconfig:"HTTP_READ_TIMEOUT_SECONDS" default:"30"`
	// WriteTimeoutSecs bounds non-streaming responses. It must exceed the
	// worst-case turn duration; SSE connections are exempted via
	// http.NewResponseController deadlines.
	WriteTimeoutSecs int `envconfig:"HTTP_WRITE_TIMEOUT_SECONDS" default:"120"`
	RequestsPerMin   int `envconfig:"HTTP_RATE_LIMIT_PER_MINUTE" default:"120"`
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(cfg Config, svc *service.TurnService) http.Handler {
	h := &Handler{service: svc}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Coarse per-IP limit in front of the application-level
		// session/global limiter
		r.Use(httprate.LimitByIP(cfg.RequestsPerMin, time.Minute))

		r.Post("/chat", h.Chat)
		r.Post("/chat/stream", h.ChatStream)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.SessionInfo)
			r.Get("/history", h.History)
			r.Delete("/history", h.ClearHistory)
		})
	})

	return r
}
