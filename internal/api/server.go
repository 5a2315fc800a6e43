package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ABCMilioli/api-control/internal/api/handler"
	mw "github.com/ABCMilioli/api-control/internal/api/middleware"
	"github.com/ABCMilioli/api-control/internal/config"
	"github.com/ABCMilioli/api-control/internal/core"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	pool     *pgxpool.Pool
	cfg      *config.Config
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, services *core.Services, cfg *config.Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		pool:     pool,
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// Public endpoints consumed by installed software.
	validation := handler.NewValidation(s.services.Admission, s.services.Installation)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/validate", validation.Validate)
		r.Get("/installations/status/{id}", validation.Status)

		// Management API.
		r.Group(func(r chi.Router) {
			r.Use(mw.AdminAuth(s.cfg.AdminToken))

			client := handler.NewClient(s.services.Client)
			r.Get("/clients", client.List)
			r.Post("/clients", client.Create)
			r.Get("/clients/{id}", client.Get)
			r.Put("/clients/{id}", client.Update)
			r.Delete("/clients/{id}", client.Delete)

			apiKey := handler.NewAPIKey(s.services.APIKey)
			r.Get("/api-keys", apiKey.List)
			r.Post("/api-keys", apiKey.Create)
			r.Get("/api-keys/{id}", apiKey.Get)
			r.Put("/api-keys/{id}", apiKey.Update)
			r.Delete("/api-keys/{id}", apiKey.Delete)

			installation := handler.NewInstallation(s.services.Installation)
			r.Get("/api-keys/{keyID}/installations", installation.ListByKey)
			r.Get("/installations/{id}", installation.Get)
			r.Post("/installations/{id}/deactivate", installation.Deactivate)

			subscription := handler.NewSubscription(s.services.Subscription)
			r.Get("/subscriptions", subscription.List)
			r.Post("/subscriptions", subscription.Create)
			r.Get("/subscriptions/{id}", subscription.Get)
			r.Put("/subscriptions/{id}", subscription.Update)
			r.Delete("/subscriptions/{id}", subscription.Delete)

			notification := handler.NewNotification(s.services.Notification)
			r.Get("/notifications", notification.List)
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
