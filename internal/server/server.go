// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"viralboard/internal/adapter/events"
	"viralboard/internal/config"
	"viralboard/internal/server/handlers"
	"viralboard/internal/service/dashboard"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	svc *dashboard.Service,
	publisher *events.Publisher,
) *Server {
	router := NewRouter(cfg, svc, publisher)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// NewRouter builds the route tree
func NewRouter(cfg config.ServerConfig, svc *dashboard.Service, publisher *events.Publisher) *chi.Mux {
	router := chi.NewRouter()

	// Middleware
	router.Use(requestID)
	router.Use(middleware.RealIP)
	router.Use(accessLog)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Create handler dependencies
	trendHandler := handlers.NewTrendHandler(svc)
	predictionHandler := handlers.NewPredictionHandler(svc)
	modelHandler := handlers.NewModelHandler(svc)

	// Routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateLimitWindow))
		}

		r.Get("/health", handlers.HealthHandler(svc))

		r.Get("/predictions/top", predictionHandler.GetTopPredictions)

		// Trends API
		r.Route("/trends", func(r chi.Router) {
			r.Get("/", trendHandler.CompareTrends)
			r.Get("/top", trendHandler.GetTopTrends)
			r.Get("/keyword", trendHandler.GetKeywordTrend)
			r.Get("/score", trendHandler.GetTrendScore)
		})

		// Titles API
		r.Route("/titles", func(r chi.Router) {
			r.Get("/", predictionHandler.ListTitles)
			r.Get("/detail", predictionHandler.GetTitleDetail)
		})

		// Model pages
		r.Route("/model", func(r chi.Router) {
			r.Get("/features", modelHandler.GetFeatures)
			r.Get("/performance", modelHandler.GetPerformance)
		})

		r.Post("/estimate", modelHandler.Estimate)
	})

	router.Handle("/metrics", promhttp.Handler())

	// WebSocket endpoint for refresh notifications
	router.Get("/ws/trends", handlers.TrendsWebSocketHandler(publisher))

	return router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
