package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/api/middleware"
	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/chat"
	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/handlers"
	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/store"
)

// NewRouter creates and configures the HTTP router. redisClient may be
// nil, in which case rate limiting is disabled.
func NewRouter(
	logger zerolog.Logger,
	svc *chat.Service,
	participants store.ParticipantStore,
	messages store.MessageStore,
	redisClient *redis.Client,
	rateLimitWhitelist []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (needs Redis)
	if redisClient != nil {
		limiter := middleware.NewRateLimiter(redisClient, logger, rateLimitWhitelist)
		r.Use(limiter.Middleware)
	}

	// CORS - allow all origins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "User"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(svc, participants, messages)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)

	r.Post("/participants", h.Join)
	r.Get("/participants", h.ListParticipants)
	r.Get("/participants/{name}", h.GetParticipant)

	r.Post("/messages", h.PostMessage)
	r.Get("/messages", h.GetMessages)

	r.Post("/status", h.Status)

	r.Get("/find", h.Find)

	return r
}
