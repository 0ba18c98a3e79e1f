package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	chatapi "github.com/physai/textbook-backend/internal/api/chat"
	"github.com/physai/textbook-backend/internal/api/docs"
	healthapi "github.com/physai/textbook-backend/internal/api/health"
	"github.com/physai/textbook-backend/internal/api/middleware"
	"github.com/physai/textbook-backend/internal/config"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	chatHandler *chatapi.Handler,
	healthHandler *healthapi.Handler,
	cfg *config.Config,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                    // Recover from panics
	r.Use(chimiddleware.RequestID)                    // Add request ID
	r.Use(middleware.Logger(logger))                  // Log requests
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))    // Handle CORS
	r.Use(chimiddleware.Timeout(60 * time.Second))    // Default timeout

	// Health check endpoint
	healthapi.RegisterRoutes(r, healthHandler)

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	chatapi.RegisterRoutes(r, chatHandler,
		middleware.RateLimit(cfg.RateLimitCfg.ChatPerMinute, cfg.RateLimitCfg.Burst),
		middleware.RateLimit(cfg.RateLimitCfg.FeedbackPerMinute, cfg.RateLimitCfg.Burst),
	)

	return r
}
