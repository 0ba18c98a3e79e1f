package health

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/physai/textbook-backend/internal/entity"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"

	probeTimeout = 5 * time.Second
)

// Handler probes every backing service and reports an aggregate status.
type Handler struct {
	db     DBPinger
	index  Pinger
	openai Pinger
}

func NewHandler(db DBPinger, index Pinger, openai Pinger) *Handler {
	return &Handler{
		db:     db,
		index:  index,
		openai: openai,
	}
}

// Check handles GET /health
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	services := map[string]string{
		"database": statusHealthy,
		"qdrant":   statusHealthy,
		"openai":   statusHealthy,
	}
	var failing []string

	if err := h.db.Ping(ctx); err != nil {
		ctxzap.Warn(ctx, "database health check failed", zap.Error(err))
		services["database"] = statusDegraded
		failing = append(failing, "database")
	}
	if err := h.index.Health(ctx); err != nil {
		ctxzap.Warn(ctx, "qdrant health check failed", zap.Error(err))
		services["qdrant"] = statusDegraded
		failing = append(failing, "qdrant")
	}
	if err := h.openai.Health(ctx); err != nil {
		ctxzap.Warn(ctx, "openai health check failed", zap.Error(err))
		services["openai"] = statusDegraded
		failing = append(failing, "openai")
	}

	resp := entity.HealthResponse{
		Status:    statusHealthy,
		Timestamp: time.Now().UTC(),
		Services:  services,
	}

	status := http.StatusOK
	if len(failing) > 0 {
		resp.Status = statusDegraded
		msg := "degraded services: " + strings.Join(failing, ", ")
		resp.Message = &msg
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// RegisterRoutes registers the health endpoint
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/health", h.Check)
}
