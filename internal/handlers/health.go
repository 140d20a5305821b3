package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	pkghttp "github.com/william165-bot/net-hunter/pkg/http"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness of the service and its store
type HealthHandler struct {
	store   Pinger
	backend string
	logger  *slog.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(store Pinger, backend string, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{store: store, backend: backend, logger: logger}
}

// HealthResponse is the /health body
type HealthResponse struct {
	Status  string `json:"status"`
	Store   string `json:"store"`
	Backend string `json:"backend"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("store health check failed", slog.String("error", err.Error()))
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "degraded",
			Store:   "down",
			Backend: h.backend,
		})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Store: "up", Backend: h.backend})
}
