package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go-user-service/internal/model"
	"go-user-service/pkg/apierror"
)

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	store pinger
}

func NewHealthHandler(store pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Health(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		writeError(w, apierror.New("SERVICE_UNAVAILABLE", "Database unavailable", "", http.StatusServiceUnavailable))
		return
	}

	writeSuccess(w, http.StatusOK, model.HealthStatus{Status: "healthy", Database: "ok"}, nil)
}
