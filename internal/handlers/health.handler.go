package handlers

import (
	"context"

	xhttp "github.com/shambhoomaddheshiya/yuva-finance/pkg/http"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
)

type HealthService interface {
	Check(ctx context.Context) error
}

type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(e *xhttp.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{
		svc: svc,
	}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if err := h.svc.Check(ctx); err != nil {
		logger.Error("health check failed", "error", err)
		writeError(ctx, xhttp.StatusServiceUnavailable, "unhealthy")
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]string{"status": "ok"})
}
