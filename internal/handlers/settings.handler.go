package handlers

import (
	"context"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	xhttp "github.com/shambhoomaddheshiya/yuva-finance/pkg/http"
)

type SettingsService interface {
	Get(ctx context.Context) (*model.GroupSettings, error)
	Update(ctx context.Context, p model.SettingsUpdateRequest) (*model.GroupSettings, error)
}

type SettingsHandler struct {
	svc SettingsService
}

func RegisterSettingsRoutes(e *xhttp.Group, h *SettingsHandler) {
	e.GET("/settings", h.GetSettings)
	e.PUT("/settings", h.UpdateSettings)
}

func NewSettingsHandler(svc SettingsService) *SettingsHandler {
	return &SettingsHandler{
		svc: svc,
	}
}

func (h *SettingsHandler) GetSettings(ctx *xhttp.RequestCtx) {
	s, err := h.svc.Get(scope(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}

func (h *SettingsHandler) UpdateSettings(ctx *xhttp.RequestCtx) {
	var req model.SettingsUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON body")
		return
	}
	s, err := h.svc.Update(scope(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}
