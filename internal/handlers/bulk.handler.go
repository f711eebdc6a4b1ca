package handlers

import (
	"context"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	xhttp "github.com/shambhoomaddheshiya/yuva-finance/pkg/http"
)

type BulkDepositService interface {
	Deposit(ctx context.Context, p model.BulkDepositRequest) (*model.BulkDepositResult, error)
	Enqueue(ctx context.Context, p model.BulkDepositRequest) (*model.BulkDepositResult, error)
	Status(ctx context.Context, jobID string) (*model.BulkDepositResult, error)
}

type BulkHandler struct {
	svc BulkDepositService
}

func RegisterBulkRoutes(e *xhttp.Group, h *BulkHandler) {
	e.POST("/deposits/bulk", h.Deposit)
	e.POST("/deposits/bulk/async", h.Enqueue)
	e.GET("/deposits/bulk/{jobId}", h.GetStatus)
}

func NewBulkHandler(svc BulkDepositService) *BulkHandler {
	return &BulkHandler{
		svc: svc,
	}
}

// Deposit commits the batch chunk by chunk. A partially failed batch still
// answers 200; the body lists which chunks failed.
func (h *BulkHandler) Deposit(ctx *xhttp.RequestCtx) {
	var req model.BulkDepositRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := h.svc.Deposit(scope(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	status := xhttp.StatusCreated
	if res.Failed > 0 {
		status = xhttp.StatusOK
	}
	writeJSON(ctx, status, res)
}

func (h *BulkHandler) Enqueue(ctx *xhttp.RequestCtx) {
	var req model.BulkDepositRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := h.svc.Enqueue(scope(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusAccepted, res)
}

func (h *BulkHandler) GetStatus(ctx *xhttp.RequestCtx) {
	res, err := h.svc.Status(scope(ctx), pathParam(ctx, "jobId"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}
