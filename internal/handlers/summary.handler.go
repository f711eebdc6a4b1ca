package handlers

import (
	"context"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/services"
	xhttp "github.com/shambhoomaddheshiya/yuva-finance/pkg/http"
)

type SummaryService interface {
	Summary(ctx context.Context, period ledger.Period) (*services.SummaryResult, error)
	Monthly(ctx context.Context) (*services.MonthlyResult, error)
	Balances(ctx context.Context) (*services.BalancesResult, error)
	Report(ctx context.Context, period ledger.Period) (*ledger.Report, error)
}

type SummaryHandler struct {
	svc SummaryService
}

func RegisterSummaryRoutes(e *xhttp.Group, h *SummaryHandler) {
	e.GET("/summary", h.GetSummary)
	e.GET("/summary/monthly", h.GetMonthly)
	e.GET("/balances", h.GetBalances)
	e.GET("/reports", h.GetReport)
}

func NewSummaryHandler(svc SummaryService) *SummaryHandler {
	return &SummaryHandler{
		svc: svc,
	}
}

func (h *SummaryHandler) GetSummary(ctx *xhttp.RequestCtx) {
	period, err := parsePeriod(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	res, err := h.svc.Summary(scope(ctx), period)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *SummaryHandler) GetMonthly(ctx *xhttp.RequestCtx) {
	res, err := h.svc.Monthly(scope(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *SummaryHandler) GetBalances(ctx *xhttp.RequestCtx) {
	res, err := h.svc.Balances(scope(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *SummaryHandler) GetReport(ctx *xhttp.RequestCtx) {
	period, err := parsePeriod(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	res, err := h.svc.Report(scope(ctx), period)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}
