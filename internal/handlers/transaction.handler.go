package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/services"
	xhttp "github.com/shambhoomaddheshiya/yuva-finance/pkg/http"
	"github.com/shopspring/decimal"
)

type TransactionService interface {
	Create(ctx context.Context, p model.TransactionCreateRequest) (*services.TransactionResult, error)
	RecordRepayment(ctx context.Context, p model.RepaymentRequest) (*services.TransactionResult, error)
	EditRepayment(ctx context.Context, id string, principal, interest decimal.Decimal) (*services.TransactionResult, error)
	Update(ctx context.Context, id string, p model.TransactionUpdateRequest) (*services.TransactionResult, error)
	DeleteRepayment(ctx context.Context, id string) (*services.DeleteResult, error)
	Delete(ctx context.Context, id string) (*services.DeleteResult, error)
	Get(ctx context.Context, id string) (*model.Transaction, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
	Loans(ctx context.Context) ([]ledger.LoanState, []ledger.Warning, error)
	ReconcileLoans(ctx context.Context) (*services.ReconcileResult, error)
}

type TransactionHandler struct {
	svc TransactionService
}

type listTransactionsResponse struct {
	Transactions []*model.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

type loansResponse struct {
	Loans    []ledger.LoanState `json:"loans"`
	Warnings []ledger.Warning   `json:"warnings,omitempty"`
}

type repaymentEdit struct {
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
}

func RegisterTransactionRoutes(e *xhttp.Group, h *TransactionHandler) {
	e.GET("/transactions", h.ListTransactions)
	e.POST("/transactions", h.CreateTransaction)
	e.GET("/transactions/{id}", h.GetTransaction)
	e.PUT("/transactions/{id}", h.UpdateTransaction)
	e.DELETE("/transactions/{id}", h.DeleteTransaction)

	e.GET("/loans", h.ListLoans)
	e.POST("/loans/reconcile", h.ReconcileLoans)
	e.POST("/loans/{loanId}/repayments", h.RecordRepayment)
	e.PUT("/repayments/{id}", h.EditRepayment)
	e.DELETE("/repayments/{id}", h.DeleteRepayment)
}

func NewTransactionHandler(svc TransactionService) *TransactionHandler {
	return &TransactionHandler{
		svc: svc,
	}
}

func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	f, err := parseTransactionFilter(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	txns, total, err := h.svc.List(scope(ctx), f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listTransactionsResponse{
		Transactions: txns,
		Total:        total,
		Limit:        f.Limit,
		Offset:       f.Offset,
	})
}

func (h *TransactionHandler) CreateTransaction(ctx *xhttp.RequestCtx) {
	var req model.TransactionCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := h.svc.Create(scope(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, res)
}

func (h *TransactionHandler) GetTransaction(ctx *xhttp.RequestCtx) {
	t, err := h.svc.Get(scope(ctx), pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, t)
}

func (h *TransactionHandler) UpdateTransaction(ctx *xhttp.RequestCtx) {
	var req model.TransactionUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := h.svc.Update(scope(ctx), pathParam(ctx, "id"), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *TransactionHandler) DeleteTransaction(ctx *xhttp.RequestCtx) {
	res, err := h.svc.Delete(scope(ctx), pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *TransactionHandler) ListLoans(ctx *xhttp.RequestCtx) {
	loans, warnings, err := h.svc.Loans(scope(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, loansResponse{Loans: loans, Warnings: warnings})
}

func (h *TransactionHandler) ReconcileLoans(ctx *xhttp.RequestCtx) {
	res, err := h.svc.ReconcileLoans(scope(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *TransactionHandler) RecordRepayment(ctx *xhttp.RequestCtx) {
	var req model.RepaymentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON body")
		return
	}
	// the path names the loan
	req.LoanID = pathParam(ctx, "loanId")
	res, err := h.svc.RecordRepayment(scope(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, res)
}

func (h *TransactionHandler) EditRepayment(ctx *xhttp.RequestCtx) {
	var req repaymentEdit
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := h.svc.EditRepayment(scope(ctx), pathParam(ctx, "id"), req.Principal, req.Interest)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *TransactionHandler) DeleteRepayment(ctx *xhttp.RequestCtx) {
	res, err := h.svc.DeleteRepayment(scope(ctx), pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func parseTransactionFilter(ctx *xhttp.RequestCtx) (model.TransactionFilter, error) {
	f := model.TransactionFilter{Limit: 50}

	if v := query(ctx, "member_id"); v != "" {
		f.MemberID = &v
	}
	if v := query(ctx, "loan_id"); v != "" {
		f.LoanID = &v
	}
	if v := query(ctx, "type"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			t := model.TransactionType(strings.TrimSpace(raw))
			if !t.Valid() {
				return f, model.NewValidationError("type", "unknown transaction type "+string(t))
			}
			f.Types = append(f.Types, t)
		}
	}
	if v := query(ctx, "from"); v != "" {
		t, err := ledger.ParseDate(v)
		if err != nil {
			return f, model.NewValidationError("from", "must be RFC3339 or YYYY-MM-DD")
		}
		f.From = &t
	}
	if v := query(ctx, "to"); v != "" {
		t, err := ledger.ParseDate(v)
		if err != nil {
			return f, model.NewValidationError("to", "must be RFC3339 or YYYY-MM-DD")
		}
		f.To = &t
	}
	if v := query(ctx, "limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			return f, model.NewValidationError("limit", "must be between 1 and 500")
		}
		f.Limit = n
	}
	if v := query(ctx, "offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, model.NewValidationError("offset", "must not be negative")
		}
		f.Offset = n
	}
	f.Desc = strings.EqualFold(query(ctx, "order"), "desc")
	return f, nil
}
