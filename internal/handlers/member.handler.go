package handlers

import (
	"context"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/services"
	xhttp "github.com/shambhoomaddheshiya/yuva-finance/pkg/http"
)

type MemberService interface {
	Create(ctx context.Context, p model.MemberCreateRequest) (*model.Member, error)
	Get(ctx context.Context, id string) (*model.Member, error)
	List(ctx context.Context) ([]*model.Member, error)
	Balance(ctx context.Context, id string) (ledger.MemberBalance, error)
	Update(ctx context.Context, id string, p model.MemberUpdateRequest) (*model.Member, error)
	ChangeStatus(ctx context.Context, id string, status model.MemberStatus) (*model.Member, error)
	Delete(ctx context.Context, id string) error
	Rename(ctx context.Context, id string, p model.MemberRenameRequest) (*services.RenameResult, error)
}

type PassbookService interface {
	Passbook(ctx context.Context, memberID string) (*ledger.Passbook, error)
}

type MemberHandler struct {
	svc      MemberService
	passbook PassbookService
}

type memberDetail struct {
	model.MemberView
	Balance ledger.MemberBalance `json:"balance"`
}

type renameResponse struct {
	Member            model.MemberView `json:"member"`
	MovedTransactions int64            `json:"moved_transactions"`
}

func RegisterMemberRoutes(e *xhttp.Group, h *MemberHandler) {
	e.GET("/members", h.ListMembers)
	e.POST("/members", h.CreateMember)
	e.GET("/members/{id}", h.GetMember)
	e.PUT("/members/{id}", h.UpdateMember)
	e.DELETE("/members/{id}", h.DeleteMember)
	e.PATCH("/members/{id}/status", h.ChangeStatus)
	e.POST("/members/{id}/rename", h.RenameMember)
	e.GET("/members/{id}/passbook", h.GetPassbook)
}

func NewMemberHandler(svc MemberService, passbook PassbookService) *MemberHandler {
	return &MemberHandler{
		svc:      svc,
		passbook: passbook,
	}
}

func (h *MemberHandler) ListMembers(ctx *xhttp.RequestCtx) {
	members, err := h.svc.List(scope(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	views := make([]model.MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, m.View())
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]any{
		"members": views,
		"total":   len(views),
	})
}

func (h *MemberHandler) CreateMember(ctx *xhttp.RequestCtx) {
	var req model.MemberCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON body")
		return
	}
	m, err := h.svc.Create(scope(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, m.View())
}

func (h *MemberHandler) GetMember(ctx *xhttp.RequestCtx) {
	c := scope(ctx)
	id := pathParam(ctx, "id")
	m, err := h.svc.Get(c, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	bal, err := h.svc.Balance(c, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, memberDetail{MemberView: m.View(), Balance: bal})
}

func (h *MemberHandler) UpdateMember(ctx *xhttp.RequestCtx) {
	var req model.MemberUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON body")
		return
	}
	m, err := h.svc.Update(scope(ctx), pathParam(ctx, "id"), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, m.View())
}

func (h *MemberHandler) DeleteMember(ctx *xhttp.RequestCtx) {
	if err := h.svc.Delete(scope(ctx), pathParam(ctx, "id")); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *MemberHandler) ChangeStatus(ctx *xhttp.RequestCtx) {
	var req model.MemberStatusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(ctx, err)
		return
	}
	m, err := h.svc.ChangeStatus(scope(ctx), pathParam(ctx, "id"), req.Status)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, m.View())
}

func (h *MemberHandler) RenameMember(ctx *xhttp.RequestCtx) {
	var req model.MemberRenameRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := h.svc.Rename(scope(ctx), pathParam(ctx, "id"), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, renameResponse{Member: res.Member.View(), MovedTransactions: res.MovedTransactions})
}

func (h *MemberHandler) GetPassbook(ctx *xhttp.RequestCtx) {
	book, err := h.passbook.Passbook(scope(ctx), pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, book)
}
