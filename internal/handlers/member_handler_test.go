package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/repository"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMemberService struct {
	mock.Mock
}

func (m *MockMemberService) Create(ctx context.Context, p model.MemberCreateRequest) (*model.Member, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockMemberService) Get(ctx context.Context, id string) (*model.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockMemberService) List(ctx context.Context) ([]*model.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Member), args.Error(1)
}

func (m *MockMemberService) Balance(ctx context.Context, id string) (ledger.MemberBalance, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ledger.MemberBalance), args.Error(1)
}

func (m *MockMemberService) Update(ctx context.Context, id string, p model.MemberUpdateRequest) (*model.Member, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockMemberService) ChangeStatus(ctx context.Context, id string, status model.MemberStatus) (*model.Member, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockMemberService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMemberService) Rename(ctx context.Context, id string, p model.MemberRenameRequest) (*services.RenameResult, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RenameResult), args.Error(1)
}

type MockPassbookService struct {
	mock.Mock
}

func (m *MockPassbookService) Passbook(ctx context.Context, memberID string) (*ledger.Passbook, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Passbook), args.Error(1)
}

func sampleMember(id string) *model.Member {
	return &model.Member{
		ID:       id,
		Name:     "Asha",
		Aadhaar:  "123456789012",
		JoinDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:   model.MemberStatusActive,
	}
}

func TestMemberHandler_CreateMember(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		svc := new(MockMemberService)
		handler := NewMemberHandler(svc, nil)

		svc.On("Create", inGroup(), mock.MatchedBy(func(p model.MemberCreateRequest) bool {
			return p.ID == "M1" && p.Name == "Asha"
		})).Return(sampleMember("M1"), nil)

		ctx := setupTestContext("POST", "/members", []byte(`{"id":"M1","name":"Asha"}`))
		handler.CreateMember(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())
		var resp map[string]any
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Equal(t, "M1", resp["id"])
		assert.Equal(t, "1234-5678-9012", resp["aadhaar"])
		svc.AssertExpectations(t)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		svc := new(MockMemberService)
		handler := NewMemberHandler(svc, nil)

		ctx := setupTestContext("POST", "/members", []byte("invalid json"))
		handler.CreateMember(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		assert.Contains(t, decodeError(t, ctx).Error, "invalid JSON")
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate id", func(t *testing.T) {
		svc := new(MockMemberService)
		handler := NewMemberHandler(svc, nil)

		svc.On("Create", mock.Anything, mock.Anything).Return(nil, services.ErrMemberIDTaken)

		ctx := setupTestContext("POST", "/members", []byte(`{"id":"M1","name":"Asha"}`))
		handler.CreateMember(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
		assert.Equal(t, "id", decodeError(t, ctx).Field)
	})
}

func TestMemberHandler_GetMember(t *testing.T) {
	t.Run("returns member with balance", func(t *testing.T) {
		svc := new(MockMemberService)
		handler := NewMemberHandler(svc, nil)

		svc.On("Get", inGroup(), "M1").Return(sampleMember("M1"), nil)
		svc.On("Balance", inGroup(), "M1").Return(ledger.MemberBalance{
			MemberID:       "M1",
			DepositBalance: decimal.NewFromInt(1000),
		}, nil)

		ctx := setupTestContext("GET", "/members/M1", nil)
		ctx.SetUserValue("id", "M1")
		handler.GetMember(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var resp struct {
			ID      string `json:"id"`
			Balance struct {
				DepositBalance decimal.Decimal `json:"deposit_balance"`
			} `json:"balance"`
		}
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Equal(t, "M1", resp.ID)
		assert.True(t, decimal.NewFromInt(1000).Equal(resp.Balance.DepositBalance))
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockMemberService)
		handler := NewMemberHandler(svc, nil)

		svc.On("Get", mock.Anything, "missing").Return(nil, repository.ErrMemberNotFound)

		ctx := setupTestContext("GET", "/members/missing", nil)
		ctx.SetUserValue("id", "missing")
		handler.GetMember(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Balance", mock.Anything, mock.Anything)
	})
}

func TestMemberHandler_ChangeStatus(t *testing.T) {
	t.Run("closes a settled member", func(t *testing.T) {
		svc := new(MockMemberService)
		handler := NewMemberHandler(svc, nil)

		closed := sampleMember("M1")
		closed.Status = model.MemberStatusClosed
		svc.On("ChangeStatus", inGroup(), "M1", model.MemberStatusClosed).Return(closed, nil)

		ctx := setupTestContext("PATCH", "/members/M1/status", []byte(`{"status":"closed"}`))
		ctx.SetUserValue("id", "M1")
		handler.ChangeStatus(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("unknown status never reaches the service", func(t *testing.T) {
		svc := new(MockMemberService)
		handler := NewMemberHandler(svc, nil)

		ctx := setupTestContext("PATCH", "/members/M1/status", []byte(`{"status":"suspended"}`))
		ctx.SetUserValue("id", "M1")
		handler.ChangeStatus(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
		assert.Equal(t, "status", decodeError(t, ctx).Field)
		svc.AssertNotCalled(t, "ChangeStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("outstanding loan blocks closing", func(t *testing.T) {
		svc := new(MockMemberService)
		handler := NewMemberHandler(svc, nil)

		svc.On("ChangeStatus", mock.Anything, "M1", model.MemberStatusClosed).Return(nil, services.ErrOutstandingLoan)

		ctx := setupTestContext("PATCH", "/members/M1/status", []byte(`{"status":"closed"}`))
		ctx.SetUserValue("id", "M1")
		handler.ChangeStatus(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
	})
}

func TestMemberHandler_DeleteAndRename(t *testing.T) {
	t.Run("delete answers no content", func(t *testing.T) {
		svc := new(MockMemberService)
		handler := NewMemberHandler(svc, nil)

		svc.On("Delete", inGroup(), "M1").Return(nil)

		ctx := setupTestContext("DELETE", "/members/M1", nil)
		ctx.SetUserValue("id", "M1")
		handler.DeleteMember(ctx)

		assert.Equal(t, 204, ctx.Response.StatusCode())
	})

	t.Run("rename reports moved transactions", func(t *testing.T) {
		svc := new(MockMemberService)
		handler := NewMemberHandler(svc, nil)

		svc.On("Rename", inGroup(), "M1", model.MemberRenameRequest{NewID: "M9"}).
			Return(&services.RenameResult{Member: sampleMember("M9"), MovedTransactions: 4}, nil)

		ctx := setupTestContext("POST", "/members/M1/rename", []byte(`{"new_id":"M9"}`))
		ctx.SetUserValue("id", "M1")
		handler.RenameMember(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var resp renameResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Equal(t, int64(4), resp.MovedTransactions)
		assert.Equal(t, "M9", resp.Member.ID)
	})
}

func TestMemberHandler_GetPassbook(t *testing.T) {
	svc := new(MockMemberService)
	books := new(MockPassbookService)
	handler := NewMemberHandler(svc, books)

	books.On("Passbook", inGroup(), "M1").Return(&ledger.Passbook{
		Member:     sampleMember("M1"),
		GrandTotal: decimal.NewFromInt(1025),
	}, nil)

	ctx := setupTestContext("GET", "/members/M1/passbook", nil)
	ctx.SetUserValue("id", "M1")
	handler.GetPassbook(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	var resp ledger.Passbook
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.True(t, decimal.NewFromInt(1025).Equal(resp.GrandTotal))
	books.AssertExpectations(t)
}
