package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSummaryService struct {
	mock.Mock
}

func (m *MockSummaryService) Summary(ctx context.Context, period ledger.Period) (*services.SummaryResult, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SummaryResult), args.Error(1)
}

func (m *MockSummaryService) Monthly(ctx context.Context) (*services.MonthlyResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MonthlyResult), args.Error(1)
}

func (m *MockSummaryService) Balances(ctx context.Context) (*services.BalancesResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BalancesResult), args.Error(1)
}

func (m *MockSummaryService) Report(ctx context.Context, period ledger.Period) (*ledger.Report, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Report), args.Error(1)
}

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context) (*model.GroupSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GroupSettings), args.Error(1)
}

func (m *MockSettingsService) Update(ctx context.Context, p model.SettingsUpdateRequest) (*model.GroupSettings, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GroupSettings), args.Error(1)
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Check(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestSummaryHandler_GetSummary(t *testing.T) {
	t.Run("passes the parsed period", func(t *testing.T) {
		svc := new(MockSummaryService)
		handler := NewSummaryHandler(svc)

		svc.On("Summary", inGroup(), mock.MatchedBy(func(p ledger.Period) bool {
			return p.Kind == ledger.PeriodYear
		})).Return(&services.SummaryResult{}, nil)

		ctx := setupTestContext("GET", "/summary?period=year&year=2024", nil)
		handler.GetSummary(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("bad period never reaches the service", func(t *testing.T) {
		svc := new(MockSummaryService)
		handler := NewSummaryHandler(svc)

		ctx := setupTestContext("GET", "/summary?period=month", nil)
		handler.GetSummary(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
		assert.Equal(t, "month", decodeError(t, ctx).Field)
		svc.AssertNotCalled(t, "Summary", mock.Anything, mock.Anything)
	})

	t.Run("store failure is hidden", func(t *testing.T) {
		svc := new(MockSummaryService)
		handler := NewSummaryHandler(svc)

		svc.On("Summary", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused"))

		ctx := setupTestContext("GET", "/summary", nil)
		handler.GetSummary(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())
		assert.Equal(t, "internal error", decodeError(t, ctx).Error)
	})
}

func TestSummaryHandler_Views(t *testing.T) {
	svc := new(MockSummaryService)
	handler := NewSummaryHandler(svc)

	svc.On("Monthly", inGroup()).Return(&services.MonthlyResult{}, nil)
	svc.On("Balances", inGroup()).Return(&services.BalancesResult{}, nil)
	svc.On("Report", inGroup(), mock.MatchedBy(func(p ledger.Period) bool {
		return p.Kind == ledger.PeriodLatest
	})).Return(&ledger.Report{}, nil)

	ctx := setupTestContext("GET", "/summary/monthly", nil)
	handler.GetMonthly(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())

	ctx = setupTestContext("GET", "/balances", nil)
	handler.GetBalances(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())

	ctx = setupTestContext("GET", "/reports?period=latest", nil)
	handler.GetReport(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())

	svc.AssertExpectations(t)
}

func TestSettingsHandler(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		svc := new(MockSettingsService)
		handler := NewSettingsHandler(svc)

		svc.On("Get", inGroup()).Return(&model.GroupSettings{GroupName: "Yuva"}, nil)

		ctx := setupTestContext("GET", "/settings", nil)
		handler.GetSettings(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), "Yuva")
	})

	t.Run("update rejected", func(t *testing.T) {
		svc := new(MockSettingsService)
		handler := NewSettingsHandler(svc)

		svc.On("Update", mock.Anything, mock.Anything).
			Return(nil, model.NewValidationError("group_name", "is required"))

		ctx := setupTestContext("PUT", "/settings", []byte(`{"group_name":""}`))
		handler.UpdateSettings(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		svc := new(MockHealthService)
		svc.On("Check", mock.Anything).Return(nil)

		ctx := setupTestContext("GET", "/health", nil)
		NewHealthHandler(svc).GetHealth(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
	})

	t.Run("unhealthy", func(t *testing.T) {
		svc := new(MockHealthService)
		svc.On("Check", mock.Anything).Return(errors.New("redis down"))

		ctx := setupTestContext("GET", "/health", nil)
		NewHealthHandler(svc).GetHealth(ctx)

		assert.Equal(t, 503, ctx.Response.StatusCode())
	})
}
