package export

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReportSource struct {
	mock.Mock
}

func (m *MockReportSource) Report(ctx context.Context, period ledger.Period) (*ledger.Report, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Report), args.Error(1)
}

func (m *MockReportSource) Summary(ctx context.Context, period ledger.Period) (*services.SummaryResult, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SummaryResult), args.Error(1)
}

type stubHealth struct{ err error }

func (s stubHealth) Check(context.Context) error { return s.err }

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func viewer(group string) any {
	return mock.MatchedBy(func(ctx context.Context) bool {
		return model.GroupFromContext(ctx) == group
	})
}

func TestExport_Report(t *testing.T) {
	t.Run("rows for the requested month", func(t *testing.T) {
		src := new(MockReportSource)
		router := SetupRouter(NewHandler(src, nil, "default-group"))

		src.On("Report", viewer("treasurer"), mock.MatchedBy(func(p ledger.Period) bool {
			return p.Kind == ledger.PeriodMonth && p.From.Month() == 3
		})).Return(&ledger.Report{
			Rows: []ledger.ReportRow{{MemberName: "Asha", MemberID: "M1", Type: model.TransactionDeposit, TotalAmount: decimal.NewFromInt(50)}},
			Summary: ledger.NewSummaryMap(ledger.Summary{
				TotalDeposits: decimal.NewFromInt(50),
				RemainingFund: decimal.NewFromInt(50),
			}),
		}, nil)

		w := serve(router, "/api/v1/export/report?period=month&month=2024-03", map[string]string{ViewingUserHeader: "treasurer"})

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Rows []map[string]any `json:"rows"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Rows, 1)
		assert.Equal(t, "Asha", body.Rows[0]["memberName"])
		assert.Equal(t, "50", body.Rows[0]["totalAmount"])
		src.AssertExpectations(t)
	})

	t.Run("default viewer", func(t *testing.T) {
		src := new(MockReportSource)
		router := SetupRouter(NewHandler(src, nil, "default-group"))

		src.On("Report", viewer("default-group"), mock.Anything).Return(&ledger.Report{}, nil)

		w := serve(router, "/api/v1/export/report", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		src.AssertExpectations(t)
	})

	t.Run("no viewer", func(t *testing.T) {
		src := new(MockReportSource)
		router := SetupRouter(NewHandler(src, nil, ""))

		w := serve(router, "/api/v1/export/report", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		src.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
	})

	t.Run("bad period", func(t *testing.T) {
		src := new(MockReportSource)
		router := SetupRouter(NewHandler(src, nil, "g"))

		w := serve(router, "/api/v1/export/report?period=fortnight", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"period"`)
	})

	t.Run("store failure", func(t *testing.T) {
		src := new(MockReportSource)
		router := SetupRouter(NewHandler(src, nil, "g"))

		src.On("Report", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

		w := serve(router, "/api/v1/export/report", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

func TestExport_SummaryKeepsKeyOrder(t *testing.T) {
	src := new(MockReportSource)
	router := SetupRouter(NewHandler(src, nil, "g"))

	src.On("Summary", mock.Anything, mock.Anything).Return(&services.SummaryResult{
		Summary: ledger.Summary{
			TotalDeposits:           decimal.NewFromInt(3050),
			TotalLoan:               decimal.NewFromInt(500),
			TotalRepaymentPrincipal: decimal.NewFromInt(500),
			TotalInterest:           decimal.NewFromInt(50),
			RemainingFund:           decimal.NewFromInt(3050),
		},
	}, nil)

	w := serve(router, "/api/v1/export/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	last := -1
	for _, key := range ledger.SummaryKeys {
		i := strings.Index(body, `"`+key+`"`)
		require.Greater(t, i, last, key)
		last = i
	}
}

func TestExport_Health(t *testing.T) {
	router := SetupRouter(NewHandler(new(MockReportSource), stubHealth{}, ""))
	assert.Equal(t, http.StatusOK, serve(router, "/health", nil).Code)

	router = SetupRouter(NewHandler(new(MockReportSource), stubHealth{err: errors.New("down")}, ""))
	assert.Equal(t, http.StatusServiceUnavailable, serve(router, "/health", nil).Code)
}
