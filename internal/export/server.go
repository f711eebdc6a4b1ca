// Package export serves the read-only report feed consumed by the PDF and
// spreadsheet exporters.
package export

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/services"
)

const ViewingUserHeader = "X-Viewing-User"

type ReportSource interface {
	Report(ctx context.Context, period ledger.Period) (*ledger.Report, error)
	Summary(ctx context.Context, period ledger.Period) (*services.SummaryResult, error)
}

type HealthChecker interface {
	Check(ctx context.Context) error
}

// SummaryResponse is the summary in the exporter's fixed key order.
type SummaryResponse struct {
	Period   ledger.Period     `json:"period"`
	Summary  ledger.SummaryMap `json:"summary"`
	Warnings []ledger.Warning  `json:"warnings,omitempty"`
}

type Handler struct {
	source        ReportSource
	health        HealthChecker
	defaultViewer string
}

func NewHandler(source ReportSource, health HealthChecker, defaultViewer string) *Handler {
	return &Handler{source: source, health: health, defaultViewer: defaultViewer}
}

// Report returns the flat rows and summary map for the requested period.
func (h *Handler) Report(c *gin.Context) {
	ctx, period, ok := h.request(c)
	if !ok {
		return
	}
	report, err := h.source.Report(ctx, period)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) Summary(c *gin.Context) {
	ctx, period, ok := h.request(c)
	if !ok {
		return
	}
	res, err := h.source.Summary(ctx, period)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{
		Period:   res.Summary.Period,
		Summary:  ledger.NewSummaryMap(res.Summary),
		Warnings: res.Warnings,
	})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Check(c.Request.Context()); err != nil {
			log.Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
}

// request resolves the viewing user and the period; on failure the response
// is already written.
func (h *Handler) request(c *gin.Context) (context.Context, ledger.Period, bool) {
	viewer := strings.TrimSpace(c.GetHeader(ViewingUserHeader))
	if viewer == "" {
		viewer = h.defaultViewer
	}
	if viewer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + ViewingUserHeader + " header"})
		return nil, ledger.Period{}, false
	}

	period, err := ledger.ParsePeriod(ledger.PeriodQuery{
		Period: c.Query("period"),
		Month:  c.Query("month"),
		Year:   c.Query("year"),
		From:   c.Query("from"),
		To:     c.Query("to"),
	})
	if err != nil {
		h.fail(c, err)
		return nil, ledger.Period{}, false
	}
	return model.WithGroup(c.Request.Context(), viewer), period, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Message, "field": verr.Field})
		return
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("export request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// SetupRouter configures all routes.
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request processed")
	})

	v1 := router.Group("/api/v1/export")
	{
		v1.GET("/report", handler.Report)
		v1.GET("/summary", handler.Summary)
	}
	router.GET("/health", handler.HealthCheck)

	return router
}
