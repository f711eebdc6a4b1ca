package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/repository"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/services"
	xhttp "github.com/shambhoomaddheshiya/yuva-finance/pkg/http"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
)

const (
	ViewingUserHeader = "X-Viewing-User"
	viewerKey         = "viewing_user"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ViewerMiddleware resolves the viewing user once per request. Every ledger
// row read or written by the request belongs to that user's group.
func ViewerMiddleware(defaultViewer string, skipPaths ...string) xhttp.MiddlewareFunc {
	return func(next xhttp.RequestHandler) xhttp.RequestHandler {
		return func(ctx *xhttp.RequestCtx) {
			path := string(ctx.Path())
			for _, p := range skipPaths {
				if strings.HasPrefix(path, p) {
					next(ctx)
					return
				}
			}

			viewer := strings.TrimSpace(string(ctx.Request.Header.Peek(ViewingUserHeader)))
			if viewer == "" {
				viewer = defaultViewer
			}
			if viewer == "" {
				writeError(ctx, xhttp.StatusBadRequest, "missing "+ViewingUserHeader+" header")
				return
			}
			ctx.SetUserValue(viewerKey, viewer)
			next(ctx)
		}
	}
}

// scope returns the request context bound to the viewing user's group.
func scope(ctx *xhttp.RequestCtx) context.Context {
	viewer, _ := ctx.UserValue(viewerKey).(string)
	return model.WithGroup(ctx, viewer)
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode response", "error", err, "path", string(ctx.Path()))
		status = xhttp.StatusInternalServerError
		b = []byte(`{"error":"internal error"}`)
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, errorResponse{Error: msg})
}

// writeServiceError maps service errors onto status codes. Store failures
// never leak their message.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(ctx, xhttp.StatusUnprocessableEntity, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, repository.ErrTransactionNotFound),
		errors.Is(err, repository.ErrJobNotFound):
		writeError(ctx, xhttp.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrAsyncUnavailable):
		writeError(ctx, xhttp.StatusServiceUnavailable, err.Error())
	default:
		logger.Error("request failed", "path", string(ctx.Path()), "request_id", xhttp.RequestID(ctx), "error", err)
		writeError(ctx, xhttp.StatusInternalServerError, "internal error")
	}
}

func pathParam(ctx *xhttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

// parsePeriod reads period=all|month|year|custom|latest and its companions
// month=YYYY-MM, year=YYYY, from and to.
func parsePeriod(ctx *xhttp.RequestCtx) (ledger.Period, error) {
	return ledger.ParsePeriod(ledger.PeriodQuery{
		Period: query(ctx, "period"),
		Month:  query(ctx, "month"),
		Year:   query(ctx, "year"),
		From:   query(ctx, "from"),
		To:     query(ctx, "to"),
	})
}
