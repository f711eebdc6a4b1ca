package ledger

import (
	"strconv"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
)

// PeriodQuery is the raw form of a period as it arrives on a query string.
type PeriodQuery struct {
	Period string
	Month  string // YYYY-MM
	Year   string // YYYY
	From   string
	To     string
}

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// parseEnd reads the end of a custom range. A bare date includes the whole
// day, so the exclusive bound is the following midnight.
func parseEnd(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.AddDate(0, 0, 1), nil
}

// ParsePeriod turns q into a Period. Calendar periods are taken in UTC.
func ParsePeriod(q PeriodQuery) (Period, error) {
	switch PeriodKind(q.Period) {
	case "", PeriodAll:
		return AllTime(), nil
	case PeriodLatest:
		return Period{Kind: PeriodLatest}, nil
	case PeriodMonth:
		m, err := time.Parse("2006-01", q.Month)
		if err != nil {
			return Period{}, model.NewValidationError("month", "must be YYYY-MM")
		}
		return Month(m.Year(), m.Month(), time.UTC), nil
	case PeriodYear:
		y, err := strconv.Atoi(q.Year)
		if err != nil || y < 1 || y > 9999 {
			return Period{}, model.NewValidationError("year", "must be YYYY")
		}
		return Year(y, time.UTC), nil
	case PeriodCustom:
		var from, to time.Time
		var err error
		if q.From != "" {
			if from, err = ParseDate(q.From); err != nil {
				return Period{}, model.NewValidationError("from", "must be RFC3339 or YYYY-MM-DD")
			}
		}
		if q.To != "" {
			if to, err = parseEnd(q.To); err != nil {
				return Period{}, model.NewValidationError("to", "must be RFC3339 or YYYY-MM-DD")
			}
		}
		if !from.IsZero() && !to.IsZero() && !from.Before(to) {
			return Period{}, model.NewValidationError("to", "must be after from")
		}
		return Range(from, to), nil
	default:
		return Period{}, model.NewValidationError("period", "must be one of all, month, year, custom, latest")
	}
}
