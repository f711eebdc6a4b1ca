package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
)

type PeriodKind string

const (
	PeriodAll    PeriodKind = "all"
	PeriodMonth  PeriodKind = "month"
	PeriodYear   PeriodKind = "year"
	PeriodCustom PeriodKind = "custom"
	PeriodLatest PeriodKind = "latest"
)

// Period selects transactions by date over the half-open range [From, To).
// A zero bound is open on that side.
type Period struct {
	Kind PeriodKind `json:"kind"`
	From time.Time  `json:"from,omitzero"`
	To   time.Time  `json:"to,omitzero"`
}

func AllTime() Period {
	return Period{Kind: PeriodAll}
}

func Month(year int, month time.Month, loc *time.Location) Period {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Period{Kind: PeriodMonth, From: from, To: from.AddDate(0, 1, 0)}
}

func Year(year int, loc *time.Location) Period {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return Period{Kind: PeriodYear, From: from, To: from.AddDate(1, 0, 0)}
}

func Range(from, to time.Time) Period {
	return Period{Kind: PeriodCustom, From: from, To: to}
}

// LatestMonth is the calendar month holding the most recent transaction
// date. With no transactions it selects nothing.
func LatestMonth(txns []*model.Transaction) Period {
	var latest time.Time
	for _, t := range txns {
		if t != nil && t.Date.After(latest) {
			latest = t.Date
		}
	}
	if latest.IsZero() {
		return Period{Kind: PeriodLatest, From: time.Unix(0, 0).UTC(), To: time.Unix(0, 0).UTC()}
	}
	p := Month(latest.Year(), latest.Month(), latest.Location())
	p.Kind = PeriodLatest
	return p
}

// Resolve pins an unbounded latest-month period to the month of the newest
// transaction in txns. Other periods are returned as is.
func (p Period) Resolve(txns []*model.Transaction) Period {
	if p.Kind == PeriodLatest && p.From.IsZero() && p.To.IsZero() {
		return LatestMonth(txns)
	}
	return p
}

func (p Period) Contains(t time.Time) bool {
	if p.Kind == "" || p.Kind == PeriodAll {
		return true
	}
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && !t.Before(p.To) {
		return false
	}
	return true
}

func (p Period) Filter(txns []*model.Transaction) []*model.Transaction {
	out := make([]*model.Transaction, 0, len(txns))
	for _, t := range txns {
		if t != nil && p.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

func (p Period) Label() string {
	switch p.Kind {
	case PeriodMonth, PeriodLatest:
		return p.From.Format("2006-01")
	case PeriodYear:
		return p.From.Format("2006")
	case PeriodCustom:
		return fmt.Sprintf("%s..%s", dateLabel(p.From), dateLabel(lastDay(p.To)))
	default:
		return "all-time"
	}
}

// lastDay turns an exclusive midnight bound into the last day it covers.
func lastDay(to time.Time) time.Time {
	if to.IsZero() || !to.Equal(to.Truncate(24*time.Hour)) {
		return to
	}
	return to.AddDate(0, 0, -1)
}

func dateLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// sortedByDate returns a copy of txns ordered by date then id, without nils.
func sortedByDate(txns []*model.Transaction) []*model.Transaction {
	out := make([]*model.Transaction, 0, len(txns))
	for _, t := range txns {
		if t != nil {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
