package ledger

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shopspring/decimal"
)

const (
	KeyTotalDeposits  = "Total Deposits"
	KeyTotalLoans     = "Total Loans"
	KeyTotalPrincipal = "Total Principal Repaid"
	KeyTotalInterest  = "Total Interest Earned"
	KeyRemainingFund  = "Remaining Fund"
)

// SummaryKeys is the fixed order of the report summary.
var SummaryKeys = []string{KeyTotalDeposits, KeyTotalLoans, KeyTotalPrincipal, KeyTotalInterest, KeyRemainingFund}

// ReportRow is one line of the export feed. Field names are consumed by the
// PDF and spreadsheet exporters and must not change.
type ReportRow struct {
	MemberName  string                `json:"memberName"`
	MemberID    string                `json:"memberId"`
	Date        time.Time             `json:"date"`
	Type        model.TransactionType `json:"type"`
	Description string                `json:"description"`
	TotalAmount decimal.Decimal       `json:"totalAmount"`
	Principal   decimal.Decimal       `json:"principal"`
	Interest    decimal.Decimal       `json:"interest"`
}

// SummaryMap keeps its keys in SummaryKeys order when marshalled.
type SummaryMap map[string]decimal.Decimal

func NewSummaryMap(s Summary) SummaryMap {
	return SummaryMap{
		KeyTotalDeposits:  s.TotalDeposits,
		KeyTotalLoans:     s.TotalLoan,
		KeyTotalPrincipal: s.TotalRepaymentPrincipal,
		KeyTotalInterest:  s.TotalInterest,
		KeyRemainingFund:  s.RemainingFund,
	}
}

func (m SummaryMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, key := range SummaryKeys {
		value, ok := m[key]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Report struct {
	Period   Period      `json:"period"`
	Rows     []ReportRow `json:"rows"`
	Summary  SummaryMap  `json:"summary"`
	Warnings []Warning   `json:"warnings,omitempty"`
}

// BuildReport lists the period's transactions by date together with the
// summary map. Rows skip inactive members like the totals do. Rows of
// unregistered members stay visible as "Unknown member" but never count
// toward the totals. A latest-month period is resolved against txns.
func BuildReport(txns []*model.Transaction, members []*model.Member, period Period) Report {
	period = period.Resolve(txns)
	book := partition(txns, members)
	summary := summarize(book.eligible, book.contributing, period)

	rows := make([]ReportRow, 0, len(book.eligible)+len(book.unknown))
	for _, t := range sortedByDate(append(append([]*model.Transaction{}, book.eligible...), book.unknown...)) {
		if !period.Contains(t.Date) {
			continue
		}
		name := model.UnknownMemberName
		if m, ok := book.byID[t.MemberID]; ok {
			name = m.Name
		}
		rows = append(rows, ReportRow{
			MemberName:  name,
			MemberID:    t.MemberID,
			Date:        t.Date,
			Type:        t.Type,
			Description: t.Description,
			TotalAmount: t.Amount,
			Principal:   t.Principal,
			Interest:    t.Interest,
		})
	}

	return Report{
		Period:   period,
		Rows:     rows,
		Summary:  NewSummaryMap(summary),
		Warnings: book.warnings,
	}
}
