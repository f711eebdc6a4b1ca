package ledger

import (
	"fmt"
	"sort"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shopspring/decimal"
)

// Summary holds the group totals over one period.
//
//	TotalDeposits   = deposits + interest - expenses - waivers
//	OutstandingLoan = loans - principal repaid
//	RemainingFund   = TotalDeposits + principal repaid - loans
//
// RemainingFund is taken from the net TotalDeposits, so expenses and loan
// waivers both lower it. A waiver moves no cash; it is counted because the
// waived principal will never come back into the fund.
type Summary struct {
	Period                  Period          `json:"period"`
	TotalDeposits           decimal.Decimal `json:"total_deposits"`
	GrossDeposits           decimal.Decimal `json:"gross_deposits"`
	TotalLoan               decimal.Decimal `json:"total_loan"`
	TotalRepaymentPrincipal decimal.Decimal `json:"total_repayment_principal"`
	TotalInterest           decimal.Decimal `json:"total_interest"`
	TotalExpenses           decimal.Decimal `json:"total_expenses"`
	TotalWaived             decimal.Decimal `json:"total_waived"`
	OutstandingLoan         decimal.Decimal `json:"outstanding_loan"`
	RemainingFund           decimal.Decimal `json:"remaining_fund"`
	ContributingMembers     int             `json:"contributing_members"`
	Transactions            int             `json:"transactions"`
}

// ComputeGroupSummary totals the transactions of contributing members inside
// period. A latest-month period is resolved against txns first. Transactions
// of members missing from the registry are left out and reported.
func ComputeGroupSummary(txns []*model.Transaction, members []*model.Member, period Period) (Summary, []Warning) {
	book := partition(txns, members)
	return summarize(book.eligible, book.contributing, period.Resolve(txns)), book.warnings
}

func summarize(eligible []*model.Transaction, contributing int, period Period) Summary {
	s := Summary{Period: period, ContributingMembers: contributing}
	for _, t := range eligible {
		if !period.Contains(t.Date) {
			continue
		}
		s.Transactions++
		switch t.Type {
		case model.TransactionDeposit:
			s.GrossDeposits = s.GrossDeposits.Add(t.Amount)
		case model.TransactionLoan:
			s.TotalLoan = s.TotalLoan.Add(t.Amount)
		case model.TransactionRepayment:
			s.TotalRepaymentPrincipal = s.TotalRepaymentPrincipal.Add(t.Principal)
			s.TotalInterest = s.TotalInterest.Add(t.Interest)
		case model.TransactionExpense:
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
		case model.TransactionLoanWaived:
			s.TotalWaived = s.TotalWaived.Add(t.Amount)
		}
	}

	s.TotalDeposits = s.GrossDeposits.Add(s.TotalInterest).Sub(s.TotalExpenses).Sub(s.TotalWaived)
	s.OutstandingLoan = s.TotalLoan.Sub(s.TotalRepaymentPrincipal)
	s.RemainingFund = s.TotalDeposits.Add(s.TotalRepaymentPrincipal).Sub(s.TotalLoan)
	return s
}

// CashFlow is money in minus money out over txns. A loan waiver counts as out
// since the waived principal is written off the fund. For any set of
// transactions it equals the RemainingFund of their summary.
func CashFlow(txns []*model.Transaction) decimal.Decimal {
	var flow decimal.Decimal
	for _, t := range txns {
		if t == nil {
			continue
		}
		switch t.Type {
		case model.TransactionDeposit:
			flow = flow.Add(t.Amount)
		case model.TransactionRepayment:
			flow = flow.Add(t.Principal).Add(t.Interest)
		case model.TransactionLoan, model.TransactionExpense, model.TransactionLoanWaived:
			flow = flow.Sub(t.Amount)
		}
	}
	return flow
}

type MonthTotals struct {
	Month     string          `json:"month"`
	Deposits  decimal.Decimal `json:"deposits"`
	Loans     decimal.Decimal `json:"loans"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Expenses  decimal.Decimal `json:"expenses"`
	Waived    decimal.Decimal `json:"waived"`
}

// MonthlyBreakdown totals contributing transactions per calendar month,
// oldest month first.
func MonthlyBreakdown(txns []*model.Transaction, members []*model.Member) ([]MonthTotals, []Warning) {
	book := partition(txns, members)
	months := make(map[string]*MonthTotals)
	for _, t := range book.eligible {
		key := t.Date.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthTotals{Month: key}
			months[key] = m
		}
		switch t.Type {
		case model.TransactionDeposit:
			m.Deposits = m.Deposits.Add(t.Amount)
		case model.TransactionLoan:
			m.Loans = m.Loans.Add(t.Amount)
		case model.TransactionRepayment:
			m.Principal = m.Principal.Add(t.Principal)
			m.Interest = m.Interest.Add(t.Interest)
		case model.TransactionExpense:
			m.Expenses = m.Expenses.Add(t.Amount)
		case model.TransactionLoanWaived:
			m.Waived = m.Waived.Add(t.Amount)
		}
	}

	out := make([]MonthTotals, 0, len(months))
	for _, m := range months {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, book.warnings
}

// ledgerBook splits the transaction stream by the standing of its member.
type ledgerBook struct {
	eligible     []*model.Transaction
	unknown      []*model.Transaction
	byID         map[string]*model.Member
	contributing int
	warnings     []Warning
}

func partition(txns []*model.Transaction, members []*model.Member) ledgerBook {
	book := ledgerBook{byID: make(map[string]*model.Member, len(members))}
	for _, m := range members {
		if m == nil {
			continue
		}
		book.byID[m.ID] = m
		if m.Contributing() {
			book.contributing++
		}
	}

	for _, t := range sortedByDate(txns) {
		m, ok := book.byID[t.MemberID]
		switch {
		case !ok:
			book.unknown = append(book.unknown, t)
			book.warnings = append(book.warnings, Warning{
				Kind:          WarningUnknownMember,
				TransactionID: t.ID,
				MemberID:      t.MemberID,
				Message:       fmt.Sprintf("transaction %s belongs to unknown member %q", t.ID, t.MemberID),
			})
		case m.Contributing():
			book.eligible = append(book.eligible, t)
		}
	}
	return book
}
