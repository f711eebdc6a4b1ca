package ledger

import (
	"fmt"
	"sort"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shopspring/decimal"
)

type MemberBalance struct {
	MemberID       string          `json:"member_id"`
	DepositBalance decimal.Decimal `json:"deposit_balance"`
	LoanBalance    decimal.Decimal `json:"loan_balance"`
}

// Balances maps member id to derived balances.
type Balances map[string]MemberBalance

// ComputeBalances folds txns into per-member deposit and loan balances.
// Expenses are group level and leave member balances alone. Negative loan
// balances are kept as they are.
func ComputeBalances(txns []*model.Transaction) Balances {
	balances := make(Balances)
	for _, t := range txns {
		if t == nil {
			continue
		}
		b := balances.For(t.MemberID)
		switch t.Type {
		case model.TransactionDeposit:
			b.DepositBalance = b.DepositBalance.Add(t.Amount)
		case model.TransactionLoan:
			b.LoanBalance = b.LoanBalance.Add(t.Amount)
		case model.TransactionRepayment:
			b.LoanBalance = b.LoanBalance.Sub(t.Principal)
		case model.TransactionLoanWaived:
			b.LoanBalance = b.LoanBalance.Sub(t.Amount)
		default:
			continue
		}
		balances[t.MemberID] = b
	}
	return balances
}

// For returns the balances of memberID, zero when it has no transactions.
func (b Balances) For(memberID string) MemberBalance {
	if mb, ok := b[memberID]; ok {
		return mb
	}
	return MemberBalance{MemberID: memberID}
}

// Sorted returns the balances ordered by member id.
func (b Balances) Sorted() []MemberBalance {
	out := make([]MemberBalance, 0, len(b))
	for _, mb := range b {
		out = append(out, mb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

// NegativeLoans reports members who repaid more principal than they borrowed.
func (b Balances) NegativeLoans() []Warning {
	var warnings []Warning
	for _, mb := range b.Sorted() {
		if mb.LoanBalance.IsNegative() {
			warnings = append(warnings, Warning{
				Kind:     WarningNegativeLoanBalance,
				MemberID: mb.MemberID,
				Message:  fmt.Sprintf("member %s has loan balance %s", mb.MemberID, mb.LoanBalance.String()),
			})
		}
	}
	return warnings
}
