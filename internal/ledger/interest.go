package ledger

import (
	"fmt"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shopspring/decimal"
)

// DivisorPolicy decides which members share a repayment's interest.
type DivisorPolicy string

const (
	// DivisorCurrent splits all interest evenly over today's contributing
	// members, including ones who joined after it was earned.
	DivisorCurrent DivisorPolicy = "current"
	// DivisorJoinedBefore splits each repayment's interest over the
	// contributing members who had joined by the repayment date.
	DivisorJoinedBefore DivisorPolicy = "joined-before"
)

func ParseDivisorPolicy(s string) (DivisorPolicy, error) {
	switch DivisorPolicy(s) {
	case "", DivisorCurrent:
		return DivisorCurrent, nil
	case DivisorJoinedBefore:
		return DivisorJoinedBefore, nil
	}
	return "", fmt.Errorf("unknown interest divisor policy %q", s)
}

type InterestCalculator struct {
	Policy DivisorPolicy
}

func NewInterestCalculator(policy DivisorPolicy) InterestCalculator {
	return InterestCalculator{Policy: policy}
}

// ComputeInterestShare is the share of member under the current-members policy.
func ComputeInterestShare(member *model.Member, txns []*model.Transaction, members []*model.Member) decimal.Decimal {
	return NewInterestCalculator(DivisorCurrent).Share(member, txns, members)
}

// Shares returns the interest share of every registered member. Inactive
// members get zero; with no contributing members everyone gets zero.
func (c InterestCalculator) Shares(txns []*model.Transaction, members []*model.Member) map[string]decimal.Decimal {
	book := partition(txns, members)
	shares := make(map[string]decimal.Decimal, len(book.byID))
	var contributing []*model.Member
	for _, m := range members {
		if m == nil {
			continue
		}
		shares[m.ID] = decimal.Zero
		if m.Contributing() {
			contributing = append(contributing, m)
		}
	}
	if len(contributing) == 0 {
		return shares
	}

	if c.Policy == DivisorJoinedBefore {
		for _, t := range book.eligible {
			if t.Type != model.TransactionRepayment || t.Interest.IsZero() {
				continue
			}
			sharers := joinedBy(contributing, t)
			part := t.Interest.Div(decimal.NewFromInt(int64(len(sharers))))
			for _, m := range sharers {
				shares[m.ID] = shares[m.ID].Add(part)
			}
		}
		return shares
	}

	var total decimal.Decimal
	for _, t := range book.eligible {
		if t.Type == model.TransactionRepayment {
			total = total.Add(t.Interest)
		}
	}
	part := total.Div(decimal.NewFromInt(int64(len(contributing))))
	for _, m := range contributing {
		shares[m.ID] = part
	}
	return shares
}

// Share returns the interest share of a single member.
func (c InterestCalculator) Share(member *model.Member, txns []*model.Transaction, members []*model.Member) decimal.Decimal {
	if !member.Contributing() {
		return decimal.Zero
	}
	return c.Shares(txns, members)[member.ID]
}

// joinedBy returns the members who had joined by the repayment date. Interest
// earned before anyone joined goes to all of them.
func joinedBy(members []*model.Member, t *model.Transaction) []*model.Member {
	var out []*model.Member
	for _, m := range members {
		if !m.JoinDate.After(t.Date) {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return members
	}
	return out
}

// Passbook is one member's statement.
type Passbook struct {
	Member         *model.Member        `json:"member"`
	Transactions   []*model.Transaction `json:"transactions"`
	Loans          []LoanState          `json:"loans"`
	DepositBalance decimal.Decimal      `json:"deposit_balance"`
	LoanBalance    decimal.Decimal      `json:"loan_balance"`
	InterestShare  decimal.Decimal      `json:"interest_share"`
	GrandTotal     decimal.Decimal      `json:"grand_total"`
}

// Passbook builds the statement of member: its transactions by date, its
// balances and loans, and GrandTotal = deposit balance + interest share.
func (c InterestCalculator) Passbook(member *model.Member, txns []*model.Transaction, members []*model.Member) Passbook {
	var own []*model.Transaction
	for _, t := range sortedByDate(txns) {
		if t.MemberID == member.ID {
			own = append(own, t)
		}
	}

	balance := ComputeBalances(own).For(member.ID)
	states, _ := LoanStates(own)
	share := c.Share(member, txns, members)

	return Passbook{
		Member:         member,
		Transactions:   own,
		Loans:          SortedLoanStates(states),
		DepositBalance: balance.DepositBalance,
		LoanBalance:    balance.LoanBalance,
		InterestShare:  share,
		GrandTotal:     balance.DepositBalance.Add(share),
	}
}
