package ledger

import (
	"sort"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shopspring/decimal"
)

// DeriveLoanStatus returns closed once the repaid principal covers the loan
// amount and active otherwise, whatever the status was before.
func DeriveLoanStatus(amount, principalRepaid decimal.Decimal) model.LoanStatus {
	if principalRepaid.GreaterThanOrEqual(amount) {
		return model.LoanStatusClosed
	}
	return model.LoanStatusActive
}

type LoanState struct {
	LoanID          string           `json:"loan_id"`
	MemberID        string           `json:"member_id"`
	Date            time.Time        `json:"date"`
	Amount          decimal.Decimal  `json:"amount"`
	PrincipalRepaid decimal.Decimal  `json:"principal_repaid"`
	InterestPaid    decimal.Decimal  `json:"interest_paid"`
	Outstanding     decimal.Decimal  `json:"outstanding"`
	Repayments      int              `json:"repayments"`
	StoredStatus    model.LoanStatus `json:"stored_status,omitempty"`
	Status          model.LoanStatus `json:"status"`
}

// Drifted reports whether the persisted status disagrees with the derived one.
func (s LoanState) Drifted() bool {
	return s.StoredStatus != s.Status
}

// StateOf derives the state of one loan from the repayments that reference
// it. Repayments of other loans are ignored.
func StateOf(loan *model.Transaction, repayments []*model.Transaction) LoanState {
	s := newLoanState(loan)
	for _, r := range repayments {
		if r == nil || r.Type != model.TransactionRepayment || r.LoanID != s.LoanID {
			continue
		}
		s.apply(r)
	}
	s.finish()
	return s
}

// LoanStates derives every loan found in txns, keyed by loan id. Repayments
// whose loan is missing come back as orphan-repayment warnings.
func LoanStates(txns []*model.Transaction) (map[string]LoanState, []Warning) {
	states := make(map[string]LoanState)
	for _, t := range txns {
		if t != nil && t.Type == model.TransactionLoan {
			states[t.LoanKey()] = newLoanState(t)
		}
	}

	var warnings []Warning
	for _, t := range sortedByDate(txns) {
		if t.Type != model.TransactionRepayment {
			continue
		}
		s, ok := states[t.LoanID]
		if !ok || t.LoanID == "" {
			warnings = append(warnings, orphanWarning(t.ID, t.MemberID, t.LoanID))
			continue
		}
		s.apply(t)
		states[t.LoanID] = s
	}

	for id, s := range states {
		s.finish()
		states[id] = s
	}
	return states, warnings
}

// SortedLoanStates returns the loan states ordered by date then loan id.
func SortedLoanStates(states map[string]LoanState) []LoanState {
	out := make([]LoanState, 0, len(states))
	for _, s := range states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].LoanID < out[j].LoanID
	})
	return out
}

// Transition is a change of persisted loan status.
type Transition struct {
	LoanID   string           `json:"loan_id"`
	MemberID string           `json:"member_id"`
	From     model.LoanStatus `json:"from"`
	To       model.LoanStatus `json:"to"`
}

func (t Transition) Changed() bool {
	return t.From != t.To
}

// Reopened is a closed loan going back to active after its repaid principal
// dropped below the amount.
func (t Transition) Reopened() bool {
	return t.From == model.LoanStatusClosed && t.To == model.LoanStatusActive
}

func (t Transition) Closed() bool {
	return t.From != model.LoanStatusClosed && t.To == model.LoanStatusClosed
}

// Name labels the transition for logs and metrics.
func (t Transition) Name() string {
	switch {
	case t.Reopened():
		return "reopened"
	case t.Closed():
		return "closed"
	case !t.Changed():
		return "unchanged"
	default:
		return "corrected"
	}
}

func TransitionOf(s LoanState) Transition {
	return Transition{LoanID: s.LoanID, MemberID: s.MemberID, From: s.StoredStatus, To: s.Status}
}

// Reconcile compares every stored loan status with the derived one and
// returns the transitions needed to repair drift, ordered by loan id.
// Running it on its own output yields nothing.
func Reconcile(txns []*model.Transaction) ([]Transition, []Warning) {
	states, warnings := LoanStates(txns)
	var transitions []Transition
	for _, s := range states {
		if s.Drifted() {
			transitions = append(transitions, TransitionOf(s))
		}
	}
	sort.Slice(transitions, func(i, j int) bool { return transitions[i].LoanID < transitions[j].LoanID })
	return transitions, warnings
}

func newLoanState(loan *model.Transaction) LoanState {
	return LoanState{
		LoanID:       loan.LoanKey(),
		MemberID:     loan.MemberID,
		Date:         loan.Date,
		Amount:       loan.Amount,
		StoredStatus: loan.Status,
	}
}

func (s *LoanState) apply(r *model.Transaction) {
	s.PrincipalRepaid = s.PrincipalRepaid.Add(r.Principal)
	s.InterestPaid = s.InterestPaid.Add(r.Interest)
	s.Repayments++
}

func (s *LoanState) finish() {
	s.Outstanding = s.Amount.Sub(s.PrincipalRepaid)
	s.Status = DeriveLoanStatus(s.Amount, s.PrincipalRepaid)
}
