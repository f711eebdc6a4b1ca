package ledger

import "fmt"

type WarningKind string

const (
	WarningOrphanRepayment     WarningKind = "orphan-repayment"
	WarningUnknownMember       WarningKind = "unknown-member"
	WarningNegativeLoanBalance WarningKind = "negative-loan-balance"
)

// Warning flags an inconsistency in the stored data. Computation carries on
// and treats the offending row as contributing nothing.
type Warning struct {
	Kind          WarningKind `json:"kind"`
	TransactionID string      `json:"transaction_id,omitempty"`
	MemberID      string      `json:"member_id,omitempty"`
	LoanID        string      `json:"loan_id,omitempty"`
	Message       string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

func orphanWarning(txnID, memberID, loanID string) Warning {
	msg := fmt.Sprintf("repayment %s references missing loan %q", txnID, loanID)
	if loanID == "" {
		msg = fmt.Sprintf("repayment %s has no loan reference", txnID)
	}
	return Warning{
		Kind:          WarningOrphanRepayment,
		TransactionID: txnID,
		MemberID:      memberID,
		LoanID:        loanID,
		Message:       msg,
	}
}
