package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionLoan       TransactionType = "loan"
	TransactionRepayment  TransactionType = "repayment"
	TransactionExpense    TransactionType = "expense"
	TransactionLoanWaived TransactionType = "loan-waived"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionLoan, TransactionRepayment, TransactionExpense, TransactionLoanWaived:
		return true
	}
	return false
}

// LoanStatus is only ever written by loan status recomputation.
type LoanStatus string

const (
	LoanStatusActive LoanStatus = "active"
	LoanStatusClosed LoanStatus = "closed"
)

type Transaction struct {
	ID           string          `json:"id"`
	GroupID      string          `json:"-"`
	MemberID     string          `json:"member_id"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description,omitempty"`
	Principal    decimal.Decimal `json:"principal"`
	Interest     decimal.Decimal `json:"interest"`
	LoanID       string          `json:"loan_id,omitempty"`
	Status       LoanStatus      `json:"status,omitempty"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LoanKey identifies the loan a loan or repayment belongs to.
func (t *Transaction) LoanKey() string {
	if t.Type == TransactionLoan && t.LoanID == "" {
		return t.ID
	}
	return t.LoanID
}

type TransactionCreateRequest struct {
	MemberID     string          `json:"member_id" validate:"required,max=64"`
	Type         TransactionType `json:"type" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description" validate:"max=500"`
	Principal    decimal.Decimal `json:"principal"`
	Interest     decimal.Decimal `json:"interest"`
	LoanID       string          `json:"loan_id"`
	InterestRate decimal.Decimal `json:"interest_rate"`
}

func (p *TransactionCreateRequest) Validate() error {
	p.MemberID = strings.TrimSpace(p.MemberID)
	p.Description = strings.TrimSpace(p.Description)
	if err := validateStruct(p); err != nil {
		return err
	}
	if !p.Type.Valid() {
		return NewValidationError("type", "must be one of deposit, loan, repayment, expense, loan-waived")
	}

	if p.Type == TransactionRepayment {
		if p.Amount.IsZero() {
			p.Amount = p.Principal.Add(p.Interest)
		}
		if p.LoanID == "" {
			return NewValidationError("loan_id", "is required for repayments")
		}
		if err := validateSplit(p.Amount, p.Principal, p.Interest); err != nil {
			return err
		}
	} else if !p.Principal.IsZero() || !p.Interest.IsZero() {
		return NewValidationError("principal", "principal and interest are only allowed on repayments")
	}

	if !p.Amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	if !p.InterestRate.IsZero() {
		if p.Type != TransactionLoan {
			return NewValidationError("interest_rate", "is only allowed on loans")
		}
		if p.InterestRate.IsNegative() {
			return NewValidationError("interest_rate", "must not be negative")
		}
	}
	if p.Type == TransactionLoan && p.LoanID != "" {
		return NewValidationError("loan_id", "is assigned by the ledger for loans")
	}
	return nil
}

func (p TransactionCreateRequest) ToTransaction(now time.Time) *Transaction {
	date := p.Date
	if date.IsZero() {
		date = now
	}
	t := &Transaction{
		MemberID:     p.MemberID,
		Type:         p.Type,
		Amount:       p.Amount,
		Date:         date,
		Description:  p.Description,
		Principal:    p.Principal,
		Interest:     p.Interest,
		InterestRate: p.InterestRate,
	}
	switch p.Type {
	case TransactionLoan:
		t.Status = LoanStatusActive
	case TransactionRepayment, TransactionLoanWaived:
		t.LoanID = p.LoanID
	}
	return t
}

// RepaymentRequest records a repayment against a known loan. A zero amount
// means principal + interest.
type RepaymentRequest struct {
	LoanID      string          `json:"loan_id" validate:"required"`
	Principal   decimal.Decimal `json:"principal"`
	Interest    decimal.Decimal `json:"interest"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description" validate:"max=500"`
}

func (p *RepaymentRequest) Validate() error {
	p.Description = strings.TrimSpace(p.Description)
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.Amount.IsZero() {
		p.Amount = p.Principal.Add(p.Interest)
	}
	if err := validateSplit(p.Amount, p.Principal, p.Interest); err != nil {
		return err
	}
	if !p.Amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	return nil
}

// TransactionUpdateRequest edits an existing transaction; nil means unchanged.
// Type, member and loan reference are fixed once recorded.
type TransactionUpdateRequest struct {
	Amount       *decimal.Decimal `json:"amount"`
	Date         *time.Time       `json:"date"`
	Description  *string          `json:"description" validate:"omitempty,max=500"`
	Principal    *decimal.Decimal `json:"principal"`
	Interest     *decimal.Decimal `json:"interest"`
	InterestRate *decimal.Decimal `json:"interest_rate"`
}

func (p *TransactionUpdateRequest) Validate() error {
	return validateStruct(p)
}

// Apply edits t in place and validates the result. A repayment whose split
// changes without an explicit amount takes principal + interest as amount.
func (p TransactionUpdateRequest) Apply(t *Transaction) error {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}

	if t.Type == TransactionRepayment {
		if p.Principal != nil {
			t.Principal = *p.Principal
		}
		if p.Interest != nil {
			t.Interest = *p.Interest
		}
		if p.Amount != nil {
			t.Amount = *p.Amount
		} else if p.Principal != nil || p.Interest != nil {
			t.Amount = t.Principal.Add(t.Interest)
		}
		if err := validateSplit(t.Amount, t.Principal, t.Interest); err != nil {
			return err
		}
	} else {
		if p.Principal != nil || p.Interest != nil {
			return NewValidationError("principal", "principal and interest are only allowed on repayments")
		}
		if p.Amount != nil {
			t.Amount = *p.Amount
		}
	}

	if p.InterestRate != nil {
		if t.Type != TransactionLoan {
			return NewValidationError("interest_rate", "is only allowed on loans")
		}
		if p.InterestRate.IsNegative() {
			return NewValidationError("interest_rate", "must not be negative")
		}
		t.InterestRate = *p.InterestRate
	}

	if !t.Amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	return nil
}

// validateSplit enforces amount == principal + interest with both parts non-negative.
func validateSplit(amount, principal, interest decimal.Decimal) error {
	if principal.IsNegative() {
		return NewValidationError("principal", "must not be negative")
	}
	if interest.IsNegative() {
		return NewValidationError("interest", "must not be negative")
	}
	if !principal.Add(interest).Equal(amount) {
		return NewValidationError("amount", "must equal principal + interest")
	}
	return nil
}

// TransactionFilter controls List queries.
type TransactionFilter struct {
	MemberID *string
	Types    []TransactionType
	LoanID   *string
	From     *time.Time // inclusive
	To       *time.Time // exclusive
	Limit    int        // default 50
	Offset   int
	Desc     bool // order by date
}
