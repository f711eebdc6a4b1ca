package services

import "github.com/shambhoomaddheshiya/yuva-finance/internal/model"

// Rule violations. All of them match model.ErrValidation.
var (
	ErrUnknownMember      = model.NewValidationError("member_id", "member not found")
	ErrMemberClosed       = model.NewValidationError("member_id", "member account is closed")
	ErrOutstandingLoan    = model.NewValidationError("member_id", "member has an outstanding loan balance")
	ErrInvalidTransition  = model.NewValidationError("status", "status change not allowed")
	ErrLoanNotFound       = model.NewValidationError("loan_id", "loan not found")
	ErrLoanMemberMismatch = model.NewValidationError("loan_id", "loan belongs to another member")
	ErrNotRepayment       = model.NewValidationError("id", "transaction is not a repayment")
	ErrMemberIDTaken      = model.NewValidationError("id", "member id already exists")
)
