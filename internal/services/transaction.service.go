package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/repository"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/prom"
	"github.com/shopspring/decimal"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *model.Transaction) (*model.Transaction, error)
	Get(ctx context.Context, id string) (*model.Transaction, error)
	Update(ctx context.Context, t *model.Transaction) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) // results, totalCount
	ListAll(ctx context.Context) ([]*model.Transaction, error)
	ListRepayments(ctx context.Context, loanID string) ([]*model.Transaction, error)
	UpdateLoanStatus(ctx context.Context, loanID string, status model.LoanStatus) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type MemberLookup interface {
	Get(ctx context.Context, id string) (*model.Member, error)
}

// LoanOutcome describes what a write did to the loan it touched.
type LoanOutcome struct {
	LoanID          string           `json:"loan_id"`
	Previous        model.LoanStatus `json:"previous_status,omitempty"`
	Status          model.LoanStatus `json:"status,omitempty"`
	PrincipalRepaid decimal.Decimal  `json:"principal_repaid"`
	Outstanding     decimal.Decimal  `json:"outstanding"`
	Reopened        bool             `json:"reopened"`
	Closed          bool             `json:"closed"`
	Orphaned        bool             `json:"orphaned"`
}

type TransactionResult struct {
	Transaction *model.Transaction `json:"transaction"`
	Loan        *LoanOutcome       `json:"loan,omitempty"`
}

type DeleteResult struct {
	Deleted            *model.Transaction `json:"deleted"`
	Loan               *LoanOutcome       `json:"loan,omitempty"`
	OrphanedRepayments int                `json:"orphaned_repayments,omitempty"`
}

type ReconcileResult struct {
	Transitions []ledger.Transition `json:"transitions"`
	Warnings    []ledger.Warning    `json:"warnings,omitempty"`
}

// TransactionService records ledger writes and keeps every loan's persisted
// status equal to the status derived from its repayments. Each write and its
// status update share one store transaction.
type TransactionService struct {
	txnRepo    TransactionRepository
	memberRepo MemberLookup
	now        func() time.Time
}

func NewTransactionService(txnRepo TransactionRepository, memberRepo MemberLookup) *TransactionService {
	return &TransactionService{
		txnRepo:    txnRepo,
		memberRepo: memberRepo,
		now:        time.Now,
	}
}

func (s *TransactionService) Create(ctx context.Context, p model.TransactionCreateRequest) (*TransactionResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.writableMember(ctx, p.MemberID); err != nil {
		return nil, err
	}

	txn := p.ToTransaction(s.now())
	result := &TransactionResult{}
	err := s.txnRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if txn.LoanID != "" {
			if _, err := s.loadLoan(ctx, txn.LoanID, txn.MemberID); err != nil {
				return err
			}
		}

		created, err := s.txnRepo.Create(ctx, txn)
		if err != nil {
			return err
		}
		result.Transaction = created

		if created.Type == model.TransactionRepayment {
			result.Loan, err = s.recomputeLoan(ctx, created.LoanID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	prom.IncTransactionRecorded(string(txn.Type))
	logger.Debug("transaction recorded", "id", result.Transaction.ID, "type", txn.Type, "member_id", txn.MemberID)
	return result, nil
}

// RecordRepayment appends a repayment to loanID and re-derives the loan status.
// A split that does not add up to the amount is rejected before any write.
func (s *TransactionService) RecordRepayment(ctx context.Context, p model.RepaymentRequest) (*TransactionResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	result := &TransactionResult{}
	err := s.txnRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		loan, err := s.loadLoan(ctx, p.LoanID, "")
		if err != nil {
			return err
		}
		if _, err := s.writableMember(ctx, loan.MemberID); err != nil {
			return err
		}

		date := p.Date
		if date.IsZero() {
			date = s.now()
		}
		created, err := s.txnRepo.Create(ctx, &model.Transaction{
			MemberID:    loan.MemberID,
			Type:        model.TransactionRepayment,
			Amount:      p.Amount,
			Principal:   p.Principal,
			Interest:    p.Interest,
			LoanID:      loan.ID,
			Date:        date,
			Description: p.Description,
		})
		if err != nil {
			return err
		}
		result.Transaction = created
		result.Loan, err = s.recomputeLoan(ctx, loan.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	prom.IncTransactionRecorded(string(model.TransactionRepayment))
	return result, nil
}

// EditRepayment replaces the split of a repayment; its amount becomes
// principal + interest.
func (s *TransactionService) EditRepayment(ctx context.Context, id string, principal, interest decimal.Decimal) (*TransactionResult, error) {
	return s.update(ctx, id, model.TransactionUpdateRequest{Principal: &principal, Interest: &interest}, true)
}

func (s *TransactionService) Update(ctx context.Context, id string, p model.TransactionUpdateRequest) (*TransactionResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, id, p, false)
}

func (s *TransactionService) update(ctx context.Context, id string, p model.TransactionUpdateRequest, repaymentOnly bool) (*TransactionResult, error) {
	result := &TransactionResult{}
	err := s.txnRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.txnRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if repaymentOnly && txn.Type != model.TransactionRepayment {
			return ErrNotRepayment
		}
		if err := p.Apply(txn); err != nil {
			return err
		}
		if err := s.txnRepo.Update(ctx, txn); err != nil {
			return err
		}
		result.Transaction = txn

		// a loan's amount and a repayment's principal both move the loan status
		if txn.Type == model.TransactionRepayment || txn.Type == model.TransactionLoan {
			result.Loan, err = s.recomputeLoan(ctx, txn.LoanKey())
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteRepayment removes a repayment and re-derives its loan, which may
// reopen a closed loan.
func (s *TransactionService) DeleteRepayment(ctx context.Context, id string) (*DeleteResult, error) {
	return s.delete(ctx, id, true)
}

// Delete removes any transaction. Deleting a loan leaves its repayments as
// orphans, which are reported.
func (s *TransactionService) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	return s.delete(ctx, id, false)
}

func (s *TransactionService) delete(ctx context.Context, id string, repaymentOnly bool) (*DeleteResult, error) {
	result := &DeleteResult{}
	var orphans []ledger.Warning
	err := s.txnRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.txnRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if repaymentOnly && txn.Type != model.TransactionRepayment {
			return ErrNotRepayment
		}
		if err := s.txnRepo.Delete(ctx, id); err != nil {
			return err
		}
		result.Deleted = txn

		switch txn.Type {
		case model.TransactionRepayment:
			result.Loan, err = s.recomputeLoan(ctx, txn.LoanID)
			return err
		case model.TransactionLoan:
			repayments, err := s.txnRepo.ListRepayments(ctx, txn.LoanKey())
			if err != nil {
				return err
			}
			result.OrphanedRepayments = len(repayments)
			for _, r := range repayments {
				orphans = append(orphans, ledger.Warning{
					Kind:          ledger.WarningOrphanRepayment,
					TransactionID: r.ID,
					MemberID:      r.MemberID,
					LoanID:        txn.LoanKey(),
					Message:       fmt.Sprintf("loan %s was deleted while repayment %s still references it", txn.LoanKey(), r.ID),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reportWarnings(ctx, orphans)
	return result, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (*model.Transaction, error) {
	return s.txnRepo.Get(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	return s.txnRepo.List(ctx, f)
}

// Loans derives the state of every loan of the group, oldest first.
func (s *TransactionService) Loans(ctx context.Context) ([]ledger.LoanState, []ledger.Warning, error) {
	txns, err := s.txnRepo.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	states, warnings := ledger.LoanStates(txns)
	reportWarnings(ctx, warnings)
	return ledger.SortedLoanStates(states), warnings, nil
}

// ReconcileLoans re-derives every loan from scratch and persists the
// corrections. A second run right after the first changes nothing.
func (s *TransactionService) ReconcileLoans(ctx context.Context) (*ReconcileResult, error) {
	result := &ReconcileResult{}
	err := s.txnRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		txns, err := s.txnRepo.ListAll(ctx)
		if err != nil {
			return err
		}
		transitions, warnings := ledger.Reconcile(txns)
		for _, tr := range transitions {
			if err := s.persistTransition(ctx, tr); err != nil {
				return err
			}
		}
		result.Transitions = transitions
		result.Warnings = warnings
		return nil
	})
	if err != nil {
		return nil, err
	}

	reportWarnings(ctx, result.Warnings)
	logger.Info("loans reconciled", "group", model.GroupFromContext(ctx), "corrections", len(result.Transitions))
	return result, nil
}

// recomputeLoan derives the loan's status from its stored repayments and
// writes it back when it changed. A missing loan yields an orphaned outcome.
func (s *TransactionService) recomputeLoan(ctx context.Context, loanID string) (*LoanOutcome, error) {
	orphaned := func() (*LoanOutcome, error) {
		reportWarnings(ctx, []ledger.Warning{{
			Kind:    ledger.WarningOrphanRepayment,
			LoanID:  loanID,
			Message: fmt.Sprintf("repayment references missing loan %q", loanID),
		}})
		return &LoanOutcome{LoanID: loanID, Orphaned: true}, nil
	}
	if loanID == "" {
		return orphaned()
	}
	loan, err := s.txnRepo.Get(ctx, loanID)
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return orphaned()
	}
	if err != nil {
		return nil, err
	}
	if loan.Type != model.TransactionLoan {
		return orphaned()
	}

	repayments, err := s.txnRepo.ListRepayments(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	state := ledger.StateOf(loan, repayments)
	tr := ledger.TransitionOf(state)
	if tr.Changed() {
		if err := s.persistTransition(ctx, tr); err != nil {
			return nil, err
		}
	}

	return &LoanOutcome{
		LoanID:          state.LoanID,
		Previous:        tr.From,
		Status:          tr.To,
		PrincipalRepaid: state.PrincipalRepaid,
		Outstanding:     state.Outstanding,
		Reopened:        tr.Reopened(),
		Closed:          tr.Closed(),
	}, nil
}

func (s *TransactionService) persistTransition(ctx context.Context, tr ledger.Transition) error {
	if err := s.txnRepo.UpdateLoanStatus(ctx, tr.LoanID, tr.To); err != nil {
		return err
	}
	prom.IncLoanTransition(tr.Name())
	if tr.Reopened() {
		logger.Warn("loan reopened", "group", model.GroupFromContext(ctx), "loan_id", tr.LoanID, "member_id", tr.MemberID)
	} else {
		logger.Info("loan status changed", "loan_id", tr.LoanID, "from", tr.From, "to", tr.To)
	}
	return nil
}

// loadLoan fetches loanID and checks it is a loan, owned by memberID when given.
func (s *TransactionService) loadLoan(ctx context.Context, loanID, memberID string) (*model.Transaction, error) {
	loan, err := s.txnRepo.Get(ctx, loanID)
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	if loan.Type != model.TransactionLoan {
		return nil, ErrLoanNotFound
	}
	if memberID != "" && loan.MemberID != memberID {
		return nil, ErrLoanMemberMismatch
	}
	return loan, nil
}

// writableMember returns the member if it may receive new transactions.
func (s *TransactionService) writableMember(ctx context.Context, id string) (*model.Member, error) {
	m, err := s.memberRepo.Get(ctx, id)
	if errors.Is(err, repository.ErrMemberNotFound) {
		return nil, ErrUnknownMember
	}
	if err != nil {
		return nil, err
	}
	if m.Status == model.MemberStatusClosed {
		return nil, ErrMemberClosed
	}
	return m, nil
}
