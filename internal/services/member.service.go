package services

import (
	"context"
	"errors"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/repository"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
)

type MemberRepository interface {
	Create(ctx context.Context, m *model.Member) (*model.Member, error)
	Get(ctx context.Context, id string) (*model.Member, error)
	List(ctx context.Context) ([]*model.Member, error)
	Update(ctx context.Context, m *model.Member) error
	UpdateStatus(ctx context.Context, id string, status model.MemberStatus) error
	Delete(ctx context.Context, id string) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type MemberTransactions interface {
	ListByMember(ctx context.Context, memberID string) ([]*model.Transaction, error)
	ReassignMember(ctx context.Context, fromID, toID string) (int64, error)
}

type RenameResult struct {
	Member            *model.Member `json:"member"`
	MovedTransactions int64         `json:"moved_transactions"`
}

// MemberService manages the member registry. Balances are always derived
// from the member's transactions, never stored.
type MemberService struct {
	memberRepo MemberRepository
	txnRepo    MemberTransactions
	now        func() time.Time
}

func NewMemberService(memberRepo MemberRepository, txnRepo MemberTransactions) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		txnRepo:    txnRepo,
		now:        time.Now,
	}
}

func (s *MemberService) Create(ctx context.Context, p model.MemberCreateRequest) (*model.Member, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m, err := s.memberRepo.Create(ctx, p.ToMember(s.now()))
	if errors.Is(err, repository.ErrDuplicateMember) {
		return nil, ErrMemberIDTaken
	}
	if err != nil {
		return nil, err
	}
	logger.Info("member created", "group", model.GroupFromContext(ctx), "member_id", m.ID)
	return m, nil
}

func (s *MemberService) Get(ctx context.Context, id string) (*model.Member, error) {
	return s.memberRepo.Get(ctx, id)
}

func (s *MemberService) List(ctx context.Context) ([]*model.Member, error) {
	return s.memberRepo.List(ctx)
}

// Balance derives the deposit and loan balance of a member.
func (s *MemberService) Balance(ctx context.Context, id string) (ledger.MemberBalance, error) {
	txns, err := s.txnRepo.ListByMember(ctx, id)
	if err != nil {
		return ledger.MemberBalance{}, err
	}
	return ledger.ComputeBalances(txns).For(id), nil
}

func (s *MemberService) Update(ctx context.Context, id string, p model.MemberUpdateRequest) (*model.Member, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m, err := s.memberRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status == model.MemberStatusClosed {
		return nil, ErrMemberClosed
	}
	p.Apply(m)
	if err := s.memberRepo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ChangeStatus moves a member between active and inactive freely. Closing
// requires a settled loan balance and cannot be undone.
func (s *MemberService) ChangeStatus(ctx context.Context, id string, status model.MemberStatus) (*model.Member, error) {
	var updated *model.Member
	err := s.memberRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.memberRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if !m.Status.CanTransitionTo(status) {
			return ErrInvalidTransition
		}
		if status == model.MemberStatusClosed && m.Status != model.MemberStatusClosed {
			if err := s.requireSettled(ctx, id); err != nil {
				return err
			}
		}
		if err := s.memberRepo.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		m.Status = status
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("member status changed", "group", model.GroupFromContext(ctx), "member_id", id, "status", status)
	return updated, nil
}

// Delete removes a member whose loan balance is exactly zero. Its transactions stay in
// the ledger and show up as an unknown member from then on.
func (s *MemberService) Delete(ctx context.Context, id string) error {
	return s.memberRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.memberRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if m.Status == model.MemberStatusClosed {
			return ErrMemberClosed
		}
		if err := s.requireSettled(ctx, id); err != nil {
			return err
		}
		return s.memberRepo.Delete(ctx, id)
	})
}

// Rename gives a member a new id and moves every transaction along in the
// same store transaction, so balances are unchanged.
func (s *MemberService) Rename(ctx context.Context, id string, p model.MemberRenameRequest) (*RenameResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	result := &RenameResult{}
	err := s.memberRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.memberRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if m.Status == model.MemberStatusClosed {
			return ErrMemberClosed
		}
		if p.NewID == id {
			result.Member = m
			return nil
		}

		renamed := *m
		renamed.ID = p.NewID
		created, err := s.memberRepo.Create(ctx, &renamed)
		if errors.Is(err, repository.ErrDuplicateMember) {
			return ErrMemberIDTaken
		}
		if err != nil {
			return err
		}
		moved, err := s.txnRepo.ReassignMember(ctx, id, p.NewID)
		if err != nil {
			return err
		}
		if err := s.memberRepo.Delete(ctx, id); err != nil {
			return err
		}
		result.Member = created
		result.MovedTransactions = moved
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("member renamed", "group", model.GroupFromContext(ctx), "from", id, "to", p.NewID, "transactions", result.MovedTransactions)
	return result, nil
}

func (s *MemberService) requireSettled(ctx context.Context, id string) error {
	balance, err := s.Balance(ctx, id)
	if err != nil {
		return err
	}
	if !balance.LoanBalance.IsZero() {
		return ErrOutstandingLoan
	}
	return nil
}
