package services

import (
	"context"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/prom"
	"github.com/shopspring/decimal"
)

type LedgerReader interface {
	ListAll(ctx context.Context) ([]*model.Transaction, error)
}

type MemberReader interface {
	Get(ctx context.Context, id string) (*model.Member, error)
	List(ctx context.Context) ([]*model.Member, error)
}

type SummaryResult struct {
	Summary  ledger.Summary   `json:"summary"`
	Warnings []ledger.Warning `json:"warnings,omitempty"`
}

// MemberStanding is a member's derived position in the group.
type MemberStanding struct {
	ledger.MemberBalance
	Name          string             `json:"name"`
	Status        model.MemberStatus `json:"status"`
	InterestShare decimal.Decimal    `json:"interest_share"`
	GrandTotal    decimal.Decimal    `json:"grand_total"`
}

type BalancesResult struct {
	Members  []MemberStanding `json:"members"`
	Warnings []ledger.Warning `json:"warnings,omitempty"`
}

type MonthlyResult struct {
	Months   []ledger.MonthTotals `json:"months"`
	Warnings []ledger.Warning     `json:"warnings,omitempty"`
}

// SummaryService recomputes every aggregate from the full ledger on each
// call. Nothing is cached.
type SummaryService struct {
	txnRepo    LedgerReader
	memberRepo MemberReader
	calc       ledger.InterestCalculator
}

func NewSummaryService(txnRepo LedgerReader, memberRepo MemberReader, policy ledger.DivisorPolicy) *SummaryService {
	return &SummaryService{
		txnRepo:    txnRepo,
		memberRepo: memberRepo,
		calc:       ledger.NewInterestCalculator(policy),
	}
}

func (s *SummaryService) Summary(ctx context.Context, period ledger.Period) (*SummaryResult, error) {
	defer observe("summary", time.Now())
	txns, members, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	summary, warnings := ledger.ComputeGroupSummary(txns, members, period)
	reportWarnings(ctx, warnings)
	return &SummaryResult{Summary: summary, Warnings: warnings}, nil
}

func (s *SummaryService) Monthly(ctx context.Context) (*MonthlyResult, error) {
	defer observe("monthly", time.Now())
	txns, members, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	months, warnings := ledger.MonthlyBreakdown(txns, members)
	reportWarnings(ctx, warnings)
	return &MonthlyResult{Months: months, Warnings: warnings}, nil
}

// Balances lists every registered member with derived balances and interest
// share. Negative loan balances are flagged.
func (s *SummaryService) Balances(ctx context.Context) (*BalancesResult, error) {
	defer observe("balances", time.Now())
	txns, members, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	balances := ledger.ComputeBalances(txns)
	shares := s.calc.Shares(txns, members)
	result := &BalancesResult{Members: make([]MemberStanding, 0, len(members))}
	for _, m := range members {
		b := balances.For(m.ID)
		result.Members = append(result.Members, MemberStanding{
			MemberBalance: b,
			Name:          m.Name,
			Status:        m.Status,
			InterestShare: shares[m.ID],
			GrandTotal:    b.DepositBalance.Add(shares[m.ID]),
		})
	}
	result.Warnings = balances.NegativeLoans()
	reportWarnings(ctx, result.Warnings)
	return result, nil
}

func (s *SummaryService) Passbook(ctx context.Context, memberID string) (*ledger.Passbook, error) {
	defer observe("passbook", time.Now())
	member, err := s.memberRepo.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	txns, members, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	pb := s.calc.Passbook(member, txns, members)
	return &pb, nil
}

func (s *SummaryService) Report(ctx context.Context, period ledger.Period) (*ledger.Report, error) {
	defer observe("report", time.Now())
	txns, members, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	report := ledger.BuildReport(txns, members, period)
	reportWarnings(ctx, report.Warnings)
	return &report, nil
}

func (s *SummaryService) load(ctx context.Context) ([]*model.Transaction, []*model.Member, error) {
	txns, err := s.txnRepo.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.memberRepo.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return txns, members, nil
}

func observe(view string, start time.Time) {
	prom.ObserveSummaryDuration(view, time.Since(start).Seconds())
}
