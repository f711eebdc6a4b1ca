package services

import (
	"context"
	"testing"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/repository"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/pg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ledgerFixture struct {
	ctx      context.Context
	db       *pg.DB
	members  *repository.MemberRepository
	txns     *repository.TransactionRepository
	settings *repository.SettingsRepository
}

// setupLedger opens an in-memory sqlite ledger scoped to one group.
func setupLedger(t *testing.T) *ledgerFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.AutoMigrate(db))

	store := pg.New(db, db)
	return &ledgerFixture{
		ctx:      model.WithGroup(context.Background(), "group-1"),
		db:       store,
		members:  repository.NewMemberRepository(store),
		txns:     repository.NewTransactionRepository(store),
		settings: repository.NewSettingsRepository(store),
	}
}

func (f *ledgerFixture) addMember(t *testing.T, id string, status model.MemberStatus) *model.Member {
	m, err := f.members.Create(f.ctx, &model.Member{
		ID:       id,
		Name:     "Member " + id,
		JoinDate: day(2023, 1, 1),
		Status:   status,
	})
	require.NoError(t, err)
	return m
}

func (f *ledgerFixture) add(t *testing.T, txn *model.Transaction) *model.Transaction {
	created, err := f.txns.Create(f.ctx, txn)
	require.NoError(t, err)
	return created
}

func (f *ledgerFixture) deposit(t *testing.T, memberID, amount string, date time.Time) *model.Transaction {
	return f.add(t, &model.Transaction{MemberID: memberID, Type: model.TransactionDeposit, Amount: dec(amount), Date: date})
}

func (f *ledgerFixture) loan(t *testing.T, memberID, amount string, date time.Time) *model.Transaction {
	return f.add(t, &model.Transaction{MemberID: memberID, Type: model.TransactionLoan, Amount: dec(amount), Date: date})
}

func (f *ledgerFixture) loanStatus(t *testing.T, loanID string) model.LoanStatus {
	l, err := f.txns.Get(f.ctx, loanID)
	require.NoError(t, err)
	return l.Status
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), append([]any{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}
