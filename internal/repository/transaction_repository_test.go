package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTransactionRepository_LoanLifecycle(t *testing.T) {
	repo := NewTransactionRepository(setupTestDB(t).DB)
	ctx := groupCtx("treasurer-1")

	loan, err := repo.Create(ctx, &model.Transaction{
		MemberID:     "A",
		Type:         model.TransactionLoan,
		Amount:       dec("500"),
		Date:         day(2024, 2, 1),
		InterestRate: dec("2"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, loan.ID)
	assert.Equal(t, loan.ID, loan.LoanID, "a loan references itself")
	assert.Equal(t, model.LoanStatusActive, loan.Status)

	_, err = repo.Create(ctx, &model.Transaction{
		MemberID:  "A",
		Type:      model.TransactionRepayment,
		Amount:    dec("550"),
		Principal: dec("500"),
		Interest:  dec("50"),
		LoanID:    loan.ID,
		Date:      day(2024, 3, 1),
	})
	require.NoError(t, err)

	repayments, err := repo.ListRepayments(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, repayments, 1)
	assert.True(t, repayments[0].Principal.Equal(dec("500")))
	assert.True(t, repayments[0].Interest.Equal(dec("50")))
	assert.Empty(t, string(repayments[0].Status))

	require.NoError(t, repo.UpdateLoanStatus(ctx, loan.ID, model.LoanStatusClosed))
	got, err := repo.Get(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanStatusClosed, got.Status)

	assert.ErrorIs(t, repo.UpdateLoanStatus(ctx, repayments[0].ID, model.LoanStatusClosed), ErrTransactionNotFound)
}

func TestTransactionRepository_UpdateAndDelete(t *testing.T) {
	repo := NewTransactionRepository(setupTestDB(t).DB)
	ctx := groupCtx("treasurer-1")

	created, err := repo.Create(ctx, &model.Transaction{
		MemberID: "A",
		Type:     model.TransactionDeposit,
		Amount:   dec("100"),
		Date:     day(2024, 1, 1),
	})
	require.NoError(t, err)

	created.Amount = dec("150.25")
	created.Description = "corrected"
	require.NoError(t, repo.Update(ctx, created))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(dec("150.25")), got.Amount.String())
	assert.Equal(t, "corrected", got.Description)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrTransactionNotFound)
}

func TestTransactionRepository_ListAndReassign(t *testing.T) {
	repo := NewTransactionRepository(setupTestDB(t).DB)
	ctx := groupCtx("treasurer-1")
	other := groupCtx("treasurer-2")

	batch, err := repo.CreateBatch(ctx, []*model.Transaction{
		{MemberID: "A", Type: model.TransactionDeposit, Amount: dec("100"), Date: day(2024, 1, 3)},
		{MemberID: "B", Type: model.TransactionDeposit, Amount: dec("200"), Date: day(2024, 1, 1)},
		{MemberID: "A", Type: model.TransactionExpense, Amount: dec("20"), Date: day(2024, 1, 2)},
	})
	require.NoError(t, err)
	require.Len(t, batch, 3)
	for _, txn := range batch {
		assert.NotEmpty(t, txn.ID)
	}

	_, err = repo.Create(other, &model.Transaction{MemberID: "A", Type: model.TransactionDeposit, Amount: dec("999"), Date: day(2024, 1, 1)})
	require.NoError(t, err)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "B", all[0].MemberID, "oldest first")

	memberA := "A"
	page, total, err := repo.List(ctx, model.TransactionFilter{
		MemberID: &memberA,
		Types:    []model.TransactionType{model.TransactionDeposit},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	assert.True(t, page[0].Amount.Equal(dec("100")))

	moved, err := repo.ReassignMember(ctx, "A", "A-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	byNew, err := repo.ListByMember(ctx, "A-2")
	require.NoError(t, err)
	assert.Len(t, byNew, 2)

	untouched, err := repo.ListByMember(other, "A")
	require.NoError(t, err)
	assert.Len(t, untouched, 1)
}

func TestTransactionRepository_WithinTransactionRollsBack(t *testing.T) {
	repo := NewTransactionRepository(setupTestDB(t).DB)
	ctx := groupCtx("treasurer-1")
	boom := errors.New("boom")

	err := repo.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.Create(ctx, &model.Transaction{MemberID: "A", Type: model.TransactionDeposit, Amount: dec("100"), Date: day(2024, 1, 1)})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := storeErr("list transactions", cause)

	var storeError *StoreError
	require.True(t, errors.As(err, &storeError))
	assert.Equal(t, "list transactions", storeError.Op)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, storeErr("noop", nil))
}
