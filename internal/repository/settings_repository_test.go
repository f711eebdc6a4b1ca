package repository

import (
	"testing"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository_Upsert(t *testing.T) {
	repo := NewSettingsRepository(setupTestDB(t).DB)
	ctx := groupCtx("treasurer-1")

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, ErrSettingsNotFound)

	_, err = repo.Upsert(ctx, &model.GroupSettings{
		GroupName:           "Yuva SHG",
		MonthlyContribution: dec("200"),
		InterestRate:        dec("2"),
		EstablishedAt:       day(2020, 4, 1),
	})
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, &model.GroupSettings{
		GroupName:           "Yuva Self Help Group",
		MonthlyContribution: dec("250"),
		InterestRate:        dec("1.5"),
		EstablishedAt:       day(2020, 4, 1),
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Yuva Self Help Group", got.GroupName)
	assert.True(t, got.MonthlyContribution.Equal(dec("250")))
	assert.True(t, got.InterestRate.Equal(dec("1.5")))

	_, err = repo.Get(groupCtx("treasurer-2"))
	assert.ErrorIs(t, err, ErrSettingsNotFound)
}
