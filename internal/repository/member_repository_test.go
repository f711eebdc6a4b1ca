package repository

import (
	"testing"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMember(id string, status model.MemberStatus) *model.Member {
	return &model.Member{
		ID:       id,
		Name:     "Member " + id,
		Phone:    "9800000000",
		Aadhaar:  "123412341234",
		JoinDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:   status,
	}
}

func TestMemberRepository_CRUD(t *testing.T) {
	repo := NewMemberRepository(setupTestDB(t).DB)
	ctx := groupCtx("treasurer-1")

	t.Run("create and get", func(t *testing.T) {
		created, err := repo.Create(ctx, newMember("A", model.MemberStatusActive))
		require.NoError(t, err)
		assert.Equal(t, "treasurer-1", created.GroupID)

		got, err := repo.Get(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, "Member A", got.Name)
		assert.Equal(t, model.MemberStatusActive, got.Status)
		assert.Equal(t, "123412341234", got.Aadhaar)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := repo.Create(ctx, newMember("A", model.MemberStatusActive))
		assert.ErrorIs(t, err, ErrDuplicateMember)
	})

	t.Run("update profile", func(t *testing.T) {
		m, err := repo.Get(ctx, "A")
		require.NoError(t, err)
		m.Name = "Asha"
		m.Status = model.MemberStatusClosed
		require.NoError(t, repo.Update(ctx, m))

		got, err := repo.Get(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, "Asha", got.Name)
		assert.Equal(t, model.MemberStatusActive, got.Status, "status is not part of the profile")
	})

	t.Run("update status", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, "A", model.MemberStatusInactive))
		got, err := repo.Get(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, model.MemberStatusInactive, got.Status)

		assert.ErrorIs(t, repo.UpdateStatus(ctx, "nobody", model.MemberStatusActive), ErrMemberNotFound)
	})

	t.Run("list ordered by id", func(t *testing.T) {
		_, err := repo.Create(ctx, newMember("C", model.MemberStatusActive))
		require.NoError(t, err)
		_, err = repo.Create(ctx, newMember("B", model.MemberStatusActive))
		require.NoError(t, err)

		members, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, members, 3)
		assert.Equal(t, "A", members[0].ID)
		assert.Equal(t, "B", members[1].ID)
		assert.Equal(t, "C", members[2].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "C"))
		_, err := repo.Get(ctx, "C")
		assert.ErrorIs(t, err, ErrMemberNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "C"), ErrMemberNotFound)
	})
}

func TestMemberRepository_GroupIsolation(t *testing.T) {
	repo := NewMemberRepository(setupTestDB(t).DB)
	mine := groupCtx("treasurer-1")
	theirs := groupCtx("treasurer-2")

	_, err := repo.Create(mine, newMember("A", model.MemberStatusActive))
	require.NoError(t, err)

	// the same human-assigned id is free in another group
	_, err = repo.Create(theirs, newMember("A", model.MemberStatusActive))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(theirs, "A", model.MemberStatusInactive))

	got, err := repo.Get(mine, "A")
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusActive, got.Status)

	members, err := repo.List(groupCtx("treasurer-3"))
	require.NoError(t, err)
	assert.Empty(t, members)
}
