package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/pg"
	"gorm.io/gorm"
)

type MemberRepository struct {
	*pg.DB
}

func NewMemberRepository(db *pg.DB) *MemberRepository {
	return &MemberRepository{
		db,
	}
}

func (r *MemberRepository) Create(ctx context.Context, m *model.Member) (*model.Member, error) {
	var count int64
	err := r.Write(ctx).Model(&MemberEntity{}).Scopes(inGroup(ctx)).Where("id = ?", m.ID).Count(&count).Error
	if err != nil {
		return nil, storeErr("count member", err)
	}
	if count > 0 {
		return nil, ErrDuplicateMember
	}

	entity := toMemberEntity(m)
	entity.GroupID = model.GroupFromContext(ctx)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, storeErr("create member", err)
	}
	return toMemberModel(entity), nil
}

func (r *MemberRepository) Get(ctx context.Context, id string) (*model.Member, error) {
	var entity MemberEntity
	err := r.Read(ctx).Scopes(inGroup(ctx)).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, storeErr("get member", err)
	}
	return toMemberModel(&entity), nil
}

// List returns every member of the group ordered by id.
func (r *MemberRepository) List(ctx context.Context) ([]*model.Member, error) {
	var entities []*MemberEntity
	if err := r.Read(ctx).Scopes(inGroup(ctx)).Order("id ASC").Find(&entities).Error; err != nil {
		return nil, storeErr("list members", err)
	}
	return toMemberModels(entities), nil
}

// Update writes the profile fields of m. Status changes go through UpdateStatus.
func (r *MemberRepository) Update(ctx context.Context, m *model.Member) error {
	result := r.Write(ctx).Model(&MemberEntity{}).Scopes(inGroup(ctx)).Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"name":       m.Name,
			"phone":      m.Phone,
			"aadhaar":    m.Aadhaar,
			"join_date":  m.JoinDate,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return storeErr("update member", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) UpdateStatus(ctx context.Context, id string, status model.MemberStatus) error {
	result := r.Write(ctx).Model(&MemberEntity{}).Scopes(inGroup(ctx)).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return storeErr("update member status", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	result := r.Write(ctx).Scopes(inGroup(ctx)).Where("id = ?", id).Delete(&MemberEntity{})
	if result.Error != nil {
		return storeErr("delete member", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}
