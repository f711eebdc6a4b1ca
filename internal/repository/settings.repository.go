package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	*pg.DB
}

func NewSettingsRepository(db *pg.DB) *SettingsRepository {
	return &SettingsRepository{
		db,
	}
}

func (r *SettingsRepository) Get(ctx context.Context) (*model.GroupSettings, error) {
	var entity SettingsEntity
	err := r.Read(ctx).Scopes(inGroup(ctx)).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, storeErr("get settings", err)
	}
	return toSettingsModel(&entity), nil
}

// Upsert replaces the settings of the group carried by ctx.
func (r *SettingsRepository) Upsert(ctx context.Context, s *model.GroupSettings) (*model.GroupSettings, error) {
	now := time.Now()
	entity := &SettingsEntity{
		GroupID:             model.GroupFromContext(ctx),
		GroupName:           s.GroupName,
		MonthlyContribution: s.MonthlyContribution,
		InterestRate:        s.InterestRate,
		EstablishedAt:       s.EstablishedAt,
		Model:               pg.Model{CreatedAt: now, UpdatedAt: now},
	}
	err := r.Write(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"group_name", "monthly_contribution", "interest_rate", "established_at", "updated_at"}),
	}).Create(entity).Error
	if err != nil {
		return nil, storeErr("upsert settings", err)
	}
	return toSettingsModel(entity), nil
}
