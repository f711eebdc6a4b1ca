package repository

import (
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/pg"
	"github.com/shopspring/decimal"
)

type SettingsEntity struct {
	GroupID             string          `db:"group_id"             gorm:"primaryKey;column:group_id;size:64"`
	GroupName           string          `db:"group_name"           gorm:"column:group_name;not null"`
	MonthlyContribution decimal.Decimal `db:"monthly_contribution" gorm:"column:monthly_contribution;type:numeric(14,2);not null"`
	InterestRate        decimal.Decimal `db:"interest_rate"        gorm:"column:interest_rate;type:numeric(6,2);not null"`
	EstablishedAt       time.Time       `db:"established_at"       gorm:"column:established_at"`
	pg.Model
}

func (SettingsEntity) TableName() string { return "group_settings" }

func toSettingsModel(e *SettingsEntity) *model.GroupSettings {
	return &model.GroupSettings{
		GroupID:             e.GroupID,
		GroupName:           e.GroupName,
		MonthlyContribution: e.MonthlyContribution,
		InterestRate:        e.InterestRate,
		EstablishedAt:       e.EstablishedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}
