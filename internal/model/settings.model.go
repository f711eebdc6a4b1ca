package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GroupSettings is configuration only; totals are never read from it.
type GroupSettings struct {
	GroupID             string          `json:"-"`
	GroupName           string          `json:"group_name"`
	MonthlyContribution decimal.Decimal `json:"monthly_contribution"`
	InterestRate        decimal.Decimal `json:"interest_rate"`
	EstablishedAt       time.Time       `json:"established_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type SettingsUpdateRequest struct {
	GroupName           string          `json:"group_name" validate:"required,max=200"`
	MonthlyContribution decimal.Decimal `json:"monthly_contribution"`
	InterestRate        decimal.Decimal `json:"interest_rate"`
	EstablishedAt       time.Time       `json:"established_at"`
}

func (p *SettingsUpdateRequest) Validate() error {
	p.GroupName = strings.TrimSpace(p.GroupName)
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.MonthlyContribution.IsNegative() {
		return NewValidationError("monthly_contribution", "must not be negative")
	}
	if p.InterestRate.IsNegative() {
		return NewValidationError("interest_rate", "must not be negative")
	}
	return nil
}

func (p SettingsUpdateRequest) ToSettings() *GroupSettings {
	return &GroupSettings{
		GroupName:           p.GroupName,
		MonthlyContribution: p.MonthlyContribution,
		InterestRate:        p.InterestRate,
		EstablishedAt:       p.EstablishedAt,
	}
}
