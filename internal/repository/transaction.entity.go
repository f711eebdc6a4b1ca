package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionEntity struct {
	ID           string          `db:"id"            gorm:"primaryKey;column:id;size:36"`
	GroupID      string          `db:"group_id"      gorm:"column:group_id;not null;size:64;index:idx_transactions_group_member,priority:1"`
	MemberID     string          `db:"member_id"     gorm:"column:member_id;not null;size:64;index:idx_transactions_group_member,priority:2"`
	Type         string          `db:"type"          gorm:"column:type;not null;index"`
	Amount       decimal.Decimal `db:"amount"        gorm:"column:amount;type:numeric(14,2);not null"`
	Date         time.Time       `db:"date"          gorm:"column:date;not null;index"`
	Description  string          `db:"description"   gorm:"column:description"`
	Principal    decimal.Decimal `db:"principal"     gorm:"column:principal;type:numeric(14,2);not null"`
	Interest     decimal.Decimal `db:"interest"      gorm:"column:interest;type:numeric(14,2);not null"`
	LoanID       *string         `db:"loan_id"       gorm:"column:loan_id;size:36;index"`
	Status       *string         `db:"status"        gorm:"column:status"`
	InterestRate decimal.Decimal `db:"interest_rate" gorm:"column:interest_rate;type:numeric(6,2);not null"`
	pg.Model
}

func (TransactionEntity) TableName() string { return "transactions" }

// BeforeCreate assigns the id and makes a loan reference itself.
func (e *TransactionEntity) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Type == string(model.TransactionLoan) {
		id := e.ID
		e.LoanID = &id
		if e.Status == nil {
			active := string(model.LoanStatusActive)
			e.Status = &active
		}
	}
	return nil
}

func toTransactionEntity(t *model.Transaction) *TransactionEntity {
	return &TransactionEntity{
		ID:           t.ID,
		GroupID:      t.GroupID,
		MemberID:     t.MemberID,
		Type:         string(t.Type),
		Amount:       t.Amount,
		Date:         t.Date,
		Description:  t.Description,
		Principal:    t.Principal,
		Interest:     t.Interest,
		LoanID:       optional(t.LoanID),
		Status:       optional(string(t.Status)),
		InterestRate: t.InterestRate,
		Model: pg.Model{
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		},
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	return &model.Transaction{
		ID:           e.ID,
		GroupID:      e.GroupID,
		MemberID:     e.MemberID,
		Type:         model.TransactionType(e.Type),
		Amount:       e.Amount,
		Date:         e.Date,
		Description:  e.Description,
		Principal:    e.Principal,
		Interest:     e.Interest,
		LoanID:       deref(e.LoanID),
		Status:       model.LoanStatus(deref(e.Status)),
		InterestRate: e.InterestRate,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	txns := make([]*model.Transaction, 0, len(entities))
	for _, e := range entities {
		txns = append(txns, toTransactionModel(e))
	}
	return txns
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
