package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/pg"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(t)
	entity.GroupID = model.GroupFromContext(ctx)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, storeErr("create transaction", err)
	}
	return toTransactionModel(entity), nil
}

// CreateBatch inserts txns in one statement; either all rows land or none.
func (r *TransactionRepository) CreateBatch(ctx context.Context, txns []*model.Transaction) ([]*model.Transaction, error) {
	if len(txns) == 0 {
		return nil, nil
	}
	groupID := model.GroupFromContext(ctx)
	entities := make([]*TransactionEntity, 0, len(txns))
	for _, t := range txns {
		e := toTransactionEntity(t)
		e.GroupID = groupID
		entities = append(entities, e)
	}
	if err := r.Write(ctx).Create(&entities).Error; err != nil {
		return nil, storeErr("create transactions", err)
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).Scopes(inGroup(ctx)).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, storeErr("get transaction", err)
	}
	return toTransactionModel(&entity), nil
}

// Update writes the editable fields of t: amount, split, date, description and rate.
func (r *TransactionRepository) Update(ctx context.Context, t *model.Transaction) error {
	result := r.Write(ctx).Model(&TransactionEntity{}).Scopes(inGroup(ctx)).Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"amount":        t.Amount,
			"principal":     t.Principal,
			"interest":      t.Interest,
			"date":          t.Date,
			"description":   t.Description,
			"interest_rate": t.InterestRate,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return storeErr("update transaction", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result := r.Write(ctx).Scopes(inGroup(ctx)).Where("id = ?", id).Delete(&TransactionEntity{})
	if result.Error != nil {
		return storeErr("delete transaction", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// ListAll returns the whole ledger of the group, oldest first.
func (r *TransactionRepository) ListAll(ctx context.Context) ([]*model.Transaction, error) {
	var entities []*TransactionEntity
	if err := r.Read(ctx).Scopes(inGroup(ctx)).Order("date ASC, id ASC").Find(&entities).Error; err != nil {
		return nil, storeErr("list transactions", err)
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	q := r.Read(ctx).Model(&TransactionEntity{}).Scopes(inGroup(ctx))

	if f.MemberID != nil {
		q = q.Where("member_id = ?", *f.MemberID)
	}
	if len(f.Types) > 0 {
		types := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			types = append(types, string(t))
		}
		q = q.Where("type IN ?", types)
	}
	if f.LoanID != nil {
		q = q.Where("loan_id = ?", *f.LoanID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storeErr("count transactions", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	order := "date ASC, id ASC"
	if f.Desc {
		order = "date DESC, id DESC"
	}

	var entities []*TransactionEntity
	if err := q.Order(order).Limit(limit).Offset(f.Offset).Find(&entities).Error; err != nil {
		return nil, 0, storeErr("list transactions", err)
	}
	return toTransactionModels(entities), total, nil
}

func (r *TransactionRepository) ListByMember(ctx context.Context, memberID string) ([]*model.Transaction, error) {
	var entities []*TransactionEntity
	err := r.Read(ctx).Scopes(inGroup(ctx)).Where("member_id = ?", memberID).Order("date ASC, id ASC").Find(&entities).Error
	if err != nil {
		return nil, storeErr("list member transactions", err)
	}
	return toTransactionModels(entities), nil
}

// ListRepayments returns the repayments that reference loanID.
func (r *TransactionRepository) ListRepayments(ctx context.Context, loanID string) ([]*model.Transaction, error) {
	var entities []*TransactionEntity
	err := r.Read(ctx).Scopes(inGroup(ctx)).
		Where("loan_id = ? AND type = ?", loanID, string(model.TransactionRepayment)).
		Order("date ASC, id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, storeErr("list repayments", err)
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) UpdateLoanStatus(ctx context.Context, loanID string, status model.LoanStatus) error {
	result := r.Write(ctx).Model(&TransactionEntity{}).Scopes(inGroup(ctx)).
		Where("id = ? AND type = ?", loanID, string(model.TransactionLoan)).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return storeErr("update loan status", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// ReassignMember moves every transaction of fromID to toID.
func (r *TransactionRepository) ReassignMember(ctx context.Context, fromID, toID string) (int64, error) {
	result := r.Write(ctx).Model(&TransactionEntity{}).Scopes(inGroup(ctx)).
		Where("member_id = ?", fromID).
		Updates(map[string]interface{}{
			"member_id":  toID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, storeErr("reassign member transactions", result.Error)
	}
	return result.RowsAffected, nil
}
