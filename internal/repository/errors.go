package repository

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"gorm.io/gorm"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrSettingsNotFound    = errors.New("settings not found")
	ErrJobNotFound         = errors.New("bulk job not found")
	ErrDuplicateMember     = errors.New("member id already exists")
)

// StoreError is a failure of the backing store. Callers surface it and never
// retry financial writes on their own.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: errors.WithStack(err)}
}

// inGroup limits a query to the rows of the group carried by ctx.
func inGroup(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	groupID := model.GroupFromContext(ctx)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("group_id = ?", groupID)
	}
}
