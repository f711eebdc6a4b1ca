package pg

import "time"

// Model carries the bookkeeping columns every table shares.
type Model struct {
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}
