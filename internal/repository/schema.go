package repository

import "gorm.io/gorm"

// AutoMigrate creates the ledger tables through gorm. Production schemas come
// from the goose migrations; this serves sqlite databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&MemberEntity{}, &TransactionEntity{}, &SettingsEntity{})
}
