package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/domain"
)

// AutoMigrate creates or updates the permission and role tables. The
// permission row model is private to this package, so migration runs from
// here rather than from the database bootstrap.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&permissionRecord{}, &domain.Role{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
