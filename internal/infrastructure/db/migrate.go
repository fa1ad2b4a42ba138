package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/db/models"
	"github.com/mohammadpnp/asset-import/internal/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var defaultStatuses = []models.AssetStatus{
	{Name: "active", Description: "In use", IsDefault: true},
	{Name: "in_stock", Description: "Available in storage"},
	{Name: "fix", Description: "Under repair"},
	{Name: "broken", Description: "Damaged"},
	{Name: "retired", Description: "No longer in service"},
	{Name: "lost", Description: "Lost or stolen"},
	{Name: "disposal", Description: "Awaiting disposal"},
	{Name: "reserved", Description: "Reserved"},
	{Name: "ordered", Description: "On order"},
}

var defaultRoles = []models.Role{
	{Name: "admin", Description: "Full access"},
	{Name: "user", Description: "Standard access"},
}

// Migrate creates or updates every table and seeds the default statuses and
// roles. Seeding never overwrites existing rows.
func Migrate(ctx context.Context, db *gorm.DB, log *logger.Logger) error {
	tables := []any{
		&models.ImportJob{},
		&models.Role{},
		&models.User{},
		&models.UserRole{},
		&models.AssetType{},
		&models.AssetStatus{},
		&models.AssetSet{},
		&models.CustomFieldDefinition{},
		&models.Asset{},
		&models.AuditLog{},
		&models.SystemSetting{},
	}

	conn := db.WithContext(ctx)
	for _, model := range tables {
		if err := conn.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	log.Info("schema migrated", "tables", len(tables))

	statuses := make([]models.AssetStatus, len(defaultStatuses))
	for i, s := range defaultStatuses {
		s.ID = uuid.NewString()
		statuses[i] = s
	}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&statuses).Error; err != nil {
		return fmt.Errorf("seed asset statuses: %w", err)
	}

	roles := make([]models.Role, len(defaultRoles))
	for i, r := range defaultRoles {
		r.ID = uuid.NewString()
		roles[i] = r
	}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return nil
}
