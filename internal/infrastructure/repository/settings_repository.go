package repository

import (
	"context"
	"fmt"

	"github.com/mohammadpnp/asset-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Values returns the stored settings among keys. Missing keys are absent from
// the result.
func (r *SettingsRepository) Values(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var rows []models.SystemSetting
	if err := r.db.WithContext(ctx).Where("key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read system settings: %w", err)
	}
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}
