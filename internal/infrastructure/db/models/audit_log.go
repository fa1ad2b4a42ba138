package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         string         `gorm:"type:uuid;primaryKey"`
	EntityType string         `gorm:"size:64;not null;index"`
	EntityID   string         `gorm:"size:64;not null;index"`
	Action     string         `gorm:"size:32;not null"`
	Changes    datatypes.JSON `gorm:"type:jsonb"`
	UserID     *string        `gorm:"type:uuid"`
	Origin     string         `gorm:"size:16;not null;default:'human'"`
	CreatedAt  time.Time
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

type SystemSetting struct {
	Key       string `gorm:"size:128;primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (SystemSetting) TableName() string {
	return "system_settings"
}
