package models

import (
	"time"

	"gorm.io/datatypes"
)

type ImportJob struct {
	ID         string         `gorm:"type:uuid;primaryKey"`
	Kind       string         `gorm:"type:text;not null;index"`
	Status     string         `gorm:"type:text;not null;index"`
	Payload    datatypes.JSON `gorm:"type:jsonb;not null"`
	Result     datatypes.JSON `gorm:"type:jsonb"`
	Error      *string        `gorm:"type:text"`
	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
