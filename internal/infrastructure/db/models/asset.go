package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Asset struct {
	ID             string           `gorm:"type:uuid;primaryKey"`
	Name           string           `gorm:"size:255;not null"`
	SerialNumber   *string          `gorm:"size:255;index"`
	Location       *string          `gorm:"size:255"`
	Vendor         *string          `gorm:"size:255"`
	OrderNumber    *string          `gorm:"size:255"`
	PurchasePrice  *decimal.Decimal `gorm:"type:numeric(12,2)"`
	PurchaseDate   *time.Time       `gorm:"type:date"`
	WarrantyEnd    *time.Time       `gorm:"type:date"`
	AssetTypeID    *string          `gorm:"type:uuid;index"`
	StatusID       *string          `gorm:"type:uuid;index"`
	AssetSetID     *string          `gorm:"type:uuid;index"`
	AssignedUserID *string          `gorm:"type:uuid;index"`
	Tags           pq.StringArray   `gorm:"type:text[]"`
	Source         string           `gorm:"size:32;not null;default:'manual'"`
	Extra          datatypes.JSON   `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Asset) TableName() string {
	return "assets"
}

type AssetType struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Name        string `gorm:"size:255;not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (AssetType) TableName() string {
	return "asset_types"
}

type AssetStatus struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Name        string `gorm:"size:64;not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	IsDefault   bool   `gorm:"not null;default:false"`
}

func (AssetStatus) TableName() string {
	return "asset_statuses"
}

type AssetSet struct {
	ID          string  `gorm:"type:uuid;primaryKey"`
	Name        string  `gorm:"size:255;not null;uniqueIndex"`
	Description string  `gorm:"type:text"`
	CreatedByID *string `gorm:"type:uuid"`
	CreatedAt   time.Time
}

func (AssetSet) TableName() string {
	return "asset_sets"
}

type CustomFieldDefinition struct {
	ID          string  `gorm:"type:uuid;primaryKey"`
	Target      string  `gorm:"size:16;not null;index"`
	Key         string  `gorm:"size:128;not null"`
	Label       string  `gorm:"size:255;not null"`
	FieldType   string  `gorm:"size:32;not null;default:'string'"`
	IsRequired  bool    `gorm:"not null;default:false"`
	AssetSetID  *string `gorm:"type:uuid;index"`
	AssetTypeID *string `gorm:"type:uuid;index"`
	CreatedAt   time.Time
}

func (CustomFieldDefinition) TableName() string {
	return "custom_field_definitions"
}
