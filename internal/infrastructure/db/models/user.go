package models

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID                string         `gorm:"type:uuid;primaryKey"`
	Email             string         `gorm:"size:320;not null;uniqueIndex"`
	FullName          *string        `gorm:"size:255"`
	HashedPassword    *string        `gorm:"size:255"`
	IsActive          bool           `gorm:"not null;default:true"`
	EmploymentEndDate *time.Time     `gorm:"type:date"`
	AssetSetID        *string        `gorm:"type:uuid;index"`
	Extra             datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`
	Roles             []Role         `gorm:"many2many:user_roles;joinForeignKey:UserID;joinReferences:RoleID"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Name        string `gorm:"size:64;not null;uniqueIndex"`
	Description string `gorm:"type:text"`
}

func (Role) TableName() string {
	return "roles"
}

type UserRole struct {
	UserID string `gorm:"type:uuid;primaryKey"`
	RoleID string `gorm:"type:uuid;primaryKey"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
