package user

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/domain/attribute"
)

// Static field keys of a user identity.
const (
	FieldEmail             = "email"
	FieldFullName          = "full_name"
	FieldRole              = "role"
	FieldPassword          = "password"
	FieldIsActive          = "is_active"
	FieldEmploymentEndDate = "employment_end_date"
)

var StaticFields = []string{
	FieldEmail,
	FieldFullName,
	FieldRole,
	FieldPassword,
	FieldIsActive,
	FieldEmploymentEndDate,
}

const DefaultRole = "user"

type Role struct {
	Name        string
	Description string
}

type User struct {
	ID                uuid.UUID
	Email             string
	FullName          *string
	HashedPassword    *string
	IsActive          bool
	EmploymentEndDate *time.Time
	AssetSetID        *uuid.UUID
	Extra             *attribute.Map
	Roles             []string
}

func NewUser(id uuid.UUID, email string) (User, error) {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return User{}, err
	}

	return User{
		ID:       id,
		Email:    email,
		IsActive: true,
		Extra:    attribute.NewMap(),
	}, nil
}

func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}
