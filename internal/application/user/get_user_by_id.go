package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/domain/attribute"
	domain "github.com/mohammadpnp/asset-import/internal/domain/user"
)

type GetUserByIDInput struct {
	ID string
}

type GetUserByIDOutput struct {
	ID                uuid.UUID      `json:"id"`
	Email             string         `json:"email"`
	FullName          *string        `json:"full_name"`
	IsActive          bool           `json:"is_active"`
	EmploymentEndDate *time.Time     `json:"employment_end_date"`
	AssetSetID        *uuid.UUID     `json:"asset_set_id"`
	Roles             []string       `json:"roles"`
	Extra             *attribute.Map `json:"extra"`
}

type GetUserByID interface {
	Execute(ctx context.Context, in GetUserByIDInput) (GetUserByIDOutput, error)
}

type getUserByID struct {
	repo domain.QueryRepository
}

func NewGetUserByID(repo domain.QueryRepository) GetUserByID {
	return &getUserByID{repo: repo}
}

func (uc *getUserByID) Execute(ctx context.Context, in GetUserByIDInput) (GetUserByIDOutput, error) {
	id, err := uuid.Parse(strings.TrimSpace(in.ID))
	if err != nil {
		return GetUserByIDOutput{}, ErrInvalidUserID
	}

	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return GetUserByIDOutput{}, ErrUserNotFound
		}
		return GetUserByIDOutput{}, fmt.Errorf("%w: %v", ErrGetUserByID, err)
	}

	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	extra := u.Extra
	if extra == nil {
		extra = attribute.NewMap()
	}

	return GetUserByIDOutput{
		ID:                u.ID,
		Email:             u.Email,
		FullName:          u.FullName,
		IsActive:          u.IsActive,
		EmploymentEndDate: u.EmploymentEndDate,
		AssetSetID:        u.AssetSetID,
		Roles:             roles,
		Extra:             extra,
	}, nil
}
