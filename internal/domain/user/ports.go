package user

import (
	"context"

	"github.com/google/uuid"
)

type QueryRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}
