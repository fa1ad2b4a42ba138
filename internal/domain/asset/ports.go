package asset

import (
	"context"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
)

// Repository persists single assets outside the bulk import path.
type Repository interface {
	SerialExists(ctx context.Context, serial string) (bool, error)
	StatusExists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, a Asset, entry audit.Entry) error
}
