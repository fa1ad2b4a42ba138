package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	importing "github.com/mohammadpnp/asset-import/internal/domain/importing"
	domain "github.com/mohammadpnp/asset-import/internal/domain/user"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

// UserQueryRepository serves single-user lookups and the directory the import
// matcher resolves people against.
type UserQueryRepository struct {
	db *gorm.DB
}

func NewUserQueryRepository(db *gorm.DB) *UserQueryRepository {
	return &UserQueryRepository{db: db}
}

func (r *UserQueryRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return r.first(ctx, "id = ?", userID.String())
}

func (r *UserQueryRepository) FindByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return r.GetByID(ctx, userID)
}

func (r *UserQueryRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserQueryRepository) Entries(ctx context.Context) ([]importing.DirectoryEntry, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Select("id", "email").
		Order("email").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list user directory: %w", err)
	}

	entries := make([]importing.DirectoryEntry, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("parse user id %q: %w", row.ID, err)
		}
		entries = append(entries, importing.DirectoryEntry{ID: id, Email: row.Email})
	}
	return entries, nil
}

func (r *UserQueryRepository) first(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var row models.User

	err := r.db.WithContext(ctx).
		Preload("Roles").
		Where(query, args...).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return toDomainUser(row)
}
