package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/domain/user"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

// CatalogRepository reads lookup tables, field definitions and asset sets.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Statuses(ctx context.Context) ([]asset.Status, error) {
	var rows []models.AssetStatus
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list asset statuses: %w", err)
	}

	out := make([]asset.Status, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("parse status id %q: %w", row.ID, err)
		}
		out = append(out, asset.Status{ID: id, Name: row.Name, Description: row.Description, IsDefault: row.IsDefault})
	}
	return out, nil
}

func (r *CatalogRepository) Types(ctx context.Context) ([]asset.Type, error) {
	var rows []models.AssetType
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list asset types: %w", err)
	}

	out := make([]asset.Type, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("parse type id %q: %w", row.ID, err)
		}
		out = append(out, asset.Type{ID: id, Name: row.Name, Description: row.Description})
	}
	return out, nil
}

func (r *CatalogRepository) Roles(ctx context.Context) ([]user.Role, error) {
	var rows []models.Role
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	out := make([]user.Role, 0, len(rows))
	for _, row := range rows {
		out = append(out, user.Role{Name: row.Name, Description: row.Description})
	}
	return out, nil
}

func (r *CatalogRepository) FieldDefinitions(ctx context.Context, target asset.FieldTarget, setID *uuid.UUID) ([]asset.FieldDefinition, error) {
	query := r.db.WithContext(ctx).Where("target = ?", string(target))
	if setID != nil {
		query = query.Where("asset_set_id IS NULL OR asset_set_id = ?", setID.String())
	} else {
		query = query.Where("asset_set_id IS NULL")
	}

	var rows []models.CustomFieldDefinition
	if err := query.Order("created_at, key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list field definitions: %w", err)
	}

	out := make([]asset.FieldDefinition, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("parse field definition id %q: %w", row.ID, err)
		}
		out = append(out, asset.FieldDefinition{
			ID:          id,
			Target:      asset.FieldTarget(row.Target),
			Key:         row.Key,
			Label:       row.Label,
			Type:        asset.FieldType(row.FieldType),
			Required:    row.IsRequired,
			AssetSetID:  parseUUIDText(row.AssetSetID),
			AssetTypeID: parseUUIDText(row.AssetTypeID),
		})
	}
	return out, nil
}

func (r *CatalogRepository) GetSet(ctx context.Context, setID uuid.UUID) (asset.Set, error) {
	var row models.AssetSet
	err := r.db.WithContext(ctx).First(&row, "id = ?", setID.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return asset.Set{}, domain.ErrGroupNotFound
		}
		return asset.Set{}, fmt.Errorf("get asset set: %w", err)
	}

	return asset.Set{
		ID:          setID,
		Name:        row.Name,
		Description: row.Description,
		CreatedByID: parseUUIDText(row.CreatedByID),
	}, nil
}

func (r *CatalogRepository) SetNameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssetSet{}).
		Where("name = ?", name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check asset set name: %w", err)
	}
	return count > 0, nil
}
