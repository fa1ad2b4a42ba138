package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	domain "github.com/mohammadpnp/asset-import/internal/domain/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) SerialExists(ctx context.Context, serial string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("serial_number = ?", serial).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check serial number: %w", err)
	}
	return count > 0, nil
}

func (r *AssetRepository) StatusExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssetStatus{}).
		Where("id = ?", id.String()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check asset status: %w", err)
	}
	return count > 0, nil
}

func (r *AssetRepository) Create(ctx context.Context, a domain.Asset, entry audit.Entry) error {
	now := time.Now().UTC()
	row, err := assetRow(a, now)
	if err != nil {
		return err
	}
	log, err := auditRow(entry, now)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create asset: %w", err)
		}
		if err := tx.Create(&log).Error; err != nil {
			return fmt.Errorf("create audit log: %w", err)
		}
		return nil
	})
}

func assetRow(a domain.Asset, now time.Time) (models.Asset, error) {
	extra, err := extraJSON(a.Extra)
	if err != nil {
		return models.Asset{}, err
	}
	source := a.Source
	if source == "" {
		source = domain.SourceManual
	}
	tags := pq.StringArray(a.Tags)
	if tags == nil {
		tags = pq.StringArray{}
	}

	return models.Asset{
		ID:             a.ID.String(),
		Name:           a.Name,
		SerialNumber:   a.SerialNumber,
		Location:       a.Location,
		Vendor:         a.Vendor,
		OrderNumber:    a.OrderNumber,
		PurchasePrice:  a.PurchasePrice,
		PurchaseDate:   a.PurchaseDate,
		WarrantyEnd:    a.WarrantyEnd,
		AssetTypeID:    uuidText(a.AssetTypeID),
		StatusID:       uuidText(a.StatusID),
		AssetSetID:     uuidText(a.AssetSetID),
		AssignedUserID: uuidText(a.AssignedUserID),
		Tags:           tags,
		Source:         source,
		Extra:          extra,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
