package asset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/asset-import/internal/domain/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/attribute"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
	"github.com/shopspring/decimal"
)

type CreateAssetInput struct {
	Name           string
	SerialNumber   *string
	Location       *string
	Vendor         *string
	OrderNumber    *string
	PurchasePrice  *decimal.Decimal
	PurchaseDate   *time.Time
	WarrantyEnd    *time.Time
	AssetTypeID    *uuid.UUID
	StatusID       *uuid.UUID
	AssetSetID     *uuid.UUID
	AssignedUserID *uuid.UUID
	Tags           []string
	Extra          *attribute.Map
	Actor          *uuid.UUID
	Origin         audit.Origin
}

type CreateAssetOutput struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	SerialNumber   *string          `json:"serial_number"`
	Location       *string          `json:"location"`
	Vendor         *string          `json:"vendor"`
	OrderNumber    *string          `json:"order_number"`
	PurchasePrice  *decimal.Decimal `json:"purchase_price"`
	PurchaseDate   *time.Time       `json:"purchase_date"`
	WarrantyEnd    *time.Time       `json:"warranty_end"`
	AssetTypeID    *uuid.UUID       `json:"asset_type_id"`
	StatusID       *uuid.UUID       `json:"status_id"`
	AssetSetID     *uuid.UUID       `json:"asset_set_id"`
	AssignedUserID *uuid.UUID       `json:"assigned_user_id"`
	Tags           []string         `json:"tags"`
	Extra          *attribute.Map   `json:"extra"`
}

type CreateAsset interface {
	Execute(ctx context.Context, in CreateAssetInput) (CreateAssetOutput, error)
}

type createAsset struct {
	repo domain.Repository
}

func NewCreateAsset(repo domain.Repository) CreateAsset {
	return &createAsset{repo: repo}
}

func (uc *createAsset) Execute(ctx context.Context, in CreateAssetInput) (CreateAssetOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return CreateAssetOutput{}, fmt.Errorf("%w: %w", ErrInvalidAsset, domain.ErrNameRequired)
	}

	serial := trimmed(in.SerialNumber)
	if serial != nil {
		exists, err := uc.repo.SerialExists(ctx, *serial)
		if err != nil {
			return CreateAssetOutput{}, fmt.Errorf("%w: %v", ErrCreateAsset, err)
		}
		if exists {
			return CreateAssetOutput{}, domain.ErrDuplicateSerial
		}
	}

	if in.StatusID != nil {
		ok, err := uc.repo.StatusExists(ctx, *in.StatusID)
		if err != nil {
			return CreateAssetOutput{}, fmt.Errorf("%w: %v", ErrCreateAsset, err)
		}
		if !ok {
			return CreateAssetOutput{}, domain.ErrInvalidStatus
		}
	}

	extra := in.Extra
	if extra == nil {
		extra = attribute.NewMap()
	}

	a := domain.Asset{
		ID:             uuid.New(),
		Name:           name,
		SerialNumber:   serial,
		Location:       trimmed(in.Location),
		Vendor:         trimmed(in.Vendor),
		OrderNumber:    trimmed(in.OrderNumber),
		PurchasePrice:  in.PurchasePrice,
		PurchaseDate:   in.PurchaseDate,
		WarrantyEnd:    in.WarrantyEnd,
		AssetTypeID:    in.AssetTypeID,
		StatusID:       in.StatusID,
		AssetSetID:     in.AssetSetID,
		AssignedUserID: in.AssignedUserID,
		Tags:           in.Tags,
		Source:         domain.SourceManual,
		Extra:          extra,
	}

	changes := map[string]any{"name": a.Name}
	if serial != nil {
		changes["serial_number"] = *serial
	}
	if a.StatusID != nil {
		changes["status_id"] = a.StatusID.String()
	}
	entry := audit.NewEntry(audit.EntityAsset, a.ID, audit.ActionCreate, changes, in.Actor, in.Origin)

	if err := uc.repo.Create(ctx, a, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateSerial) {
			return CreateAssetOutput{}, err
		}
		return CreateAssetOutput{}, fmt.Errorf("%w: %v", ErrCreateAsset, err)
	}

	return CreateAssetOutput{
		ID:             a.ID,
		Name:           a.Name,
		SerialNumber:   a.SerialNumber,
		Location:       a.Location,
		Vendor:         a.Vendor,
		OrderNumber:    a.OrderNumber,
		PurchasePrice:  a.PurchasePrice,
		PurchaseDate:   a.PurchaseDate,
		WarrantyEnd:    a.WarrantyEnd,
		AssetTypeID:    a.AssetTypeID,
		StatusID:       a.StatusID,
		AssetSetID:     a.AssetSetID,
		AssignedUserID: a.AssignedUserID,
		Tags:           a.Tags,
		Extra:          a.Extra,
	}, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
