package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/shopspring/decimal"
)

// AssetBulkImportRepository commits a whole asset import in one transaction,
// streaming assets and audit rows with COPY.
type AssetBulkImportRepository struct {
	pool *pgxpool.Pool
}

func NewAssetBulkImportRepository(pool *pgxpool.Pool) *AssetBulkImportRepository {
	return &AssetBulkImportRepository{pool: pool}
}

func (r *AssetBulkImportRepository) CommitAssets(ctx context.Context, batch domain.AssetBatch) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	if batch.Set != nil {
		if _, err := tx.Exec(ctx, `
INSERT INTO asset_sets (id, name, description, created_by_id, created_at)
VALUES ($1, $2, $3, $4, $5)
`, batch.Set.ID, batch.Set.Name, batch.Set.Description, batch.Set.CreatedByID, now); err != nil {
			return fmt.Errorf("insert asset set: %w", err)
		}
	}

	if len(batch.Types) > 0 {
		if _, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"asset_types"},
			[]string{"id", "name", "description", "created_at"},
			pgx.CopyFromSlice(len(batch.Types), func(i int) ([]any, error) {
				t := batch.Types[i]
				return []any{t.ID, t.Name, t.Description, now}, nil
			}),
		); err != nil {
			return fmt.Errorf("copy asset types: %w", err)
		}
	}

	if len(batch.Fields) > 0 {
		if _, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"custom_field_definitions"},
			[]string{"id", "target", "key", "label", "field_type", "is_required", "asset_set_id", "asset_type_id", "created_at"},
			pgx.CopyFromSlice(len(batch.Fields), func(i int) ([]any, error) {
				def := batch.Fields[i]
				row := fieldRow(def, now)
				return []any{def.ID, row.Target, row.Key, row.Label, row.FieldType, row.IsRequired, def.AssetSetID, def.AssetTypeID, now}, nil
			}),
		); err != nil {
			return fmt.Errorf("copy field definitions: %w", err)
		}
	}

	if len(batch.Assets) > 0 {
		if _, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"assets"},
			[]string{
				"id", "name", "serial_number", "location", "vendor", "order_number",
				"purchase_price", "purchase_date", "warranty_end",
				"asset_type_id", "status_id", "asset_set_id", "assigned_user_id",
				"tags", "source", "extra", "created_at", "updated_at",
			},
			pgx.CopyFromSlice(len(batch.Assets), func(i int) ([]any, error) {
				return assetCopyRow(batch.Assets[i], now)
			}),
		); err != nil {
			return fmt.Errorf("copy assets: %w", err)
		}
	}

	if len(batch.Audit) > 0 {
		if _, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"audit_logs"},
			[]string{"id", "entity_type", "entity_id", "action", "changes", "user_id", "origin", "created_at"},
			pgx.CopyFromSlice(len(batch.Audit), func(i int) ([]any, error) {
				e := batch.Audit[i]
				var changes []byte
				if e.Changes != nil {
					raw, err := json.Marshal(e.Changes)
					if err != nil {
						return nil, fmt.Errorf("encode audit changes: %w", err)
					}
					changes = raw
				}
				return []any{e.ID, e.EntityType, e.EntityID, e.Action, changes, e.UserID, string(e.Origin), now}, nil
			}),
		); err != nil {
			return fmt.Errorf("copy audit logs: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit asset import: %w", err)
	}
	return nil
}

func assetCopyRow(a asset.Asset, now time.Time) ([]any, error) {
	extra, err := extraJSON(a.Extra)
	if err != nil {
		return nil, err
	}
	source := a.Source
	if source == "" {
		source = asset.SourceImport
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}

	return []any{
		a.ID,
		a.Name,
		a.SerialNumber,
		a.Location,
		a.Vendor,
		a.OrderNumber,
		numeric(a.PurchasePrice),
		a.PurchaseDate,
		a.WarrantyEnd,
		a.AssetTypeID,
		a.StatusID,
		a.AssetSetID,
		a.AssignedUserID,
		tags,
		source,
		[]byte(extra),
		now,
		now,
	}, nil
}

func numeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
