package asset

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/domain/attribute"
	"github.com/shopspring/decimal"
)

// Static field keys of an asset. These are the only targets a column can be
// routed to without a dynamic field definition.
const (
	FieldName          = "name"
	FieldStatus        = "status"
	FieldSerialNumber  = "serial_number"
	FieldLocation      = "location"
	FieldTags          = "tags"
	FieldAssetType     = "asset_type_id"
	FieldPurchaseDate  = "purchase_date"
	FieldPurchasePrice = "purchase_price"
	FieldVendor        = "vendor"
	FieldOrderNumber   = "order_number"
	FieldWarrantyEnd   = "warranty_end"
	FieldAssignedUser  = "assigned_user_id"
)

var StaticFields = []string{
	FieldName,
	FieldStatus,
	FieldSerialNumber,
	FieldLocation,
	FieldTags,
	FieldAssetType,
	FieldPurchaseDate,
	FieldPurchasePrice,
	FieldVendor,
	FieldOrderNumber,
	FieldWarrantyEnd,
	FieldAssignedUser,
}

const (
	SourceManual = "manual"
	SourceImport = "import"
)

type Asset struct {
	ID             uuid.UUID
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
	Source         string
	Extra          *attribute.Map
}

type Type struct {
	ID          uuid.UUID
	Name        string
	Description string
}

type Status struct {
	ID          uuid.UUID
	Name        string
	Description string
	IsDefault   bool
}

// Set is the grouping entity rows can be attached to. User imports reuse it
// as a user group.
type Set struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedByID *uuid.UUID
}

type FieldTarget string

const (
	TargetAsset FieldTarget = "asset"
	TargetUser  FieldTarget = "user"
)

type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInteger   FieldType = "integer"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeDate      FieldType = "date"
	FieldTypeEnum      FieldType = "enum"
	FieldTypeReference FieldType = "reference"
)

// FieldDefinition is a tenant-registered dynamic attribute, optionally scoped
// to an asset set or an asset type.
type FieldDefinition struct {
	ID          uuid.UUID
	Target      FieldTarget
	Key         string
	Label       string
	Type        FieldType
	Required    bool
	AssetSetID  *uuid.UUID
	AssetTypeID *uuid.UUID
}

func (d FieldDefinition) Global() bool {
	return d.AssetSetID == nil && d.AssetTypeID == nil
}

// SplitTags accepts comma or semicolon separated tag lists.
func SplitTags(raw string) []string {
	sep := ""
	switch {
	case strings.Contains(raw, ","):
		sep = ","
	case strings.Contains(raw, ";"):
		sep = ";"
	}

	parts := []string{raw}
	if sep != "" {
		parts = strings.Split(raw, sep)
	}

	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
