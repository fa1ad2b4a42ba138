package importing

import (
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/domain/user"
)

// Schema is the compiled-in part of the catalog for one job kind: its static
// field keys and the header spellings accepted for them.
type Schema struct {
	Kind     domain.JobKind
	Target   asset.FieldTarget
	static   map[string]struct{}
	synonyms map[string]string
}

var assetSynonyms = map[string][]string{
	asset.FieldSerialNumber:  {"serial", "serial_number", "servicetag", "service_tag", "serial_tag", "s_n", "sn"},
	asset.FieldStatus:        {"status", "state", "current_state", "current_status"},
	asset.FieldLocation:      {"location", "site", "room"},
	asset.FieldAssetType:     {"category", "type", "model_type", "asset_type"},
	asset.FieldPurchasePrice: {"purchase_price", "price", "bought_price"},
	asset.FieldPurchaseDate:  {"bought_date", "purchase_date", "date_bought"},
	asset.FieldVendor:        {"supplier", "vendor"},
	asset.FieldOrderNumber:   {"po_number", "order_number", "po"},
	asset.FieldWarrantyEnd:   {"warranty_end", "warranty_date"},
	asset.FieldAssignedUser:  {"assigned_user", "assigned_to", "owner", "user"},
	asset.FieldTags:          {"tags", "tag"},
}

var userSynonyms = map[string][]string{
	user.FieldEmail:             {"email_address", "mail", "e_mail"},
	user.FieldFullName:          {"name", "fullname", "display_name"},
	user.FieldRole:              {"role_name"},
	user.FieldIsActive:          {"active", "enabled"},
	user.FieldEmploymentEndDate: {"end_date", "employment_end"},
}

// Header spellings that can supply an asset name when no column is mapped to
// the name field. An asset id column is the last resort before a placeholder.
var (
	nameFallbacks  = map[string]struct{}{"name": {}, "item_name": {}, "asset_name": {}, "model": {}}
	nameLastResort = map[string]struct{}{"assetid": {}, "asset_id": {}}
)

// Status value spellings commonly found in exports, keyed by lowercased cell
// value.
var statusValueSynonyms = map[string]string{
	"deployed":          "active",
	"in storage":        "in_stock",
	"in-stock":          "in_stock",
	"in stock":          "in_stock",
	"under repair":      "fix",
	"broken":            "broken",
	"damaged":           "broken",
	"retired":           "retired",
	"lost":              "lost",
	"stolen":            "lost",
	"awaiting disposal": "disposal",
	"disposal":          "disposal",
	"reserved":          "reserved",
	"ordered":           "ordered",
}

// Semantics of static asset fields, sent to the suggestion provider.
var assetFieldDescriptions = map[string]string{
	asset.FieldName:          "The primary name or title of the asset (e.g. 'Dell XPS 15', 'MacBook Pro')",
	asset.FieldSerialNumber:  "Unique hardware identifier (e.g. SN-12345, Service Tag)",
	asset.FieldStatus:        "Current lifecycle state (e.g. Active, In Stock, Broken, Retired)",
	asset.FieldLocation:      "Physical location (e.g. New York Office, Warehouse A)",
	asset.FieldAssetType:     "Category or type of device (e.g. Laptop, Monitor, Printer)",
	asset.FieldPurchaseDate:  "Date the asset was bought",
	asset.FieldPurchasePrice: "Cost of the asset",
	asset.FieldVendor:        "Supplier or vendor name",
	asset.FieldOrderNumber:   "Purchase order number or invoice ID",
	asset.FieldWarrantyEnd:   "Date when warranty expires",
	asset.FieldAssignedUser:  "Person the asset is assigned to (email or name)",
	asset.FieldTags:          "Comma or semicolon separated labels",
}

var userFieldDescriptions = map[string]string{
	user.FieldEmail:             "Login email address of the person",
	user.FieldFullName:          "Full display name of the person",
	user.FieldRole:              "Role name granted to a new account (e.g. user, admin)",
	user.FieldPassword:          "Initial password for a new account",
	user.FieldIsActive:          "Whether the account is enabled (true/false, yes/no)",
	user.FieldEmploymentEndDate: "Date the person's employment ends",
}

func SchemaFor(kind domain.JobKind) Schema {
	if kind == domain.KindUserImport {
		return newSchema(kind, asset.TargetUser, user.StaticFields, userSynonyms)
	}
	return newSchema(domain.KindAssetImport, asset.TargetAsset, asset.StaticFields, assetSynonyms)
}

func newSchema(kind domain.JobKind, target asset.FieldTarget, static []string, synonyms map[string][]string) Schema {
	s := Schema{
		Kind:     kind,
		Target:   target,
		static:   make(map[string]struct{}, len(static)),
		synonyms: map[string]string{},
	}
	for _, key := range static {
		s.static[key] = struct{}{}
	}
	for target, spellings := range synonyms {
		for _, spelling := range spellings {
			s.synonyms[spelling] = target
		}
	}
	return s
}

func (s Schema) IsStatic(key string) bool {
	_, ok := s.static[key]
	return ok
}

// Synonym returns the static field an alternate header spelling stands for.
func (s Schema) Synonym(key string) (string, bool) {
	target, ok := s.synonyms[key]
	return target, ok
}

func (s Schema) Descriptions() map[string]string {
	if s.Kind == domain.KindUserImport {
		return userFieldDescriptions
	}
	return assetFieldDescriptions
}
