package audit

import "github.com/google/uuid"

// Origin marks who caused a write. It is passed explicitly into every write
// path rather than read from ambient state.
type Origin string

const (
	OriginHuman  Origin = "human"
	OriginAI     Origin = "ai"
	OriginSystem Origin = "system"
)

func ParseOrigin(s string) Origin {
	switch Origin(s) {
	case OriginAI:
		return OriginAI
	case OriginSystem:
		return OriginSystem
	default:
		return OriginHuman
	}
}

const (
	EntityAsset           = "asset"
	EntityUser            = "user"
	EntityAssetType       = "asset_type"
	EntityAssetSet        = "asset_set"
	EntityFieldDefinition = "custom_field_definition"

	ActionCreate = "create"
	ActionUpdate = "update"
)

type Entry struct {
	ID         uuid.UUID
	EntityType string
	EntityID   string
	Action     string
	Changes    map[string]any
	UserID     *uuid.UUID
	Origin     Origin
}

func NewEntry(entityType string, entityID uuid.UUID, action string, changes map[string]any, actor *uuid.UUID, origin Origin) Entry {
	if origin == "" {
		origin = OriginHuman
		if actor == nil {
			origin = OriginSystem
		}
	}
	return Entry{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID.String(),
		Action:     action,
		Changes:    changes,
		UserID:     actor,
		Origin:     origin,
	}
}
