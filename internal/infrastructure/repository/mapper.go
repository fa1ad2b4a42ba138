package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/attribute"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
	"github.com/mohammadpnp/asset-import/internal/domain/user"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/db/models"
	"gorm.io/datatypes"
)

func uuidText(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseUUIDText(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}

func extraJSON(m *attribute.Map) (datatypes.JSON, error) {
	raw, err := m.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode extra attributes: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func extraFromJSON(raw datatypes.JSON) (*attribute.Map, error) {
	m := attribute.NewMap()
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("decode extra attributes: %w", err)
	}
	return m, nil
}

func auditRow(entry audit.Entry, now time.Time) (models.AuditLog, error) {
	var changes datatypes.JSON
	if entry.Changes != nil {
		raw, err := json.Marshal(entry.Changes)
		if err != nil {
			return models.AuditLog{}, fmt.Errorf("encode audit changes: %w", err)
		}
		changes = datatypes.JSON(raw)
	}
	id := entry.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return models.AuditLog{
		ID:         id.String(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Changes:    changes,
		UserID:     uuidText(entry.UserID),
		Origin:     string(entry.Origin),
		CreatedAt:  now,
	}, nil
}

func setRow(set asset.Set, now time.Time) models.AssetSet {
	return models.AssetSet{
		ID:          set.ID.String(),
		Name:        set.Name,
		Description: set.Description,
		CreatedByID: uuidText(set.CreatedByID),
		CreatedAt:   now,
	}
}

func fieldRow(def asset.FieldDefinition, now time.Time) models.CustomFieldDefinition {
	fieldType := string(def.Type)
	if fieldType == "" {
		fieldType = string(asset.FieldTypeString)
	}
	return models.CustomFieldDefinition{
		ID:          def.ID.String(),
		Target:      string(def.Target),
		Key:         def.Key,
		Label:       def.Label,
		FieldType:   fieldType,
		IsRequired:  def.Required,
		AssetSetID:  uuidText(def.AssetSetID),
		AssetTypeID: uuidText(def.AssetTypeID),
		CreatedAt:   now,
	}
}

func toDomainUser(row models.User) (*user.User, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", row.ID, err)
	}
	extra, err := extraFromJSON(row.Extra)
	if err != nil {
		return nil, err
	}

	roles := make([]string, 0, len(row.Roles))
	for _, role := range row.Roles {
		roles = append(roles, role.Name)
	}

	return &user.User{
		ID:                id,
		Email:             row.Email,
		FullName:          row.FullName,
		HashedPassword:    row.HashedPassword,
		IsActive:          row.IsActive,
		EmploymentEndDate: row.EmploymentEndDate,
		AssetSetID:        parseUUIDText(row.AssetSetID),
		Extra:             extra,
		Roles:             roles,
	}, nil
}

func userRow(u user.User, now time.Time) (models.User, error) {
	extra, err := extraJSON(u.Extra)
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		ID:                u.ID.String(),
		Email:             u.Email,
		FullName:          u.FullName,
		HashedPassword:    u.HashedPassword,
		IsActive:          u.IsActive,
		EmploymentEndDate: u.EmploymentEndDate,
		AssetSetID:        uuidText(u.AssetSetID),
		Extra:             extra,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}
