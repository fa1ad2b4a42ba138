package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/db/models"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/repository"
)

func TestCatalogRepositoryIntegration(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	repo := repository.NewCatalogRepository(gdb)

	setID := uuid.New()
	setName := uniqueName("Servers")
	if err := gdb.Create(&models.AssetSet{ID: setID.String(), Name: setName}).Error; err != nil {
		t.Fatalf("insert set failed: %v", err)
	}
	otherSet := uuid.New()
	if err := gdb.Create(&models.AssetSet{ID: otherSet.String(), Name: uniqueName("Other")}).Error; err != nil {
		t.Fatalf("insert set failed: %v", err)
	}

	globalKey, scopedKey, foreignKey := uniqueName("g"), uniqueName("s"), uniqueName("f")
	setText := setID.String()
	otherText := otherSet.String()
	for _, def := range []models.CustomFieldDefinition{
		{ID: uuid.NewString(), Target: "asset", Key: globalKey, Label: "Global", FieldType: "string"},
		{ID: uuid.NewString(), Target: "asset", Key: scopedKey, Label: "Scoped", FieldType: "integer", AssetSetID: &setText},
		{ID: uuid.NewString(), Target: "asset", Key: foreignKey, Label: "Foreign", FieldType: "string", AssetSetID: &otherText},
	} {
		if err := gdb.Create(&def).Error; err != nil {
			t.Fatalf("insert field failed: %v", err)
		}
	}

	defs, err := repo.FieldDefinitions(ctx, asset.TargetAsset, &setID)
	if err != nil {
		t.Fatalf("field definitions failed: %v", err)
	}
	keys := map[string]asset.FieldType{}
	for _, def := range defs {
		keys[def.Key] = def.Type
	}
	if _, ok := keys[globalKey]; !ok {
		t.Fatalf("expected global field %s", globalKey)
	}
	if keys[scopedKey] != asset.FieldTypeInteger {
		t.Fatalf("expected scoped integer field, got %v", keys)
	}
	if _, ok := keys[foreignKey]; ok {
		t.Fatalf("field of another set leaked")
	}

	globalOnly, err := repo.FieldDefinitions(ctx, asset.TargetAsset, nil)
	if err != nil {
		t.Fatalf("field definitions failed: %v", err)
	}
	for _, def := range globalOnly {
		if !def.Global() {
			t.Fatalf("expected only global definitions, got %+v", def)
		}
	}

	set, err := repo.GetSet(ctx, setID)
	if err != nil || set.Name != setName {
		t.Fatalf("unexpected set %+v err %v", set, err)
	}
	if _, err := repo.GetSet(ctx, uuid.New()); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}

	exists, err := repo.SetNameExists(ctx, setName)
	if err != nil || !exists {
		t.Fatalf("expected set name to exist, err %v", err)
	}

	statuses, err := repo.Statuses(ctx)
	if err != nil {
		t.Fatalf("statuses failed: %v", err)
	}
	defaults := 0
	for _, s := range statuses {
		if s.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		t.Fatalf("expected one default status, got %d", defaults)
	}

	roles, err := repo.Roles(ctx)
	if err != nil || len(roles) < 2 {
		t.Fatalf("expected seeded roles, got %v err %v", roles, err)
	}
}

func TestSettingsRepositoryValuesIntegration(t *testing.T) {
	gdb := openTestDB(t)
	key := uniqueName("setting")
	if err := gdb.Create(&models.SystemSetting{Key: key, Value: "25"}).Error; err != nil {
		t.Fatalf("insert setting failed: %v", err)
	}

	got, err := repository.NewSettingsRepository(gdb).Values(context.Background(), key, "missing_"+key)
	if err != nil {
		t.Fatalf("values failed: %v", err)
	}
	if len(got) != 1 || got[key] != "25" {
		t.Fatalf("unexpected settings: %v", got)
	}
}

func TestAssetRepositoryCreateIntegration(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	repo := repository.NewAssetRepository(gdb)

	statusID := seedStatus(t, gdb, uniqueName("status"))
	ok, err := repo.StatusExists(ctx, statusID)
	if err != nil || !ok {
		t.Fatalf("expected status to exist, err %v", err)
	}

	serial := "SN-" + uuid.NewString()[:8]
	a := asset.Asset{ID: uuid.New(), Name: "ThinkPad", SerialNumber: &serial, StatusID: &statusID}
	entry := audit.NewEntry(audit.EntityAsset, a.ID, audit.ActionCreate, map[string]any{"name": a.Name}, nil, "")
	if err := repo.Create(ctx, a, entry); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	exists, err := repo.SerialExists(ctx, serial)
	if err != nil || !exists {
		t.Fatalf("expected serial to exist, err %v", err)
	}

	var row models.Asset
	if err := gdb.First(&row, "id = ?", a.ID.String()).Error; err != nil {
		t.Fatalf("load asset failed: %v", err)
	}
	if row.Source != asset.SourceManual {
		t.Fatalf("unexpected source %q", row.Source)
	}

	var log models.AuditLog
	if err := gdb.First(&log, "entity_id = ?", a.ID.String()).Error; err != nil {
		t.Fatalf("load audit log failed: %v", err)
	}
	if log.Origin != string(audit.OriginSystem) {
		t.Fatalf("unexpected origin %q", log.Origin)
	}
}
