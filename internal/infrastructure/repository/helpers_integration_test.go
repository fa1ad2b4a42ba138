package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/db"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/db/models"
	"github.com/mohammadpnp/asset-import/internal/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	if err := db.Migrate(context.Background(), gdb, logger.NewNop()); err != nil {
		t.Fatalf("failed schema setup: %v", err)
	}
	return gdb
}

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), os.Getenv("TEST_DATABASE_URL"))
	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func seedStatus(t *testing.T, gdb *gorm.DB, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	if err := gdb.Create(&models.AssetStatus{ID: id.String(), Name: name}).Error; err != nil {
		t.Fatalf("insert status failed: %v", err)
	}
	return id
}
