package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/craftid/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
	require.False(t, IsPostgres(db))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	migrator := db.Migrator()
	require.True(t, migrator.HasTable(&models.CraftID{}))
	require.True(t, migrator.HasTable(&models.Counter{}))
	require.True(t, migrator.HasIndex(&models.CraftID{}, "idx_craftids_art_name_norm"))
	require.True(t, migrator.HasIndex(&models.CraftID{}, "idx_craftids_public_id"))
	require.True(t, migrator.HasIndex(&models.CraftID{}, "idx_craftids_public_hash"))

	var counters []models.Counter
	require.NoError(t, db.Find(&counters).Error)
	require.Len(t, counters, 1)
	require.Equal(t, DefaultCounter, counters[0].Name)
	require.Zero(t, counters[0].Value)
}

func TestMigrateRejectsUnsafeCounterName(t *testing.T) {
	db := openTestDB(t)

	err := Migrate(context.Background(), db, "seq; DROP TABLE craftids")
	require.Error(t, err)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
