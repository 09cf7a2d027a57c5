// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/typecode/accounts/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

func openMemory(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func tableExists(t *testing.T, db *sqlx.DB, name string) bool {
	t.Helper()
	var count int64
	err := db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", name)
	require.NoError(t, err)
	return count == 1
}

func TestOpen_InMemory(t *testing.T) {
	db, err := database.Open(":memory:")

	require.NoError(t, err)
	require.NotNil(t, db)

	err = db.Close()
	require.NoError(t, err)
}

func TestOpen_DefaultDSN(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	_ = os.Chdir(tmpDir)
	defer func() {
		_ = os.Chdir(oldWd)
	}()

	db, err := database.Open("")

	require.NoError(t, err)
	require.NotNil(t, db)
	defer func() {
		_ = db.Close()
	}()

	_, err = os.Stat(filepath.Join(tmpDir, "data", "app.db"))
	assert.NoError(t, err)
}

func TestOpen_MigrationsApplied(t *testing.T) {
	db := openMemory(t)

	for _, table := range []string{"accounts", "companies", "ships", "cruises", "cruise_members"} {
		assert.True(t, tableExists(t, db, table), "table %s should exist", table)
	}

	version, err := database.Version(db.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
}

func TestOpen_ForeignKeysEnforced(t *testing.T) {
	db := openMemory(t)

	var enabled int
	require.NoError(t, db.Get(&enabled, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, enabled)

	_, err := db.Exec("INSERT INTO cruise_members (user_id, cruise_id, joined_at) VALUES (42, 42, 0)")
	assert.Error(t, err)
}

func TestOpen_CatalogSeeded(t *testing.T) {
	db := openMemory(t)

	var companies, ships int
	require.NoError(t, db.Get(&companies, "SELECT count(*) FROM companies"))
	require.NoError(t, db.Get(&ships, "SELECT count(*) FROM ships"))
	assert.Positive(t, companies)
	assert.Positive(t, ships)

	_, err := db.Exec("INSERT INTO cruises (departure_date, ship_id, created_at) VALUES ('2030-01-01', 9999, 0)")
	assert.Error(t, err)
}

func TestOpen_EmailUniqueIgnoresCase(t *testing.T) {
	db := openMemory(t)

	insert := `INSERT INTO accounts (first_name, last_name, email, password_hash, created_at, updated_at)
		VALUES ('Ann', 'Lee', ?, 'x', 0, 0)`
	_, err := db.Exec(insert, "ann@example.com")
	require.NoError(t, err)

	_, err = db.Exec(insert, "ANN@example.com")
	assert.Error(t, err)
}

func TestOpen_WithExistingParams(t *testing.T) {
	db, err := database.Open(":memory:?_pragma=busy_timeout(1000)")

	require.NoError(t, err)
	require.NotNil(t, db)
	defer func() {
		_ = db.Close()
	}()

	var timeout int
	require.NoError(t, db.Get(&timeout, "PRAGMA busy_timeout"))
	assert.Equal(t, 1000, timeout)
}

func TestOpen_PragmasApplied(t *testing.T) {
	db := openMemory(t)

	var journalMode string
	err := db.Get(&journalMode, "PRAGMA journal_mode")
	require.NoError(t, err)
	assert.NotEmpty(t, journalMode)

	var synchronous int
	err = db.Get(&synchronous, "PRAGMA synchronous")
	require.NoError(t, err)
	assert.NotZero(t, synchronous)
}

func TestOpen_FileDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "test.db")

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	assert.True(t, tableExists(t, db, "accounts"))
}

func TestMigrateDownAndReset(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	require.NoError(t, database.MigrateDown(db.DB))
	assert.False(t, tableExists(t, db, "cruises"))
	assert.True(t, tableExists(t, db, "ships"))
	assert.True(t, tableExists(t, db, "accounts"))

	require.NoError(t, database.MigrateReset(db.DB))
	assert.False(t, tableExists(t, db, "accounts"))

	require.NoError(t, database.RunMigrations(db.DB))
	assert.True(t, tableExists(t, db, "cruise_members"))
}
