package schema

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestManager(t *testing.T, db *sql.DB, prefix string) *Manager {
	t.Helper()
	return NewManager(db, SQLite, NewRegistry(prefix), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestManager_MigrateCreatesTables(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := newTestManager(t, db, DefaultPrefix)

	require.NoError(t, m.Migrate(ctx))

	for _, table := range m.registry.AllTables() {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %q not found", table)
	}

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, version)
	assert.NoError(t, m.Verify(ctx))
}

func TestManager_MigrateIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := newTestManager(t, db, DefaultPrefix)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Migrate(ctx), "iteration %d", i)
	}

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM prism_meta").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestManager_LocationIndexExists(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := newTestManager(t, db, DefaultPrefix)
	require.NoError(t, m.Migrate(ctx))

	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
		"prism_idx_activities_location",
	).Scan(&name)
	assert.NoError(t, err)
}

func TestManager_CustomPrefix(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := newTestManager(t, db, "log_")
	require.NoError(t, m.Migrate(ctx))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM log_activities").Scan(&count))
	assert.Zero(t, count)
}

func TestManager_VerifyEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, openTestDB(t), DefaultPrefix)

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.ErrorIs(t, m.Verify(ctx), ErrSchemaOutdated)
}

func TestManager_RefusesNewerSchema(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := newTestManager(t, db, DefaultPrefix)
	require.NoError(t, m.Migrate(ctx))

	_, err := db.Exec("UPDATE prism_meta SET v = '99' WHERE k = 'schema_version'")
	require.NoError(t, err)

	assert.ErrorIs(t, m.Verify(ctx), ErrSchemaTooNew)
	assert.ErrorIs(t, m.Migrate(ctx), ErrSchemaTooNew)
}

func TestManager_UpgradesFromV1(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := newTestManager(t, db, DefaultPrefix)
	require.NoError(t, m.Migrate(ctx))

	_, err := db.Exec("UPDATE prism_meta SET v = '1' WHERE k = 'schema_version'")
	require.NoError(t, err)
	assert.ErrorIs(t, m.Verify(ctx), ErrSchemaOutdated)

	require.NoError(t, m.Migrate(ctx))
	assert.NoError(t, m.Verify(ctx))
}

func TestManager_RenderAppliesPrefix(t *testing.T) {
	m := newTestManager(t, openTestDB(t), "x_")
	ddl, err := m.Render("postgres_v2.sql")
	require.NoError(t, err)
	assert.Contains(t, ddl, "FUNCTION x_create_activity(")
	assert.NotContains(t, ddl, "{{prefix}}")
}
