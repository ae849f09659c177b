package schema

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var ddlFS embed.FS

// Schema version tracking:
// 0 - Empty database (pre-migration)
// 1 - Core dimension and fact tables
// 2 - create_activity server-side function (PostgreSQL)
const CurrentVersion = 2

const versionKey = "schema_version"

var (
	// ErrSchemaOutdated means the database must be migrated before use.
	ErrSchemaOutdated = errors.New("schema is outdated: run migrations before accepting writes")
	// ErrSchemaTooNew means the database was migrated by a newer build.
	ErrSchemaTooNew = errors.New("schema is newer than this build supports")
)

type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sql.Tx) error
}

// Manager creates and migrates the activity log schema.
type Manager struct {
	db       *sql.DB
	dialect  Dialect
	registry *Registry
	logger   *slog.Logger
}

// NewManager creates a schema manager for db.
func NewManager(db *sql.DB, dialect Dialect, registry *Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{db: db, dialect: dialect, registry: registry, logger: logger}
}

// Migrate applies every pending migration, each in its own transaction.
// This function is idempotent.
func (m *Manager) Migrate(ctx context.Context) error {
	if err := m.ensureMeta(ctx); err != nil {
		return err
	}

	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	if version > CurrentVersion {
		return fmt.Errorf("%w: database version %d, supported %d", ErrSchemaTooNew, version, CurrentVersion)
	}

	for _, mig := range m.migrations() {
		if mig.version <= version {
			continue
		}
		if err := m.applyMigration(ctx, mig); err != nil {
			return err
		}
		m.logger.Info("schema migrated",
			"version", mig.version,
			"migration", mig.name,
			"dialect", string(m.dialect),
		)
	}

	return nil
}

// Verify checks that the database schema matches CurrentVersion.
func (m *Manager) Verify(ctx context.Context) error {
	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	switch {
	case version < CurrentVersion:
		return fmt.Errorf("%w: database version %d, required %d", ErrSchemaOutdated, version, CurrentVersion)
	case version > CurrentVersion:
		return fmt.Errorf("%w: database version %d, supported %d", ErrSchemaTooNew, version, CurrentVersion)
	}
	return nil
}

// Version returns the stored schema version, 0 for an empty database.
func (m *Manager) Version(ctx context.Context) (int, error) {
	exists, err := m.tableExists(ctx, m.registry.Meta())
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var raw string
	err = m.db.QueryRowContext(ctx, m.dialect.Rebind(
		"SELECT v FROM "+m.registry.Meta()+" WHERE k = ?"), versionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get schema version: %w", err)
	}

	version, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", raw, err)
	}
	return version, nil
}

func (m *Manager) migrations() []migration {
	return []migration{
		{
			version: 1,
			name:    "core tables",
			apply: func(ctx context.Context, tx *sql.Tx) error {
				return m.execFile(ctx, tx, string(m.dialect)+"_v1.sql")
			},
		},
		{
			version: 2,
			name:    "create_activity function",
			apply: func(ctx context.Context, tx *sql.Tx) error {
				// SQLite has no server-side functions; the version still advances
				// so both dialects share one version line.
				if !m.dialect.SupportsProcedures() {
					return nil
				}
				return m.execFile(ctx, tx, string(m.dialect)+"_v2.sql")
			},
		},
	}
}

func (m *Manager) applyMigration(ctx context.Context, mig migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate to v%d: begin tx: %w", mig.version, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := mig.apply(ctx, tx); err != nil {
		return fmt.Errorf("migrate to v%d (%s): %w", mig.version, mig.name, err)
	}

	_, err = tx.ExecContext(ctx, m.dialect.Rebind(
		"INSERT INTO "+m.registry.Meta()+" (k, v) VALUES (?, ?) ON CONFLICT (k) DO UPDATE SET v = excluded.v"),
		versionKey, strconv.Itoa(mig.version))
	if err != nil {
		return fmt.Errorf("migrate to v%d: set version: %w", mig.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate to v%d: commit: %w", mig.version, err)
	}
	return nil
}

func (m *Manager) ensureMeta(ctx context.Context) error {
	idColumn := "meta_id INTEGER PRIMARY KEY AUTOINCREMENT"
	if m.dialect == Postgres {
		idColumn = "meta_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		%s,
		k TEXT NOT NULL UNIQUE,
		v TEXT NOT NULL
	)`, m.registry.Meta(), idColumn)

	if _, err := m.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

func (m *Manager) tableExists(ctx context.Context, table string) (bool, error) {
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	if m.dialect == Postgres {
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	}

	var count int
	if err := m.db.QueryRowContext(ctx, m.dialect.Rebind(query), table).Scan(&count); err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return count > 0, nil
}

func (m *Manager) execFile(ctx context.Context, tx *sql.Tx, name string) error {
	ddl, err := m.Render(name)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	return nil
}

// Render returns an embedded DDL file with the table prefix applied.
func (m *Manager) Render(name string) (string, error) {
	data, err := ddlFS.ReadFile("sql/" + name)
	if err != nil {
		return "", fmt.Errorf("read ddl %s: %w", name, err)
	}
	return strings.ReplaceAll(string(data), "{{prefix}}", m.registry.Prefix()), nil
}
