package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/prism/internal/schema"
)

// Batch writer strategies.
const (
	WriterInsert    = "insert"
	WriterProcedure = "procedure"
)

// Config configures a Store.
type Config struct {
	// Dialect is "sqlite" or "postgres".
	Dialect string `yaml:"dialect" json:"dialect" env:"DIALECT"`
	// Driver overrides the database/sql driver name. SQLite accepts
	// "sqlite3" (cgo) and "sqlite" (pure Go); PostgreSQL uses "pgx".
	Driver string `yaml:"driver" json:"driver" env:"DRIVER"`
	// Path is the SQLite database file. Ignored when DSN is set.
	Path string `yaml:"path" json:"path" env:"PATH"`
	// DSN is the driver connection string.
	DSN          string        `yaml:"dsn" json:"dsn" env:"DSN"`
	TablePrefix  string        `yaml:"table_prefix" json:"table_prefix" env:"TABLE_PREFIX"`
	MaxOpenConns int           `yaml:"max_open_conns" json:"max_open_conns" env:"MAX_OPEN_CONNS"`
	BatchWriter  string        `yaml:"batch_writer" json:"batch_writer" env:"BATCH_WRITER"`
	AutoMigrate  bool          `yaml:"auto_migrate" json:"auto_migrate" env:"AUTO_MIGRATE"`
	QueryTimeout time.Duration `yaml:"query_timeout" json:"query_timeout" env:"QUERY_TIMEOUT"`
}

// DefaultConfig returns a local SQLite configuration.
func DefaultConfig() Config {
	return Config{
		Dialect:      string(schema.SQLite),
		Path:         "prism.db",
		TablePrefix:  schema.DefaultPrefix,
		BatchWriter:  WriterInsert,
		AutoMigrate:  true,
		QueryTimeout: 30 * time.Second,
	}
}

// driverName returns the database/sql driver for the dialect.
func (c Config) driverName(d schema.Dialect) (string, error) {
	switch d {
	case schema.SQLite:
		switch c.Driver {
		case "", "sqlite3":
			return "sqlite3", nil
		case "sqlite":
			return "sqlite", nil
		}
	case schema.Postgres:
		switch c.Driver {
		case "", "pgx":
			return "pgx", nil
		}
	}
	return "", fmt.Errorf("driver %q is not supported for dialect %s", c.Driver, d)
}

// sqlitePragmas must hold on every pooled connection, so they travel in
// the DSN rather than being executed once after connecting.
var sqlitePragmas = []struct{ name, value string }{
	{"busy_timeout", "5000"},
	{"foreign_keys", "1"},
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
}

// dataSource returns the connection string for driver. SQLite sources get
// the required pragmas in the driver's own query syntax; pragmas already
// present in a configured DSN are left as given.
func (c Config) dataSource(d schema.Dialect, driver string) (string, error) {
	if d != schema.SQLite {
		if c.DSN == "" {
			return "", fmt.Errorf("%s requires a dsn", d)
		}
		return c.DSN, nil
	}

	dsn := c.DSN
	if dsn == "" {
		if c.Path == "" {
			return "", fmt.Errorf("%s requires a path or dsn", d)
		}
		dsn = "file:" + c.Path
	}

	var params []string
	for _, p := range sqlitePragmas {
		if strings.Contains(dsn, p.name+"=") || strings.Contains(dsn, p.name+"(") {
			continue
		}
		if driver == "sqlite" {
			params = append(params, "_pragma="+p.name+"("+p.value+")")
		} else {
			params = append(params, "_"+p.name+"="+p.value)
		}
	}
	if len(params) == 0 {
		return dsn, nil
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&"), nil
}

func (c Config) maxOpenConns(d schema.Dialect) int {
	if c.MaxOpenConns > 0 {
		return c.MaxOpenConns
	}
	if d == schema.SQLite {
		// SQLite allows one writer at a time.
		return 1
	}
	return 10
}
