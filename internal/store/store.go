package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	"github.com/roach88/prism/internal/activity"
	"github.com/roach88/prism/internal/dimension"
	"github.com/roach88/prism/internal/metrics"
	"github.com/roach88/prism/internal/query"
	"github.com/roach88/prism/internal/schema"
)

// Store is the activity log storage adapter.
type Store struct {
	db       *sql.DB
	cfg      Config
	dialect  schema.Dialect
	registry *schema.Registry
	schema   *schema.Manager
	resolver *dimension.Resolver
	builder  *query.Builder
	mapper   *Mapper
	actions  *activity.ActionTypeRegistry
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
	ready    atomic.Bool
}

// Option customizes Open.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	actions    *activity.ActionTypeRegistry
	capacities dimension.Capacities
	now        func() time.Time
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the store's Prometheus collectors with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithActionTypes sets the registry used to validate action keys on read.
func WithActionTypes(r *activity.ActionTypeRegistry) Option {
	return func(o *options) { o.actions = r }
}

// WithCacheCapacities bounds the dimension caches.
func WithCacheCapacities(c dimension.Capacities) Option {
	return func(o *options) { o.capacities = c }
}

// WithClock sets the time source used to stamp activities without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Open connects to the configured database, verifies or migrates the schema
// and returns a ready store.
//
// With AutoMigrate disabled, an outdated schema fails with
// schema.ErrSchemaOutdated. A schema written by a newer build always fails
// with schema.ErrSchemaTooNew.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	o := options{
		logger:     slog.Default(),
		actions:    activity.DefaultActionTypeRegistry(),
		capacities: dimension.DefaultCapacities(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	dialect, err := schema.ParseDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	if cfg.BatchWriter == WriterProcedure && !dialect.SupportsProcedures() {
		return nil, fmt.Errorf("%w: dialect %s", ErrProcedureUnsupported, dialect)
	}
	if cfg.BatchWriter != "" && cfg.BatchWriter != WriterInsert && cfg.BatchWriter != WriterProcedure {
		return nil, fmt.Errorf("unknown batch writer %q", cfg.BatchWriter)
	}
	driver, err := cfg.driverName(dialect)
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.dataSource(dialect, driver)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if o.registerer != nil {
		if m, err = metrics.New(o.registerer); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.maxOpenConns(dialect))
	if dialect == schema.SQLite {
		db.SetMaxIdleConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		cerr := &ConnectError{Dialect: string(dialect), Address: address(dialect, dsn), Err: err}
		o.logger.Error("database connection failed",
			"dialect", string(dialect),
			"address", cerr.Address,
			"error", err,
			"hints", cerr.Hints(),
		)
		return nil, cerr
	}

	registry := schema.NewRegistry(cfg.TablePrefix)
	manager := schema.NewManager(db, dialect, registry, o.logger)
	if cfg.AutoMigrate {
		err = manager.Migrate(ctx)
	} else {
		err = manager.Verify(ctx)
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:       db,
		cfg:      cfg,
		dialect:  dialect,
		registry: registry,
		schema:   manager,
		resolver: dimension.NewResolver(db, dialect, registry, o.capacities, m, o.logger, dimension.WithLookupTimeout(cfg.QueryTimeout)),
		builder:  query.NewBuilder(dialect, registry),
		mapper:   NewMapper(o.actions, o.logger),
		actions:  o.actions,
		metrics:  m,
		logger:   o.logger,
		now:      o.now,
	}
	s.ready.Store(true)

	o.logger.Info("store ready",
		"dialect", string(dialect),
		"driver", driver,
		"prefix", registry.Prefix(),
		"batch_writer", s.writerKind(),
	)
	return s, nil
}

// Ready reports whether the store accepts operations.
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// Close closes the connection pool. It is safe to call more than once.
func (s *Store) Close() error {
	if !s.ready.CompareAndSwap(true, false) {
		return nil
	}
	return s.db.Close()
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() schema.Dialect {
	return s.dialect
}

// Registry returns the table registry.
func (s *Store) Registry() *schema.Registry {
	return s.registry
}

// Builder returns the query builder bound to this store's dialect.
func (s *Store) Builder() *query.Builder {
	return s.builder
}

// SchemaVersion returns the stored schema version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	if err := s.checkReady(); err != nil {
		return 0, err
	}
	return s.schema.Version(ctx)
}

// CacheStats returns a snapshot of every dimension cache.
func (s *Store) CacheStats() []dimension.Stats {
	return s.resolver.Stats()
}

// TableCount is the row count of one physical table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// TableCounts counts the rows of every table, dimensions first.
func (s *Store) TableCounts(ctx context.Context) ([]TableCount, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tables := s.registry.AllTables()
	counts := make([]TableCount, 0, len(tables))
	for _, t := range tables {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		counts = append(counts, TableCount{Table: t, Rows: n})
	}
	return counts, nil
}

func (s *Store) checkReady() error {
	if !s.ready.Load() {
		return ErrNotReady
	}
	return nil
}

// withTimeout applies the configured per-operation timeout.
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}

func (s *Store) writerKind() string {
	if s.cfg.BatchWriter == "" {
		return WriterInsert
	}
	return s.cfg.BatchWriter
}

// address describes where the store tried to connect, without credentials.
func address(d schema.Dialect, dsn string) string {
	if d != schema.Postgres {
		path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
		return path
	}
	pc, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return redact(dsn)
	}
	return net.JoinHostPort(pc.Host, strconv.Itoa(int(pc.Port)))
}

// isNoRows reports whether err means an empty single-row result.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
