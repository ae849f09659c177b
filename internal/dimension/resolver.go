package dimension

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/prism/internal/activity"
	"github.com/roach88/prism/internal/metrics"
	"github.com/roach88/prism/internal/schema"
)

// Capacities bounds each dimension cache.
type Capacities struct {
	Actions     int `yaml:"actions" json:"actions" env:"ACTIONS"`
	Blocks      int `yaml:"blocks" json:"blocks" env:"BLOCKS"`
	Causes      int `yaml:"causes" json:"causes" env:"CAUSES"`
	EntityTypes int `yaml:"entity_types" json:"entity_types" env:"ENTITY_TYPES"`
	Items       int `yaml:"items" json:"items" env:"ITEMS"`
	Players     int `yaml:"players" json:"players" env:"PLAYERS"`
	Worlds      int `yaml:"worlds" json:"worlds" env:"WORLDS"`
}

// DefaultCapacities returns sizes that comfortably hold the vanilla content set.
func DefaultCapacities() Capacities {
	return Capacities{
		Actions:     100,
		Blocks:      4096,
		Causes:      256,
		EntityTypes: 256,
		Items:       2048,
		Players:     1024,
		Worlds:      32,
	}
}

// named pairs a surrogate id with the display name stored alongside it.
type named struct {
	ID   int64
	Name string
}

// Resolver maps dimension values to surrogate ids, creating rows on first use.
// It is safe for concurrent use.
type Resolver struct {
	db       *sql.DB
	dialect  schema.Dialect
	registry *schema.Registry
	logger   *slog.Logger

	actions     *Cache[int64]
	blocks      *Cache[int64]
	causes      *Cache[int64]
	entityTypes *Cache[int64]
	items       *Cache[int64]
	players     *Cache[named]
	worlds      *Cache[named]
}

// ResolverOption customizes NewResolver.
type ResolverOption func(*Resolver)

// WithLookupTimeout bounds each database lookup made on a cache miss.
// Lookups run detached from the caller, so this is their only deadline.
func WithLookupTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		for _, t := range r.timeouts() {
			*t = d
		}
	}
}

// NewResolver creates a resolver over db. m and logger may be nil.
func NewResolver(db *sql.DB, dialect schema.Dialect, registry *schema.Registry, caps Capacities, m *metrics.Metrics, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		db:          db,
		dialect:     dialect,
		registry:    registry,
		logger:      logger,
		actions:     NewCache[int64](schema.TableActions, caps.Actions, m),
		blocks:      NewCache[int64](schema.TableBlocks, caps.Blocks, m),
		causes:      NewCache[int64](schema.TableCauses, caps.Causes, m),
		entityTypes: NewCache[int64](schema.TableEntityTypes, caps.EntityTypes, m),
		items:       NewCache[int64](schema.TableItems, caps.Items, m),
		players:     NewCache[named](schema.TablePlayers, caps.Players, m),
		worlds:      NewCache[named](schema.TableWorlds, caps.Worlds, m),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) timeouts() []*time.Duration {
	return []*time.Duration{
		&r.actions.timeout,
		&r.blocks.timeout,
		&r.causes.timeout,
		&r.entityTypes.timeout,
		&r.items.timeout,
		&r.players.timeout,
		&r.worlds.timeout,
	}
}

// lookup describes how to find and create one dimension row. Both
// statements return the same columns, which are scanned into dest.
type lookup struct {
	table      string
	key        string
	selectSQL  string
	selectArgs []any
	insertSQL  string
	insertArgs []any
}

// getOrCreate selects the row, inserts it when missing, and re-selects once
// if the insert lost a race with another writer.
func (r *Resolver) getOrCreate(ctx context.Context, l lookup, dest ...any) error {
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(l.selectSQL), l.selectArgs...).Scan(dest...)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("select %s: %w", l.table, err)
	}

	err = r.db.QueryRowContext(ctx, r.dialect.Rebind(l.insertSQL), l.insertArgs...).Scan(dest...)
	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return fmt.Errorf("insert %s: %w", l.table, err)
	}

	r.logger.Debug("dimension insert race, re-selecting", "table", l.table, "key", l.key)
	if err := r.db.QueryRowContext(ctx, r.dialect.Rebind(l.selectSQL), l.selectArgs...).Scan(dest...); err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrUnresolvable, l.table, l.key, err)
	}
	return nil
}

func (r *Resolver) resolveID(ctx context.Context, c *Cache[int64], l lookup) (int64, error) {
	return c.GetOrCompute(ctx, l.key, func(ctx context.Context) (int64, error) {
		var id int64
		if err := r.getOrCreate(ctx, l, &id); err != nil {
			return 0, err
		}
		return id, nil
	})
}

// ResolveAction returns the id for an action-type key.
func (r *Resolver) ResolveAction(ctx context.Context, key string) (int64, error) {
	t := r.registry.Actions()
	return r.resolveID(ctx, r.actions, lookup{
		table:      t,
		key:        key,
		selectSQL:  "SELECT action_id FROM " + t + " WHERE action = ?",
		selectArgs: []any{key},
		insertSQL:  "INSERT INTO " + t + " (action) VALUES (?) RETURNING action_id",
		insertArgs: []any{key},
	})
}

// ResolveBlock returns the id for a block state. Namespace, name and data
// form the natural key; the translation key is stored on creation only.
func (r *Resolver) ResolveBlock(ctx context.Context, b activity.Block) (int64, error) {
	ns := b.Namespace
	if ns == "" {
		ns = activity.DefaultNamespace
	}
	t := r.registry.Blocks()
	return r.resolveID(ctx, r.blocks, lookup{
		table:      t,
		key:        compositeKey(ns, b.Name, b.Data),
		selectSQL:  "SELECT block_id FROM " + t + " WHERE ns = ? AND name = ? AND data = ?",
		selectArgs: []any{ns, b.Name, b.Data},
		insertSQL:  "INSERT INTO " + t + " (ns, name, data, translation_key) VALUES (?, ?, ?, ?) RETURNING block_id",
		insertArgs: []any{ns, b.Name, b.Data, nullString(b.TranslationKey)},
	})
}

// ResolveCause returns the id for a free-text cause name.
func (r *Resolver) ResolveCause(ctx context.Context, name string) (int64, error) {
	t := r.registry.Causes()
	return r.resolveID(ctx, r.causes, lookup{
		table:      t,
		key:        name,
		selectSQL:  "SELECT cause_id FROM " + t + " WHERE cause = ?",
		selectArgs: []any{name},
		insertSQL:  "INSERT INTO " + t + " (cause) VALUES (?) RETURNING cause_id",
		insertArgs: []any{name},
	})
}

// ResolveEntityType returns the id for an entity type.
func (r *Resolver) ResolveEntityType(ctx context.Context, e activity.EntityType) (int64, error) {
	t := r.registry.EntityTypes()
	return r.resolveID(ctx, r.entityTypes, lookup{
		table:      t,
		key:        e.Type,
		selectSQL:  "SELECT entity_type_id FROM " + t + " WHERE entity_type = ?",
		selectArgs: []any{e.Type},
		insertSQL:  "INSERT INTO " + t + " (entity_type, translation_key) VALUES (?, ?) RETURNING entity_type_id",
		insertArgs: []any{e.Type, nullString(e.TranslationKey)},
	})
}

// ResolveItem returns the id for an item material and data.
func (r *Resolver) ResolveItem(ctx context.Context, it activity.Item) (int64, error) {
	t := r.registry.Items()
	return r.resolveID(ctx, r.items, lookup{
		table:      t,
		key:        compositeKey(it.Material, it.Data),
		selectSQL:  "SELECT item_id FROM " + t + " WHERE material = ? AND data = ?",
		selectArgs: []any{it.Material, it.Data},
		insertSQL:  "INSERT INTO " + t + " (material, data) VALUES (?, ?) RETURNING item_id",
		insertArgs: []any{it.Material, it.Data},
	})
}

// ResolvePlayer returns the id for a player uuid, updating the stored name
// when it differs from p.Name.
func (r *Resolver) ResolvePlayer(ctx context.Context, p activity.Player) (int64, error) {
	t := r.registry.Players()
	id := p.UUID.String()
	return r.resolveNamed(ctx, r.players, "player", p.Name, lookup{
		table:      t,
		key:        id,
		selectSQL:  "SELECT player_id, player FROM " + t + " WHERE player_uuid = ?",
		selectArgs: []any{id},
		insertSQL:  "INSERT INTO " + t + " (player, player_uuid) VALUES (?, ?) RETURNING player_id, player",
		insertArgs: []any{p.Name, id},
	}, "UPDATE "+t+" SET player = ? WHERE player_id = ?")
}

// ResolveWorld returns the id for a world uuid, updating the stored name
// when it differs from w.Name.
func (r *Resolver) ResolveWorld(ctx context.Context, w activity.World) (int64, error) {
	t := r.registry.Worlds()
	id := w.UUID.String()
	return r.resolveNamed(ctx, r.worlds, "world", w.Name, lookup{
		table:      t,
		key:        id,
		selectSQL:  "SELECT world_id, world FROM " + t + " WHERE world_uuid = ?",
		selectArgs: []any{id},
		insertSQL:  "INSERT INTO " + t + " (world, world_uuid) VALUES (?, ?) RETURNING world_id, world",
		insertArgs: []any{w.Name, id},
	}, "UPDATE "+t+" SET world = ? WHERE world_id = ?")
}

func (r *Resolver) resolveNamed(ctx context.Context, c *Cache[named], kind, name string, l lookup, renameSQL string) (int64, error) {
	v, err := c.GetOrCompute(ctx, l.key, func(ctx context.Context) (named, error) {
		var n named
		if err := r.getOrCreate(ctx, l, &n.ID, &n.Name); err != nil {
			return named{}, err
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}

	if name != "" && v.Name != name {
		if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(renameSQL), name, v.ID); err != nil {
			return 0, fmt.Errorf("rename %s: %w", kind, err)
		}
		r.logger.Debug("dimension name refreshed", "kind", kind, "uuid", l.key, "old", v.Name, "new", name)
		c.Put(l.key, named{ID: v.ID, Name: name})
	}
	return v.ID, nil
}

// Stats returns a snapshot of every dimension cache, sorted by table name.
func (r *Resolver) Stats() []Stats {
	return []Stats{
		r.actions.Stats(),
		r.blocks.Stats(),
		r.causes.Stats(),
		r.entityTypes.Stats(),
		r.items.Stats(),
		r.players.Stats(),
		r.worlds.Stats(),
	}
}

// Reset empties every cache. Counters are kept.
func (r *Resolver) Reset() {
	r.actions.Clear()
	r.blocks.Clear()
	r.causes.Clear()
	r.entityTypes.Clear()
	r.items.Clear()
	r.players.Clear()
	r.worlds.Clear()
}

func compositeKey(parts ...string) string {
	return strings.Join(parts, "\x00")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
