package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/prism/internal/activity"
)

// insertChunkRows bounds the rows per INSERT statement so the parameter
// count stays under every driver's limit.
const insertChunkRows = 40

var activityColumns = []string{
	"timestamp", "world_id", "x", "y", "z", "action_id",
	"affected_item_id", "affected_item_quantity", "affected_block_id", "replaced_block_id",
	"affected_entity_type_id", "affected_player_id",
	"cause_id", "cause_player_id", "cause_entity_type_id", "cause_block_id",
	"descriptor", "metadata", "serializer_version", "serialized_data", "reversed",
}

// insertBatchWriter resolves dimension ids through the cache and writes
// rows with multi-row INSERT statements.
type insertBatchWriter struct {
	store *Store
	rows  [][]any
}

func (w *insertBatchWriter) StartBatch() {
	w.rows = w.rows[:0]
}

func (w *insertBatchWriter) Len() int {
	return len(w.rows)
}

func (w *insertBatchWriter) Add(ctx context.Context, a *activity.Activity) error {
	s := w.store
	p, err := s.prepare(a)
	if err != nil {
		return s.dropped(a, err)
	}
	row, err := s.resolveRow(ctx, p)
	if err != nil {
		return s.dropped(a, err)
	}
	w.rows = append(w.rows, row)
	return nil
}

func (w *insertBatchWriter) CommitBatch(ctx context.Context) (int, error) {
	s := w.store
	rows := w.rows
	w.rows = nil
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.checkReady(); err != nil {
		return 0, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("commit batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for start := 0; start < len(rows); start += insertChunkRows {
		end := min(start+insertChunkRows, len(rows))
		query, args := s.insertStatement(rows[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("commit batch: insert activities: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	s.metrics.BatchCommitted(len(rows))
	s.logger.Debug("activity batch committed", "rows", len(rows), "writer", WriterInsert)
	return len(rows), nil
}

func (s *Store) insertStatement(rows [][]any) (string, []any) {
	tuple := "(" + placeholders(len(activityColumns)) + ")"
	var b strings.Builder
	b.WriteString("INSERT INTO " + s.registry.Activities() + " (" + strings.Join(activityColumns, ", ") + ") VALUES ")
	args := make([]any, 0, len(rows)*len(activityColumns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tuple)
		args = append(args, row...)
	}
	return s.dialect.Rebind(b.String()), args
}

// resolveRow maps every dimension reference in p to its surrogate id.
// The row is only returned when all references resolve.
func (s *Store) resolveRow(ctx context.Context, p prepared) ([]any, error) {
	a := p.a
	r := s.resolver

	worldID, err := r.ResolveWorld(ctx, a.World)
	if err != nil {
		return nil, fmt.Errorf("resolve world: %w", err)
	}
	actionID, err := r.ResolveAction(ctx, a.Action)
	if err != nil {
		return nil, fmt.Errorf("resolve action: %w", err)
	}

	var itemID, itemQty sql.NullInt64
	if a.Item != nil {
		id, err := r.ResolveItem(ctx, *a.Item)
		if err != nil {
			return nil, fmt.Errorf("resolve item: %w", err)
		}
		itemID = validID(id)
		itemQty = sql.NullInt64{Int64: int64(a.ItemQuantity), Valid: true}
	}

	var blockID, replacedID sql.NullInt64
	if a.Block != nil {
		id, err := r.ResolveBlock(ctx, *a.Block)
		if err != nil {
			return nil, fmt.Errorf("resolve block: %w", err)
		}
		blockID = validID(id)
	}
	if a.ReplacedBlock != nil {
		id, err := r.ResolveBlock(ctx, *a.ReplacedBlock)
		if err != nil {
			return nil, fmt.Errorf("resolve replaced block: %w", err)
		}
		replacedID = validID(id)
	}

	var entityID, playerID sql.NullInt64
	if a.EntityType != nil {
		id, err := r.ResolveEntityType(ctx, *a.EntityType)
		if err != nil {
			return nil, fmt.Errorf("resolve entity type: %w", err)
		}
		entityID = validID(id)
	}
	if a.Player != nil {
		id, err := r.ResolvePlayer(ctx, *a.Player)
		if err != nil {
			return nil, fmt.Errorf("resolve player: %w", err)
		}
		playerID = validID(id)
	}

	// Exactly one cause column is populated.
	var causeID, causePlayerID, causeEntityID, causeBlockID sql.NullInt64
	switch c := p.cause.(type) {
	case activity.NamedCause:
		id, err := r.ResolveCause(ctx, p.causeName)
		if err != nil {
			return nil, fmt.Errorf("resolve cause: %w", err)
		}
		causeID = validID(id)
	case activity.PlayerCause:
		id, err := r.ResolvePlayer(ctx, c.Player())
		if err != nil {
			return nil, fmt.Errorf("resolve cause player: %w", err)
		}
		causePlayerID = validID(id)
	case activity.EntityCause:
		id, err := r.ResolveEntityType(ctx, c.EntityType())
		if err != nil {
			return nil, fmt.Errorf("resolve cause entity type: %w", err)
		}
		causeEntityID = validID(id)
	case activity.BlockCause:
		id, err := r.ResolveBlock(ctx, c.Block())
		if err != nil {
			return nil, fmt.Errorf("resolve cause block: %w", err)
		}
		causeBlockID = validID(id)
	}

	return []any{
		p.timestamp, worldID, a.Coordinate.X, a.Coordinate.Y, a.Coordinate.Z, actionID,
		itemID, itemQty, blockID, replacedID,
		entityID, playerID,
		causeID, causePlayerID, causeEntityID, causeBlockID,
		p.descriptor, p.metadata, p.serializerVersion, p.serializedData, a.Reversed,
	}, nil
}

func validID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: true}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
