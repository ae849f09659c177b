package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/prism/internal/activity"
)

// procedureParams is the fixed parameter count of create_activity.
const procedureParams = 36

// procedureBatchWriter hands each activity to the server-side
// create_activity function, which resolves dimensions in the database.
// It produces the same rows as insertBatchWriter.
//
// Each call runs under its own savepoint; a call the server rejects is
// rolled back and dropped, and the rest of the batch still commits.
type procedureBatchWriter struct {
	store *Store
	calls []procedureCall
}

type procedureCall struct {
	a    *activity.Activity
	args []any
}

const activitySavepoint = "prism_activity"

func (w *procedureBatchWriter) StartBatch() {
	w.calls = w.calls[:0]
}

func (w *procedureBatchWriter) Len() int {
	return len(w.calls)
}

func (w *procedureBatchWriter) Add(_ context.Context, a *activity.Activity) error {
	s := w.store
	p, err := s.prepare(a)
	if err != nil {
		return s.dropped(a, err)
	}
	w.calls = append(w.calls, procedureCall{a: a, args: procedureArgs(p)})
	return nil
}

func (w *procedureBatchWriter) CommitBatch(ctx context.Context) (int, error) {
	s := w.store
	calls := w.calls
	w.calls = nil
	if len(calls) == 0 {
		return 0, nil
	}
	if err := s.checkReady(); err != nil {
		return 0, err
	}
	if !s.dialect.SupportsProcedures() {
		return 0, ErrProcedureUnsupported
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("commit batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	call := s.dialect.Rebind("SELECT " + s.registry.CreateActivityFunction() + "(" + placeholders(procedureParams) + ")")
	stmt, err := tx.PrepareContext(ctx, call)
	if err != nil {
		return 0, fmt.Errorf("commit batch: prepare: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, c := range calls {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+activitySavepoint); err != nil {
			return 0, fmt.Errorf("commit batch: savepoint: %w", err)
		}
		var id int64
		if err := stmt.QueryRowContext(ctx, c.args...).Scan(&id); err != nil {
			if ctx.Err() != nil {
				return 0, fmt.Errorf("commit batch: create activity: %w", err)
			}
			if _, rerr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+activitySavepoint); rerr != nil {
				return 0, fmt.Errorf("commit batch: rollback to savepoint: %w", rerr)
			}
			_ = s.dropped(c.a, err)
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+activitySavepoint); err != nil {
			return 0, fmt.Errorf("commit batch: release savepoint: %w", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	s.metrics.BatchCommitted(written)
	s.logger.Debug("activity batch committed", "rows", written, "dropped", len(calls)-written, "writer", WriterProcedure)
	return written, nil
}

// procedureArgs lays p out in create_activity parameter order.
func procedureArgs(p prepared) []any {
	a := p.a
	args := make([]any, 0, procedureParams)

	args = append(args,
		p.timestamp,
		a.World.UUID.String(), a.World.Name,
		a.Coordinate.X, a.Coordinate.Y, a.Coordinate.Z,
		a.Action,
	)

	if a.Item != nil {
		args = append(args, a.Item.Material, a.Item.Data, a.ItemQuantity)
	} else {
		args = append(args, nil, nil, nil)
	}

	args = append(args, blockArgs(a.Block)...)
	args = append(args, blockArgs(a.ReplacedBlock)...)

	if a.EntityType != nil {
		args = append(args, a.EntityType.Type, nullString(a.EntityType.TranslationKey))
	} else {
		args = append(args, nil, nil)
	}

	if a.Player != nil {
		args = append(args, a.Player.UUID.String(), a.Player.Name)
	} else {
		args = append(args, nil, nil)
	}

	// Cause: name, player (uuid, name), entity (type, key), block (ns, name, data, key).
	cause := make([]any, 9)
	switch c := p.cause.(type) {
	case activity.NamedCause:
		cause[0] = p.causeName
	case activity.PlayerCause:
		cause[1], cause[2] = c.UUID.String(), c.Name
	case activity.EntityCause:
		cause[3], cause[4] = c.Type, nullString(c.TranslationKey)
	case activity.BlockCause:
		b := c.Block()
		copy(cause[5:], blockArgs(&b))
	}
	args = append(args, cause...)

	args = append(args, p.descriptor, p.metadata, p.serializerVersion, p.serializedData, a.Reversed)
	return args
}

func blockArgs(b *activity.Block) []any {
	if b == nil {
		return []any{nil, nil, nil, nil}
	}
	ns := b.Namespace
	if ns == "" {
		ns = activity.DefaultNamespace
	}
	return []any{ns, b.Name, b.Data, nullString(b.TranslationKey)}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
