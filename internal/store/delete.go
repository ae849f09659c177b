package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/prism/internal/activity"
)

// markReversedChunk bounds the ids per UPDATE statement.
const markReversedChunk = 500

// DeleteActivities deletes rows matching q whose primary key is in the
// inclusive range [low, high] and returns the number deleted.
func (s *Store) DeleteActivities(ctx context.Context, q activity.Query, low, high int64) (int64, error) {
	if err := s.checkReady(); err != nil {
		return 0, err
	}

	query, args, err := s.builder.Delete(q, low, high)
	if err != nil {
		return 0, fmt.Errorf("build activity delete: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete activities: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete activities: rows affected: %w", err)
	}
	return n, nil
}

// ActivitiesPKBounds returns the lowest and highest primary key matching q,
// or (0, 0) when nothing matches.
func (s *Store) ActivitiesPKBounds(ctx context.Context, q activity.Query) (int64, int64, error) {
	if err := s.checkReady(); err != nil {
		return 0, 0, err
	}

	query, args, err := s.builder.Bounds(q)
	if err != nil {
		return 0, 0, fmt.Errorf("build activity bounds: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var low, high sql.NullInt64
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&low, &high)
	if isNoRows(err) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("query activity bounds: %w", err)
	}
	return low.Int64, high.Int64, nil
}

// MarkReversed sets the reversed flag on the given activities. All updates
// commit together or not at all.
func (s *Store) MarkReversed(ctx context.Context, ids []int64, reversed bool) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mark reversed: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	prefix := "UPDATE " + s.registry.Activities() + " SET reversed = ? WHERE activity_id IN ("
	for start := 0; start < len(ids); start += markReversedChunk {
		chunk := ids[start:min(start+markReversedChunk, len(ids))]
		args := make([]any, 0, len(chunk)+1)
		args = append(args, reversed)
		for _, id := range chunk {
			args = append(args, id)
		}
		query := s.dialect.Rebind(prefix + placeholders(len(chunk)) + ")")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("mark reversed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mark reversed: commit: %w", err)
	}
	s.logger.Debug("activities marked", "count", len(ids), "reversed", reversed)
	return nil
}
