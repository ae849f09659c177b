package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/prism/internal/activity"
)

// QueryActivities returns the records matching q in query order.
func (s *Store) QueryActivities(ctx context.Context, q activity.Query) ([]activity.Record, error) {
	records, _, err := s.queryRecords(ctx, q)
	return records, err
}

// QueryActivitiesPaginated returns one page of records and the total number
// of matches. The total is computed by the same statement as the page, so
// the query runs in lookup mode. An empty page reports a total of 0.
func (s *Store) QueryActivitiesPaginated(ctx context.Context, q activity.Query) (activity.PaginatedResult, error) {
	q = q.Clone()
	q.Lookup = true

	records, total, err := s.queryRecords(ctx, q)
	if err != nil {
		return activity.PaginatedResult{}, err
	}
	return activity.NewPaginatedResult(records, total, q.Offset, q.Limit), nil
}

func (s *Store) queryRecords(ctx context.Context, q activity.Query) ([]activity.Record, int64, error) {
	if err := s.checkReady(); err != nil {
		return nil, 0, err
	}

	query, args, err := s.builder.Select(q)
	if err != nil {
		return nil, 0, fmt.Errorf("build activity query: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	return s.mapper.MapRows(rows, q)
}

// Activity returns one activity by primary key with every stored field.
func (s *Store) Activity(ctx context.Context, id int64) (*activity.Activity, error) {
	records, err := s.QueryActivities(ctx, activity.Query{ActivityIDs: []int64{id}, Lookup: true, Modification: true})
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if a, ok := r.(*activity.Activity); ok {
			return a, nil
		}
	}
	return nil, fmt.Errorf("activity %d: %w", id, sql.ErrNoRows)
}

