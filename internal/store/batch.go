package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/prism/internal/activity"
)

// BatchWriter buffers activities for one flush cycle.
//
// Add may block on database round-trips and must not be called from a
// latency-sensitive goroutine. An activity is either fully buffered or
// dropped with a logged error; an Add error never affects other rows.
// CommitBatch writes every buffered row in one transaction and clears the
// buffer whether or not the commit succeeds.
type BatchWriter interface {
	StartBatch()
	Add(ctx context.Context, a *activity.Activity) error
	CommitBatch(ctx context.Context) (int, error)
	Len() int
}

// CreateActivityBatch returns a new batch writer using the configured
// strategy. The returned writer is already started.
func (s *Store) CreateActivityBatch() (BatchWriter, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	var w BatchWriter
	if s.writerKind() == WriterProcedure {
		w = &procedureBatchWriter{store: s}
	} else {
		w = &insertBatchWriter{store: s}
	}
	w.StartBatch()
	return w, nil
}

// prepared is an activity with its free-text columns normalized and its
// cause reduced to a single discriminant. Both writers build rows from it.
type prepared struct {
	a *activity.Activity

	timestamp  int64
	causeKind  activity.CauseKind
	cause      activity.Cause
	causeName  string
	descriptor sql.NullString
	metadata   sql.NullString

	serializerVersion sql.NullInt64
	serializedData    sql.NullString
}

// prepare validates a and applies the rules shared by every writer. The
// prepared row works on a copy of a with invalid UTF-8 replaced, so one bad
// string never fails the batch statement. Metadata that cannot be encoded is dropped and logged; the row survives.
func (s *Store) prepare(a *activity.Activity) (prepared, error) {
	if a == nil {
		return prepared{}, fmt.Errorf("activity is nil")
	}
	if a.Action == "" {
		return prepared{}, fmt.Errorf("activity has no action type")
	}
	if a.World.UUID == uuid.Nil {
		return prepared{}, fmt.Errorf("activity has no world")
	}

	a = a.Sanitized()
	p := prepared{a: a, timestamp: a.Timestamp}
	if p.timestamp <= 0 {
		p.timestamp = s.now().Unix()
	}

	p.cause = activity.Normalize(a.Cause)
	p.causeKind = activity.KindOf(p.cause)
	if nc, ok := p.cause.(activity.NamedCause); ok {
		p.causeName = activity.NormalizeCauseName(nc.Name)
		if p.causeName == "" {
			p.cause, p.causeKind = nil, activity.CauseNone
		}
	}

	if d := activity.NormalizeDescriptor(a.Descriptor); d != "" {
		p.descriptor = sql.NullString{String: d, Valid: true}
	}

	if a.Metadata != nil {
		data, err := marshalMetadata(a.Metadata)
		if err != nil {
			s.logger.Warn("dropping activity metadata",
				"action", a.Action,
				"error", err,
			)
		} else {
			p.metadata = sql.NullString{String: data, Valid: true}
		}
	}

	if a.CustomData != nil {
		p.serializerVersion = sql.NullInt64{Int64: int64(a.CustomData.Version), Valid: true}
		p.serializedData = sql.NullString{String: a.CustomData.Data, Valid: true}
	}
	return p, nil
}

// dropped logs and counts an activity that will not be written.
func (s *Store) dropped(a *activity.Activity, err error) error {
	attrs := []any{"error", err}
	if a != nil {
		attrs = append(attrs, "action", a.Action, "coordinate", a.Coordinate.String())
	}
	s.logger.Error("dropping activity from batch", attrs...)
	s.metrics.BatchDropped()
	return fmt.Errorf("add activity: %w", err)
}
