package activity

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// SortDirection orders results by timestamp.
type SortDirection int

const (
	// SortDescending returns newest activities first.
	SortDescending SortDirection = iota
	// SortAscending returns oldest activities first.
	SortAscending
)

func (d SortDirection) String() string {
	if d == SortAscending {
		return "ASC"
	}
	return "DESC"
}

// Query describes which activities to read or delete and how to shape them.
//
// A Query is built once per request and consumed read-only by the query
// builder. Zero values mean "no filter". List filters match any element.
//
// Mode flags:
//   - Lookup: include descriptor, metadata, cause detail and a total count
//   - Grouped: aggregate rows sharing dimension values into one record
//   - Modification: include the full block-state payload and replay ordering
type Query struct {
	ActivityIDs    []int64
	ActionTypeKeys []string
	WorldUUID      uuid.UUID

	// Coordinate matches one exact position. It takes precedence over the
	// bounding box when both are set.
	Coordinate    *Coordinate
	MinCoordinate *Coordinate
	MaxCoordinate *Coordinate

	// After and Before bound the timestamp (epoch seconds, inclusive).
	After  int64
	Before int64

	AffectedMaterials   []string
	AffectedBlocks      []string
	AffectedEntityTypes []string
	AffectedPlayerNames []string

	CauseNames       []string
	CausePlayerNames []string
	CauseEntityTypes []string
	CauseBlocks      []string

	Reversed *bool

	Sort   SortDirection
	Offset int
	Limit  int

	Lookup       bool
	Grouped      bool
	Modification bool
}

var (
	// ErrIncompleteBounds is returned when only one corner of a bounding box is set.
	ErrIncompleteBounds = errors.New("bounding box requires both min and max coordinates")
	// ErrConflictingModes is returned when Grouped and Modification are both set.
	ErrConflictingModes = errors.New("grouped and modification modes are mutually exclusive")
)

// Validate checks the query for contradictory settings.
func (q Query) Validate() error {
	if q.Coordinate == nil && (q.MinCoordinate == nil) != (q.MaxCoordinate == nil) {
		return ErrIncompleteBounds
	}
	if q.Grouped && q.Modification {
		return ErrConflictingModes
	}
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("invalid pagination: offset=%d limit=%d", q.Offset, q.Limit)
	}
	if q.After > 0 && q.Before > 0 && q.After > q.Before {
		return fmt.Errorf("invalid time range: after %d is later than before %d", q.After, q.Before)
	}
	return nil
}

// HasBoundingBox reports whether the query filters by a box rather than a point.
func (q Query) HasBoundingBox() bool {
	return q.Coordinate == nil && q.MinCoordinate != nil && q.MaxCoordinate != nil
}

// Clone returns a deep copy of q.
func (q Query) Clone() Query {
	c := q
	c.ActivityIDs = slices.Clone(q.ActivityIDs)
	c.ActionTypeKeys = slices.Clone(q.ActionTypeKeys)
	c.AffectedMaterials = slices.Clone(q.AffectedMaterials)
	c.AffectedBlocks = slices.Clone(q.AffectedBlocks)
	c.AffectedEntityTypes = slices.Clone(q.AffectedEntityTypes)
	c.AffectedPlayerNames = slices.Clone(q.AffectedPlayerNames)
	c.CauseNames = slices.Clone(q.CauseNames)
	c.CausePlayerNames = slices.Clone(q.CausePlayerNames)
	c.CauseEntityTypes = slices.Clone(q.CauseEntityTypes)
	c.CauseBlocks = slices.Clone(q.CauseBlocks)
	c.Coordinate = clonePtr(q.Coordinate)
	c.MinCoordinate = clonePtr(q.MinCoordinate)
	c.MaxCoordinate = clonePtr(q.MaxCoordinate)
	c.Reversed = clonePtr(q.Reversed)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// QueryBuilder assembles a Query fluently. Build returns an independent copy,
// so a builder can be reused as a template.
type QueryBuilder struct {
	q Query
}

// NewQuery starts a new query builder.
func NewQuery() *QueryBuilder {
	return &QueryBuilder{}
}

func (b *QueryBuilder) ActivityIDs(ids ...int64) *QueryBuilder {
	b.q.ActivityIDs = append(b.q.ActivityIDs, ids...)
	return b
}

func (b *QueryBuilder) Actions(keys ...string) *QueryBuilder {
	b.q.ActionTypeKeys = append(b.q.ActionTypeKeys, keys...)
	return b
}

func (b *QueryBuilder) World(id uuid.UUID) *QueryBuilder {
	b.q.WorldUUID = id
	return b
}

func (b *QueryBuilder) At(c Coordinate) *QueryBuilder {
	b.q.Coordinate = &c
	return b
}

func (b *QueryBuilder) Between(min, max Coordinate) *QueryBuilder {
	b.q.MinCoordinate = &min
	b.q.MaxCoordinate = &max
	return b
}

// Radius bounds the query to a cube of the given radius around center.
func (b *QueryBuilder) Radius(center Coordinate, r int) *QueryBuilder {
	return b.Between(
		Coordinate{X: center.X - r, Y: center.Y - r, Z: center.Z - r},
		Coordinate{X: center.X + r, Y: center.Y + r, Z: center.Z + r},
	)
}

func (b *QueryBuilder) After(ts int64) *QueryBuilder {
	b.q.After = ts
	return b
}

func (b *QueryBuilder) Before(ts int64) *QueryBuilder {
	b.q.Before = ts
	return b
}

func (b *QueryBuilder) Materials(materials ...string) *QueryBuilder {
	b.q.AffectedMaterials = append(b.q.AffectedMaterials, materials...)
	return b
}

func (b *QueryBuilder) Blocks(names ...string) *QueryBuilder {
	b.q.AffectedBlocks = append(b.q.AffectedBlocks, names...)
	return b
}

func (b *QueryBuilder) EntityTypes(types ...string) *QueryBuilder {
	b.q.AffectedEntityTypes = append(b.q.AffectedEntityTypes, types...)
	return b
}

func (b *QueryBuilder) AffectedPlayers(names ...string) *QueryBuilder {
	b.q.AffectedPlayerNames = append(b.q.AffectedPlayerNames, names...)
	return b
}

func (b *QueryBuilder) Causes(names ...string) *QueryBuilder {
	b.q.CauseNames = append(b.q.CauseNames, names...)
	return b
}

func (b *QueryBuilder) CausePlayers(names ...string) *QueryBuilder {
	b.q.CausePlayerNames = append(b.q.CausePlayerNames, names...)
	return b
}

func (b *QueryBuilder) CauseEntityTypes(types ...string) *QueryBuilder {
	b.q.CauseEntityTypes = append(b.q.CauseEntityTypes, types...)
	return b
}

func (b *QueryBuilder) CauseBlocks(names ...string) *QueryBuilder {
	b.q.CauseBlocks = append(b.q.CauseBlocks, names...)
	return b
}

func (b *QueryBuilder) Reversed(reversed bool) *QueryBuilder {
	b.q.Reversed = &reversed
	return b
}

func (b *QueryBuilder) Sort(d SortDirection) *QueryBuilder {
	b.q.Sort = d
	return b
}

func (b *QueryBuilder) Page(offset, limit int) *QueryBuilder {
	b.q.Offset = offset
	b.q.Limit = limit
	return b
}

func (b *QueryBuilder) Lookup() *QueryBuilder {
	b.q.Lookup = true
	return b
}

func (b *QueryBuilder) Grouped() *QueryBuilder {
	b.q.Grouped = true
	return b
}

// Modification shapes the query for rollback (reversed=false) or
// restore (reversed=true) replay.
func (b *QueryBuilder) Modification(reversed bool) *QueryBuilder {
	b.q.Modification = true
	return b.Reversed(reversed)
}

// Build validates and returns an independent copy of the query.
func (b *QueryBuilder) Build() (Query, error) {
	q := b.q.Clone()
	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}
