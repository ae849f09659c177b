package query

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/prism/internal/activity"
	"github.com/roach88/prism/internal/schema"
)

// Dimension names a joined table a predicate or column depends on.
// Dimensions are rendered in declaration order.
type Dimension int

const (
	// DimFact is the activities table itself; it needs no join.
	DimFact Dimension = iota
	DimAction
	DimWorld
	DimItem
	DimBlock
	DimReplacedBlock
	DimEntityType
	DimPlayer
	DimCause
	DimCausePlayer
	DimCauseEntityType
	DimCauseBlock

	dimensionCount
)

type joinKind int

const (
	innerJoin joinKind = iota
	leftJoin
)

// joinSpec describes how one dimension attaches to the fact table.
type joinSpec struct {
	table string
	alias string
	on    string
	kind  joinKind
}

var joinSpecs = [dimensionCount]joinSpec{
	DimAction:          {schema.TableActions, "act", "act.action_id = a.action_id", innerJoin},
	DimWorld:           {schema.TableWorlds, "w", "w.world_id = a.world_id", innerJoin},
	DimItem:            {schema.TableItems, "i", "i.item_id = a.affected_item_id", leftJoin},
	DimBlock:           {schema.TableBlocks, "b", "b.block_id = a.affected_block_id", leftJoin},
	DimReplacedBlock:   {schema.TableBlocks, "rb", "rb.block_id = a.replaced_block_id", leftJoin},
	DimEntityType:      {schema.TableEntityTypes, "et", "et.entity_type_id = a.affected_entity_type_id", leftJoin},
	DimPlayer:          {schema.TablePlayers, "ap", "ap.player_id = a.affected_player_id", leftJoin},
	DimCause:           {schema.TableCauses, "c", "c.cause_id = a.cause_id", leftJoin},
	DimCausePlayer:     {schema.TablePlayers, "cp", "cp.player_id = a.cause_player_id", leftJoin},
	DimCauseEntityType: {schema.TableEntityTypes, "cet", "cet.entity_type_id = a.cause_entity_type_id", leftJoin},
	DimCauseBlock:      {schema.TableBlocks, "cb", "cb.block_id = a.cause_block_id", leftJoin},
}

// Predicate is one SQL condition and the dimension join it requires.
type Predicate struct {
	Dim  Dimension
	SQL  string
	Args []any
}

// Plan is the compiled, immutable shape of a query.
type Plan struct {
	query      activity.Query
	predicates []Predicate
}

// NewPlan validates q and derives its predicates. Each set filter
// contributes exactly one predicate; empty filters contribute none.
func NewPlan(q activity.Query) (*Plan, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	q = q.Clone()

	var preds []Predicate
	add := func(dim Dimension, sql string, args ...any) {
		preds = append(preds, Predicate{Dim: dim, SQL: sql, Args: args})
	}
	in := func(dim Dimension, column string, values []any) {
		if len(values) > 0 {
			add(dim, column+" IN ("+placeholders(len(values))+")", values...)
		}
	}
	blocks := func(dim Dimension, alias string, values []string) {
		if len(values) > 0 {
			sql, args := blockFilter(alias, values)
			add(dim, sql, args...)
		}
	}

	in(DimFact, "a.activity_id", anySlice(q.ActivityIDs))
	in(DimAction, "act.action", anySlice(q.ActionTypeKeys))
	if q.WorldUUID != uuid.Nil {
		add(DimWorld, "w.world_uuid = ?", q.WorldUUID.String())
	}

	switch {
	case q.Coordinate != nil:
		add(DimFact, "a.x = ? AND a.y = ? AND a.z = ?", q.Coordinate.X, q.Coordinate.Y, q.Coordinate.Z)
	case q.HasBoundingBox():
		lo, hi := q.MinCoordinate, q.MaxCoordinate
		add(DimFact, "a.x BETWEEN ? AND ? AND a.y BETWEEN ? AND ? AND a.z BETWEEN ? AND ?",
			min(lo.X, hi.X), max(lo.X, hi.X),
			min(lo.Y, hi.Y), max(lo.Y, hi.Y),
			min(lo.Z, hi.Z), max(lo.Z, hi.Z))
	}

	switch {
	case q.After > 0 && q.Before > 0:
		add(DimFact, "a.timestamp BETWEEN ? AND ?", q.After, q.Before)
	case q.After > 0:
		add(DimFact, "a.timestamp >= ?", q.After)
	case q.Before > 0:
		add(DimFact, "a.timestamp <= ?", q.Before)
	}

	in(DimItem, "i.material", anySlice(q.AffectedMaterials))
	blocks(DimBlock, "b", q.AffectedBlocks)
	in(DimEntityType, "et.entity_type", anySlice(q.AffectedEntityTypes))
	in(DimPlayer, "ap.player", anySlice(q.AffectedPlayerNames))
	in(DimCause, "c.cause", anySlice(q.CauseNames))
	in(DimCausePlayer, "cp.player", anySlice(q.CausePlayerNames))
	in(DimCauseEntityType, "cet.entity_type", anySlice(q.CauseEntityTypes))
	blocks(DimCauseBlock, "cb", q.CauseBlocks)

	if q.Reversed != nil {
		add(DimFact, "a.reversed = ?", *q.Reversed)
	}

	return &Plan{query: q, predicates: preds}, nil
}

// Query returns the query the plan was built from.
func (p *Plan) Query() activity.Query {
	return p.query.Clone()
}

// Predicates returns a copy of the plan's predicates in render order.
func (p *Plan) Predicates() []Predicate {
	out := make([]Predicate, len(p.predicates))
	copy(out, p.predicates)
	return out
}

// filterJoins returns the dimensions the predicates depend on.
func (p *Plan) filterJoins() []Dimension {
	var need [dimensionCount]bool
	for _, pred := range p.predicates {
		need[pred.Dim] = true
	}
	return collect(need)
}

// selectJoins returns the dimensions a select reads from.
func (p *Plan) selectJoins() []Dimension {
	var need [dimensionCount]bool
	for _, d := range []Dimension{DimAction, DimWorld, DimItem, DimBlock, DimEntityType, DimPlayer} {
		need[d] = true
	}
	if !p.query.Grouped && (p.query.Lookup || p.query.Modification) {
		need[DimReplacedBlock] = true
	}
	if p.query.Lookup {
		for d := DimCause; d <= DimCauseBlock; d++ {
			need[d] = true
		}
	}
	for _, pred := range p.predicates {
		need[pred.Dim] = true
	}
	return collect(need)
}

func collect(need [dimensionCount]bool) []Dimension {
	var dims []Dimension
	for d := DimAction; d < dimensionCount; d++ {
		if need[d] {
			dims = append(dims, d)
		}
	}
	return dims
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func anySlice[T any](values []T) []any {
	if len(values) == 0 {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// blockFilter matches bare names on name alone and "ns:name" values on
// both columns.
func blockFilter(alias string, values []string) (string, []any) {
	var names, args []any
	var terms []string
	for _, v := range values {
		if ns, name, ok := strings.Cut(v, ":"); ok {
			terms = append(terms, "("+alias+".ns = ? AND "+alias+".name = ?)")
			args = append(args, ns, name)
			continue
		}
		names = append(names, v)
	}
	if len(names) > 0 {
		terms = append([]string{alias + ".name IN (" + placeholders(len(names)) + ")"}, terms...)
		args = append(names, args...)
	}
	if len(terms) == 1 && len(names) > 0 {
		return terms[0], args
	}
	return "(" + strings.Join(terms, " OR ") + ")", args
}
