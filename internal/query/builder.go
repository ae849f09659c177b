package query

import (
	"fmt"
	"strings"

	"github.com/roach88/prism/internal/activity"
	"github.com/roach88/prism/internal/schema"
)

// Builder renders query plans as SQL for one dialect and table registry.
// A Builder is immutable and safe for concurrent use.
type Builder struct {
	dialect  schema.Dialect
	registry *schema.Registry
}

// NewBuilder creates a builder.
func NewBuilder(dialect schema.Dialect, registry *schema.Registry) *Builder {
	return &Builder{dialect: dialect, registry: registry}
}

// Dialect returns the dialect statements are rendered for.
func (b *Builder) Dialect() schema.Dialect {
	return b.dialect
}

// Select compiles the read statement for q.
// Returns (sql, params, error).
func (b *Builder) Select(q activity.Query) (string, []any, error) {
	p, err := NewPlan(q)
	if err != nil {
		return "", nil, err
	}
	return b.SelectPlan(p)
}

// SelectPlan compiles the read statement for a prepared plan.
func (b *Builder) SelectPlan(p *Plan) (string, []any, error) {
	q := p.query
	joins := p.selectJoins()
	if err := checkJoins(p.predicates, joins); err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	var args []any

	var selected []column
	if q.Grouped {
		selected = b.groupedColumns(q, joins)
	} else {
		selected = b.rowColumns(q, joins)
	}
	names := make([]string, len(selected))
	for i, c := range selected {
		names[i] = c.String()
	}
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(names, ",\n  "))

	sb.WriteString("\nFROM " + b.registry.Activities() + " a")
	for _, d := range joins {
		spec := joinSpecs[d]
		if spec.kind == leftJoin {
			sb.WriteString("\nLEFT JOIN ")
		} else {
			sb.WriteString("\nJOIN ")
		}
		sb.WriteString(b.registry.Table(spec.table) + " " + spec.alias + " ON " + spec.on)
	}

	args = writeWhere(&sb, conditions(p.predicates, nil), args, p.predicates)

	if q.Grouped {
		var group []string
		for _, c := range selected {
			if !isAggregate(c) {
				group = append(group, c.expr)
			}
		}
		sb.WriteString("\nGROUP BY " + strings.Join(group, ", "))
	}

	var order []string
	switch {
	case q.Grouped:
		order = groupedOrder(q.Sort)
	case q.Modification:
		order = replayOrder(q.Sort)
	default:
		order = defaultOrder(q.Sort)
	}
	sb.WriteString("\nORDER BY " + strings.Join(order, ", "))

	if q.Limit > 0 {
		sb.WriteString("\nLIMIT ? OFFSET ?")
		args = append(args, q.Limit, q.Offset)
	}

	return b.dialect.Rebind(sb.String()), args, nil
}

// Delete compiles a delete of the rows matching q whose primary key lies in
// the inclusive range [low, high]. Mode flags, sort and pagination are ignored.
func (b *Builder) Delete(q activity.Query, low, high int64) (string, []any, error) {
	if low > high {
		return "", nil, fmt.Errorf("invalid delete range: %d > %d", low, high)
	}
	p, err := NewPlan(q)
	if err != nil {
		return "", nil, err
	}

	joins := p.filterJoins()
	rng := Predicate{Dim: DimFact, SQL: "a.activity_id BETWEEN ? AND ?", Args: []any{low, high}}
	preds := append(p.Predicates(), rng)

	var sb strings.Builder
	var args []any

	if b.dialect.SupportsDeleteUsing() {
		sb.WriteString("DELETE FROM " + b.registry.Activities() + " AS a")
		if len(joins) > 0 {
			using := make([]string, len(joins))
			on := make([]string, len(joins))
			for i, d := range joins {
				spec := joinSpecs[d]
				using[i] = b.registry.Table(spec.table) + " " + spec.alias
				on[i] = spec.on
			}
			sb.WriteString("\nUSING " + strings.Join(using, ", "))
			args = writeWhere(&sb, conditions(preds, on), args, preds)
		} else {
			args = writeWhere(&sb, conditions(preds, nil), args, preds)
		}
		return b.dialect.Rebind(sb.String()), args, nil
	}

	sb.WriteString("DELETE FROM " + b.registry.Activities())
	sb.WriteString("\nWHERE activity_id IN (\nSELECT a.activity_id")
	b.writeFilterFrom(&sb, joins)
	args = writeWhere(&sb, conditions(preds, nil), args, preds)
	sb.WriteString("\n)")
	return b.dialect.Rebind(sb.String()), args, nil
}

// Bounds compiles the MIN/MAX primary key lookup for rows matching q.
func (b *Builder) Bounds(q activity.Query) (string, []any, error) {
	p, err := NewPlan(q)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT MIN(a.activity_id) AS " + ColMinID + ", MAX(a.activity_id) AS " + ColMaxID)
	b.writeFilterFrom(&sb, p.filterJoins())
	args := writeWhere(&sb, conditions(p.predicates, nil), nil, p.predicates)
	return b.dialect.Rebind(sb.String()), args, nil
}

func (b *Builder) writeFilterFrom(sb *strings.Builder, joins []Dimension) {
	sb.WriteString("\nFROM " + b.registry.Activities() + " a")
	for _, d := range joins {
		spec := joinSpecs[d]
		sb.WriteString("\nJOIN " + b.registry.Table(spec.table) + " " + spec.alias + " ON " + spec.on)
	}
}

func (b *Builder) rowColumns(q activity.Query, joins []Dimension) []column {
	out := cols(col("a.activity_id"), col("a.timestamp"), col("a.x"), col("a.y"), col("a.z"))
	for _, d := range joins {
		out = append(out, dimensionColumns(d, false)...)
		if d == DimItem {
			out = append(out, as("a.affected_item_quantity", ColItemQuantity))
		}
	}
	out = append(out, col("a.reversed"))
	if q.Lookup {
		out = append(out, col("a.descriptor"), col("a.metadata"))
	}
	if q.Modification {
		out = append(out, col("a.serializer_version"), col("a.serialized_data"))
	}
	if q.Lookup {
		out = append(out, as("COUNT(*) OVER()", ColTotalResults))
	}
	return out
}

func (b *Builder) groupedColumns(q activity.Query, joins []Dimension) []column {
	var out []column
	for _, d := range joins {
		out = append(out, dimensionColumns(d, true)...)
	}
	out = append(out, col("a.reversed"))
	if q.Lookup {
		out = append(out, col("a.descriptor"))
	}
	out = append(out,
		as(b.dialect.Avg("a.x"), ColAvgX),
		as(b.dialect.Avg("a.y"), ColAvgY),
		as(b.dialect.Avg("a.z"), ColAvgZ),
		as(b.dialect.Avg("a.timestamp"), ColAvgTimestamp),
		as("COUNT(*)", ColGroupCount),
	)
	if q.Lookup {
		out = append(out, as("COUNT(*) OVER()", ColTotalResults))
	}
	return out
}

func isAggregate(c column) bool {
	switch c.alias {
	case ColAvgX, ColAvgY, ColAvgZ, ColAvgTimestamp, ColGroupCount, ColTotalResults:
		return true
	}
	return false
}

// conditions returns join conditions followed by predicate SQL.
func conditions(preds []Predicate, joinConds []string) []string {
	out := append([]string(nil), joinConds...)
	for _, p := range preds {
		out = append(out, p.SQL)
	}
	return out
}

func writeWhere(sb *strings.Builder, conds []string, args []any, preds []Predicate) []any {
	for i, c := range conds {
		if i == 0 {
			sb.WriteString("\nWHERE " + c)
		} else {
			sb.WriteString("\n  AND " + c)
		}
	}
	for _, p := range preds {
		args = append(args, p.Args...)
	}
	return args
}

// checkJoins verifies every predicate's dimension is joined.
func checkJoins(preds []Predicate, joins []Dimension) error {
	joined := map[Dimension]bool{DimFact: true}
	for _, d := range joins {
		joined[d] = true
	}
	for _, p := range preds {
		if !joined[p.Dim] {
			return fmt.Errorf("predicate %q requires join %q", p.SQL, joinSpecs[p.Dim].alias)
		}
	}
	return nil
}
