// Package query compiles an activity.Query into dialect-specific SQL.
//
// Compilation happens in two steps. NewPlan derives an immutable Plan from
// the query: a list of predicates, each tagged with the dimension join it
// depends on. A Builder then renders the plan as one of three statements:
//
//   - Select: joined, filtered, ordered and paginated read
//   - Delete: the same filter restricted to an inclusive primary-key range
//   - Bounds: MIN/MAX primary key of the matching rows
//
// Values are always bound as parameters, never interpolated. Every select
// carries an explicit ORDER BY.
//
// Select joins Action and World as inner joins and the other fact
// dimensions as left joins. Cause joins are added only for lookups or when
// a predicate filters on that cause kind. Delete and Bounds join only what
// their predicates need, as inner joins, which selects the same rows.
//
// Dialects without DELETE ... USING delete through an IN subquery over the
// same joins.
package query
