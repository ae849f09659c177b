// Package activity provides the domain types of the Prism activity log.
//
// This package contains value types only. Storage packages import activity;
// activity imports nothing internal. This keeps the domain model the
// foundational layer with no circular dependencies.
//
// Key types:
//   - Activity: one recorded world event (fact row)
//   - Cause: sum type over Named, Player, Entity and Block origins
//   - ActionType / ActionTypeRegistry: the known action keys
//   - Query: immutable filter and shape descriptor consumed by the query builder
//   - Record: a mapped read result (*Activity or *GroupedActivity)
//   - PaginatedResult: one page of records plus paging arithmetic
//
// Timestamps are epoch seconds. Coordinates are integer block positions.
package activity
