// Package dimension resolves natural keys to surrogate ids for the
// normalized dimension tables (actions, blocks, causes, entity types,
// items, players, worlds).
//
// Each table has its own bounded LRU Cache. A Resolver consults the cache
// first, then selects by natural key, and finally inserts a new row. A
// unique-constraint violation on insert means a concurrent writer created
// the row first; the Resolver re-selects once before giving up with
// ErrUnresolvable.
//
// Concurrent resolutions of the same key within one process share a single
// database round-trip (see Cache.GetOrCompute). Races between processes are
// recovered by the re-select.
package dimension
