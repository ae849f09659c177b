// Package purge deletes activities matching a query in bounded primary-key
// windows.
//
// A single unbounded DELETE on a live activity table holds locks for as long
// as it takes to remove every row. The Cycler instead reads the lowest and
// highest matching primary key once, then deletes [low, low+chunk-1] windows
// until the range is exhausted. Each window is its own statement, so writers
// interleave between chunks.
//
// Cancellation is cooperative: the context is checked before each chunk and
// during the optional delay between chunks, never inside a statement. When a
// cycle stops early the Result still reports every row already deleted.
//
// Only one purge may run per owner at a time. Busy reports whether an owner
// has a purge in flight and PurgeInChunks refuses a second one with ErrBusy.
package purge
