// Package schema owns the relational layout of the activity log.
//
// It provides:
//   - Dialect: the SQL dialects the store speaks (SQLite, PostgreSQL)
//   - Registry: table names resolved against a configurable prefix, passed
//     to every component by constructor
//   - Manager: creates tables and indexes, tracks the schema version in the
//     meta table and runs versioned migrations
//
// # Schema Versions
//
//	1 - Dimension tables, activities fact table and indexes
//	2 - Server-side create_activity function (PostgreSQL only)
//
// The version lives in meta(k='schema_version'). A database older than
// CurrentVersion must be migrated before it accepts writes; a database newer
// than CurrentVersion is refused.
package schema
