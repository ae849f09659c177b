package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect identifies a SQL dialect.
type Dialect string

const (
	// SQLite is the file-embedded dialect. It has no DELETE ... USING form.
	SQLite Dialect = "sqlite"
	// Postgres is the PostgreSQL dialect.
	Postgres Dialect = "postgres"
)

// ParseDialect validates a dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case SQLite, Postgres:
		return d, nil
	case "sqlite3":
		return SQLite, nil
	case "postgresql", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", s)
	}
}

// SupportsDeleteUsing reports whether DELETE can join other tables directly.
func (d Dialect) SupportsDeleteUsing() bool {
	return d == Postgres
}

// SupportsProcedures reports whether server-side functions are available.
func (d Dialect) SupportsProcedures() bool {
	return d == Postgres
}

// Avg wraps expr in an average that scans as a float on every dialect.
func (d Dialect) Avg(expr string) string {
	if d == Postgres {
		return "CAST(AVG(" + expr + ") AS DOUBLE PRECISION)"
	}
	return "AVG(" + expr + ")"
}

// Rebind rewrites ? placeholders into the dialect's positional form.
// Question marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
