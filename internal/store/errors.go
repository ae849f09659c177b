package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotReady is returned by operations on a closed store.
	ErrNotReady = errors.New("store is not ready")
	// ErrProcedureUnsupported is returned when the procedure batch writer is
	// requested on a dialect without server-side functions.
	ErrProcedureUnsupported = errors.New("procedure batch writer requires a dialect with stored functions")
)

// connectHints is logged with every connection failure.
var connectHints = []string{
	"check the database address",
	"check the port",
	"check the username and password",
	"check that no firewall blocks the connection",
	"check that the database server is running",
}

// ConnectError reports a failure to reach the database.
type ConnectError struct {
	Dialect string
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s database at %s: %v", e.Dialect, e.Address, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Hints returns the diagnostic checklist for the failure.
func (e *ConnectError) Hints() []string {
	return append([]string(nil), connectHints...)
}

// redact hides the password in a key=value or URL-style DSN.
func redact(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		rest := dsn[i+3:]
		if at := strings.LastIndex(rest, "@"); at >= 0 {
			if colon := strings.Index(rest[:at], ":"); colon >= 0 {
				return dsn[:i+3] + rest[:colon] + ":***" + rest[at:]
			}
		}
		return dsn
	}
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=***"
		}
	}
	return strings.Join(fields, " ")
}
