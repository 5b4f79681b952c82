package repository

import (
	"context"
	"errors"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Sentinel kinds for store errors. Every error leaving this package wraps
// exactly one of them.
var (
	// ErrStorageUnavailable means the backing file could not be opened or
	// its schema could not be applied.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrPoolExhausted means no pooled connection freed up within the
	// acquire timeout. It is transient; callers may retry with backoff.
	ErrPoolExhausted = errors.New("connection pool exhausted or timed out")
	// ErrStorage covers engine failures: I/O, constraint violations and
	// rows that fail to scan.
	ErrStorage = errors.New("storage error")
)

// IsConstraintViolation reports whether err carries a SQLite constraint
// failure (NOT NULL, UNIQUE, CHECK, ...).
func IsConstraintViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3lib.SQLITE_CONSTRAINT
	}
	return false
}

// Kind returns a short label for the error kind, for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPoolExhausted):
		return "pool_exhausted"
	case errors.Is(err, ErrStorageUnavailable):
		return "unavailable"
	case IsConstraintViolation(err):
		return "constraint"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "storage"
	}
}
