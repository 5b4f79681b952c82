package repository

import (
	"time"

	"github.com/okian/scoreboard/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithMaxOpenConns bounds the connection pool. Acquire blocks once every
// connection is checked out.
func WithMaxOpenConns(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithAcquireTimeout caps how long Acquire waits for a free connection.
func WithAcquireTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.acquireTimeout = d
		}
	}
}

// WithBusyTimeout sets SQLite's busy_timeout, the time a connection waits
// on another connection's lock before failing with SQLITE_BUSY.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.busyTimeout = d
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
