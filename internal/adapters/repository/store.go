// Package repository owns the SQLite file backing the leaderboard and hands
// out pooled connections to it.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"

	defaultMaxOpenConns   = 4
	defaultAcquireTimeout = 5 * time.Second
	defaultBusyTimeout    = 5 * time.Second
	dirPermission         = 0o750
)

// Store is an explicitly owned handle on the leaderboard database. It is
// safe for concurrent use; the engine's own locking orders writers.
type Store struct {
	db *sqlx.DB

	path           string
	maxOpenConns   int
	acquireTimeout time.Duration
	busyTimeout    time.Duration

	logger logger.Logger
}

func newStore(opts []Option) *Store {
	s := &Store{
		maxOpenConns:   defaultMaxOpenConns,
		acquireTimeout: defaultAcquireTimeout,
		busyTimeout:    defaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("store")
	}
	return s
}

// Open opens or creates the SQLite file at path, sizes the connection pool
// and ensures the schema exists. Failures wrap ErrStorageUnavailable.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := newStore(opts)
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: storage path is required", ErrStorageUnavailable)
	}
	s.path = filepath.Clean(path)

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, dirPermission); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", ErrStorageUnavailable, dir, err)
		}
	}

	db, err := sqlx.Open(driverName, s.dsn())
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", ErrStorageUnavailable, err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %w", ErrStorageUnavailable, err)
	}
	if err := applySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	s.db = db

	s.logger.Info(ctx, "store opened",
		logger.String("path", s.path),
		logger.Int("maxOpenConns", s.maxOpenConns),
		logger.Duration("acquireTimeout", s.acquireTimeout),
	)
	return s, nil
}

// NewWithDB wraps an already opened database. The caller owns the schema;
// this is how tests plug in a mocked driver.
func NewWithDB(db *sqlx.DB, opts ...Option) *Store {
	s := newStore(opts)
	db.SetMaxOpenConns(s.maxOpenConns)
	s.db = db
	return s
}

// dsn builds the modernc connection string. Pragmas run on every new
// connection, so each pooled connection gets WAL and the busy timeout.
func (s *Store) dsn() string {
	pragmas := []string{
		fmt.Sprintf("busy_timeout(%d)", s.busyTimeout.Milliseconds()),
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
	}
	var b strings.Builder
	b.WriteString(s.path)
	b.WriteString("?_txlock=immediate")
	for _, p := range pragmas {
		b.WriteString("&_pragma=")
		b.WriteString(p)
	}
	return b.String()
}

// Path returns the backing file path; empty for NewWithDB stores.
func (s *Store) Path() string {
	return s.path
}

// Acquire checks out one pooled connection, waiting at most the acquire
// timeout. The caller must Close the connection on every path; prefer
// WithConn. A wait that ends before a connection frees up (timeout or ctx
// cancellation) wraps ErrPoolExhausted.
func (s *Store) Acquire(ctx context.Context) (*sqlx.Conn, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("%w: store is not open", ErrStorage)
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	start := time.Now()
	conn, err := s.db.Connx(waitCtx)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			metrics.RecordStoreAcquire(elapsed, true)
			return nil, fmt.Errorf("%w: waited %s: %w", ErrPoolExhausted, time.Since(start).Round(time.Millisecond), err)
		}
		metrics.RecordStoreAcquire(elapsed, false)
		return nil, fmt.Errorf("%w: acquire connection: %w", ErrStorage, err)
	}
	metrics.RecordStoreAcquire(elapsed, false)
	return conn, nil
}

// WithConn runs fn on a pooled connection and releases it afterwards,
// including when fn fails or panics. Errors from fn are returned unchanged.
func (s *Store) WithConn(ctx context.Context, fn func(ctx context.Context, conn *sqlx.Conn) error) error {
	conn, err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, sql.ErrConnDone) {
			s.logger.Warn(ctx, "release connection failed", logger.Error(cerr))
		}
	}()
	return fn(ctx, conn)
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.WithConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		if err := conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM scores`); err != nil {
			return fmt.Errorf("%w: count scores: %w", ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.UpdateTotalEntries(n)
	return n, nil
}

// Ping verifies a connection can be established and used.
func (s *Store) Ping(ctx context.Context) error {
	return s.WithConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		if err := conn.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: ping: %w", ErrStorage, err)
		}
		return nil
	})
}

// Stats returns a pool snapshot and publishes it to metrics.
func (s *Store) Stats() sql.DBStats {
	st := s.db.Stats()
	metrics.UpdateStorePool(st.OpenConnections, st.InUse, st.Idle, st.WaitCount)
	return st
}

// Close closes every pooled connection. It is safe to call more than once.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.logger.Info(context.Background(), "store closed", logger.String("path", s.path))
	return err
}
