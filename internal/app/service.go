// Package service records scores and computes the dense-ranked leaderboard
// on top of the SQLite store.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/internal/domain/ranking"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

// DefaultTopN is the number of distinct scores returned when the caller
// does not choose one.
const DefaultTopN = 10

const (
	insertScoreSQL = `INSERT INTO scores (name, score) VALUES (?, ?)`

	// Every row whose score is at or above the n-th highest distinct score.
	// Tied groups at the cutoff come back whole.
	topScoresSQL = `
SELECT id, name, score
FROM scores
WHERE score >= (
    SELECT MIN(score) FROM (
        SELECT DISTINCT score FROM scores ORDER BY score DESC LIMIT ?
    )
)
ORDER BY score DESC, id ASC`
)

// Store is the slice of the repository the service depends on.
type Store interface {
	WithConn(ctx context.Context, fn func(ctx context.Context, conn *sqlx.Conn) error) error
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Stats() sql.DBStats
}

// Service exposes Submit and TopN over a Store. It starts no goroutines and
// holds no state besides its configuration; all concurrency control is the
// store's.
type Service struct {
	store        Store
	defaultLimit int
	logger       logger.Logger
}

// New constructs a Service on top of an opened store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		defaultLimit: DefaultTopN,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("leaderboard")
	}
	return s
}

// DefaultLimit returns the limit used by Leaderboard.
func (s *Service) DefaultLimit() int {
	return s.defaultLimit
}

// Submit appends one score entry. A blank name fails with ErrValidation
// before the store is touched. The entry's rank is not computed here.
func (s *Service) Submit(ctx context.Context, name string, score int64) error {
	if strings.TrimSpace(name) == "" {
		metrics.RecordSubmitError("validation")
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}

	start := time.Now()
	var id int64
	err := s.store.WithConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		res, err := conn.ExecContext(ctx, insertScoreSQL, name, score)
		if err != nil {
			return fmt.Errorf("%w: insert score: %w", ErrStorage, err)
		}
		// The row is committed at this point; a missing id only affects logging.
		id, _ = res.LastInsertId()
		return nil
	})
	if err != nil {
		kind := errorKind(err)
		metrics.RecordSubmitError(kind)
		s.logger.Error(ctx, "submit score failed",
			logger.String("name", name),
			logger.Int64("score", score),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return err
	}

	metrics.RecordInsertLatency(sinceMillis(start))
	metrics.RecordScoreSubmitted()
	s.logger.Debug(ctx, "score submitted",
		logger.Int64("id", id),
		logger.String("name", name),
		logger.Int64("score", score),
	)
	return nil
}

// TopN returns every entry holding one of the n highest distinct scores,
// ordered by score descending then insertion order, with dense ranks.
// n <= 0 yields an empty result without a query.
func (s *Service) TopN(ctx context.Context, n int) ([]model.RankedEntry, error) {
	if n <= 0 {
		return []model.RankedEntry{}, nil
	}

	start := time.Now()
	var rows []model.ScoreEntry
	err := s.store.WithConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		if err := conn.SelectContext(ctx, &rows, topScoresSQL, n); err != nil {
			return fmt.Errorf("%w: query top scores: %w", ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		kind := errorKind(err)
		metrics.RecordLeaderboardError(kind)
		s.logger.Error(ctx, "top-n query failed",
			logger.Int("n", n),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return nil, err
	}

	ranked := ranking.TopDistinct(rows, n)
	metrics.RecordQueryLatency(sinceMillis(start))
	metrics.RecordLeaderboardRead(len(ranked))
	return ranked, nil
}

// Leaderboard is TopN with the configured default limit.
func (s *Service) Leaderboard(ctx context.Context) ([]model.RankedEntry, error) {
	return s.TopN(ctx, s.defaultLimit)
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	pool := s.store.Stats()
	stats := map[string]any{
		"defaultLimit":    s.defaultLimit,
		"openConnections": pool.OpenConnections,
		"inUse":           pool.InUse,
		"idle":            pool.Idle,
		"waitCount":       pool.WaitCount,
		"waitDuration":    pool.WaitDuration.String(),
	}
	if n, err := s.store.Count(ctx); err != nil {
		stats["entriesError"] = err.Error()
	} else {
		stats["entries"] = n
	}
	return stats
}

func sinceMillis(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
