package loadgen

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/scoreboard/pkg/logger"
)

// Run checks health, submits generated scores, reads the leaderboard and
// verifies it. The returned stats are filled in even when verification fails.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Named("loadgen")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting scoreboard load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("submissions", cfg.Submissions),
		logger.Int("players", cfg.Players),
		logger.Int("workers", cfg.Workers),
		logger.Int("limit", cfg.Limit),
		logger.Any("exclusive", cfg.Exclusive))

	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	subs := Generate(cfg)
	stats.Generated = len(subs)

	stored, err := submitAll(ctx, client, cfg, subs, stats)
	if err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	board, err := client.Leaderboard(ctx, cfg.Limit)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.Returned = len(board)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)

	if err := VerifyAgainst(board, stored, cfg.Limit, cfg.Exclusive); err != nil {
		return stats, err
	}
	log.Info(ctx, "leaderboard verified")
	return stats, nil
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Succeeded+stats.Failed+stats.Unavailable) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int64("succeeded", stats.Succeeded),
		logger.Int64("failed", stats.Failed),
		logger.Int64("unavailable", stats.Unavailable),
		logger.Int("returned", stats.Returned),
		logger.Duration("duration", stats.Duration),
		logger.Float64("submitsPerSecond", perSecond))
}
