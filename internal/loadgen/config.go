// Package loadgen drives a running scoreboard over HTTP and checks that the
// leaderboard it returns is consistent with what was submitted.
package loadgen

import (
	"errors"
	"time"

	"github.com/okian/scoreboard/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Submissions int           // Number of scores to submit
	Players     int           // Distinct player names to draw from
	MaxScore    int64         // Scores are drawn from [0, MaxScore)
	Limit       int           // limit passed to GET /scores
	Workers     int           // Concurrent submitters
	Timeout     time.Duration // Per-request timeout
	Seed        uint64        // Seed for the score generator; 0 picks one
	// Exclusive asserts that nothing else writes to the store, so the
	// leaderboard must match the generated set exactly.
	Exclusive bool
	Verbose   bool
}

// Submission is one POST /scores body.
type Submission struct {
	Name  string `json:"name"`
	Score int64  `json:"score"`
}

// Entry is one row of GET /scores.
type Entry = model.RankedEntry

// Stats holds run statistics.
type Stats struct {
	Generated   int
	Succeeded   int64
	Failed      int64
	Unavailable int64
	Returned    int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// Validation errors.
var (
	ErrInvalidConfig = errors.New("invalid load config")
	ErrMismatch      = errors.New("leaderboard mismatch")
)

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url must not be empty"))
	case c.Submissions < 0:
		return errors.Join(ErrInvalidConfig, errors.New("submissions must not be negative"))
	case c.Players <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("players must be positive"))
	case c.MaxScore <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("max score must be positive"))
	case c.Limit < 0:
		return errors.Join(ErrInvalidConfig, errors.New("limit must not be negative"))
	case c.Workers <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be positive"))
	}
	return nil
}
