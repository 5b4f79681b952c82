package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/scoreboard/internal/loadgen"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/spf13/cobra"
)

// Default flag values.
const (
	defaultSubmissions = 10000
	defaultPlayers     = 500
	defaultMaxScore    = 1000
	defaultLimit       = 10
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &loadgen.Config{}
	var (
		logLevel   string
		runTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scoreload",
		Short: "Submit generated scores to a scoreboard and verify its leaderboard",
		Long: `scoreload posts random scores to POST /scores with a bounded number of
concurrent workers, then reads GET /scores?limit=N and checks the dense-rank
law and that no tied group was cut. With --exclusive the leaderboard must match
the generated scores exactly, which only holds against an otherwise idle store.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			_, err := loadgen.Run(ctx, cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "base URL of the scoreboard")
	f.IntVarP(&cfg.Submissions, "submissions", "n", defaultSubmissions, "number of scores to submit")
	f.IntVar(&cfg.Players, "players", defaultPlayers, "distinct player names")
	f.Int64Var(&cfg.MaxScore, "max-score", defaultMaxScore, "scores are drawn from [0, max-score)")
	f.IntVarP(&cfg.Limit, "limit", "l", defaultLimit, "limit passed to GET /scores")
	f.IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU()*defaultWorkers, "concurrent submitters")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "per-request timeout")
	f.Uint64Var(&cfg.Seed, "seed", 0, "generator seed; 0 picks one from the clock")
	f.BoolVar(&cfg.Exclusive, "exclusive", false, "require an exact match against the generated scores")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log each failed submission")
	f.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "overall deadline for the run")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	return cmd
}
