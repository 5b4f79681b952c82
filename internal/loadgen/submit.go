package loadgen

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/okian/scoreboard/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const progressInterval = time.Second

// submitAll posts every submission with at most cfg.Workers in flight.
// Individual failures are counted, not returned; only cancellation stops
// the run early. Successful submissions are returned for verification.
func submitAll(ctx context.Context, client *HTTPClient, cfg *Config, subs []Submission, stats *Stats) ([]Submission, error) {
	log := logger.Named("loadgen")
	accepted := make([]bool, len(subs))

	var succeeded, failed, unavailable, lastReport atomic.Int64
	lastReport.Store(time.Now().UnixNano())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, s := range subs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			status, err := client.Submit(gctx, s)
			switch {
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				if cfg.Verbose {
					log.Warn(gctx, "submit failed", logger.String("name", s.Name), logger.Error(err))
				}
			case status == http.StatusCreated:
				accepted[i] = true
				succeeded.Add(1)
			case status == http.StatusServiceUnavailable:
				unavailable.Add(1)
			default:
				failed.Add(1)
			}

			now := time.Now().UnixNano()
			if last := lastReport.Load(); now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
				log.Info(gctx, "progress",
					logger.Int64("succeeded", succeeded.Load()),
					logger.Int64("failed", failed.Load()+unavailable.Load()),
					logger.Int("total", len(subs)))
			}
			return nil
		})
	}
	err := g.Wait()

	stats.Succeeded = succeeded.Load()
	stats.Failed = failed.Load()
	stats.Unavailable = unavailable.Load()

	ok := make([]Submission, 0, stats.Succeeded)
	for i, s := range subs {
		if accepted[i] {
			ok = append(ok, s)
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	return ok, err
}
