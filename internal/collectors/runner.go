package collectors

import (
	"context"
	"time"

	"github.com/hetulpatel/sportsarb/internal/logging"
)

// RunLoop repeatedly fetches from a collector and hands the feeds to handleFn,
// sleeping interval between iterations. Fetch and handler failures are logged
// and the loop continues; only context cancellation stops it.
func RunLoop(ctx context.Context, collector Collector, opts FetchOptions, interval time.Duration, handleFn func(context.Context, []GameFeed) error) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		feeds, err := collector.Fetch(ctx, opts)
		if err != nil {
			logging.Errorf("[%s] fetch failed: %v", collector.Name(), err)
		} else if handleFn != nil && len(feeds) > 0 {
			if err := handleFn(ctx, feeds); err != nil {
				logging.Errorf("[%s] handler error: %v", collector.Name(), err)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
