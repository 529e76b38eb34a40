package collectors

import (
	"context"
	"time"

	"github.com/hetulpatel/sportsarb/internal/market"
)

// FetchOptions constrain what a collector pulls per run.
type FetchOptions struct {
	Leagues    []string
	Markets    []market.MarketType
	WindowDays int // only games commencing within this many days
}

// GameFeed is one canonical game together with the quotes a single fetch
// produced for it.
type GameFeed struct {
	Game   market.Game
	Quotes []market.Quote
}

// Collector is implemented by per-provider ingestion adapters. Each collector
// fetches raw payloads, canonicalizes them, and returns game feeds ready for
// publishing. The HTTP/GraphQL transport behind Fetch is the adapter's own
// concern.
type Collector interface {
	Name() string
	Fetch(ctx context.Context, opts FetchOptions) ([]GameFeed, error)
}

// Bettable reports whether a game commences within the window. Games with no
// commence time (futures) always pass.
func Bettable(commence time.Time, now time.Time, windowDays int) bool {
	if commence.IsZero() || windowDays <= 0 {
		return true
	}
	return !commence.Before(now) && commence.Before(now.AddDate(0, 0, windowDays))
}
