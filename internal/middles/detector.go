package middles

import (
	"fmt"
	"sort"
	"time"

	"github.com/hetulpatel/sportsarb/internal/market"
)

// Category mirrors the arbitrage categories: which venue classes the two legs
// come from.
type Category string

const (
	CategorySportsbook  Category = "sportsbook"
	CategoryOpenMarket  Category = "open_market"
	CategoryCrossMarket Category = "cross_market"
	CategoryPlayerProp  Category = "player_prop"
)

// Config carries the middle-detection thresholds.
type Config struct {
	MinGapSpread float64       // minimum point gap on spreads
	MinGapTotal  float64       // minimum point gap on totals
	MinGapProp   float64       // minimum gap on player props
	MaxDataAge   time.Duration // quotes with older provider timestamps are excluded
	Bankroll     float64       // reference total stake for EV
	Estimator    Estimator     // gap probability model; nil means DefaultEstimator
	Now          time.Time     // detection clock; zero means time.Now
}

func (c Config) withDefaults() Config {
	if c.MinGapSpread <= 0 {
		c.MinGapSpread = 1.0
	}
	if c.MinGapTotal <= 0 {
		c.MinGapTotal = 2.0
	}
	if c.MinGapProp <= 0 {
		c.MinGapProp = 1.0
	}
	if c.MaxDataAge <= 0 {
		c.MaxDataAge = 10 * time.Minute
	}
	if c.Bankroll <= 0 {
		c.Bankroll = 100.0
	}
	if c.Estimator == nil {
		c.Estimator = DefaultEstimator()
	}
	if c.Now.IsZero() {
		c.Now = time.Now().UTC()
	}
	return c
}

// Leg is one side of a middle.
type Leg struct {
	Side     market.Side           `json:"side"`
	Line     float64               `json:"line"`
	Source   market.SourceCategory `json:"source"`
	Provider string                `json:"provider"`
	Prob     float64               `json:"prob"`
}

// Opportunity is a pair of opposite-side bets at different lines whose gap
// creates a window of outcomes where both legs win. Ephemeral, report-only.
type Opportunity struct {
	Category    Category          `json:"category"`
	GameID      string            `json:"game_id"`
	Market      market.MarketType `json:"market"`
	Player      string            `json:"player,omitempty"`
	A           Leg               `json:"leg_a"`
	B           Leg               `json:"leg_b"`
	Gap         float64           `json:"gap"`
	GapProb     float64           `json:"gap_prob"`
	EV          float64           `json:"ev"`
	EVPercent   float64           `json:"ev_percent"`
	Description string            `json:"description"`
	DetectedAt  time.Time         `json:"detected_at"`
}

// Detect scans spread, total, and player-prop quotes for middles. Results are
// sorted by expected value descending.
func Detect(quotes []market.Quote, cfg Config) []Opportunity {
	cfg = cfg.withDefaults()

	groups := make(map[groupKey][]market.Quote)
	for _, q := range quotes {
		if q.Market != market.MarketSpreads && q.Market != market.MarketTotals && !q.Market.IsPlayerProp() {
			continue
		}
		if q.Market.IsPlayerProp() && q.Player == "" {
			continue
		}
		if q.GameID == "" || q.Side == "" {
			continue
		}
		if _, ok := q.Prob(); !ok {
			continue
		}
		if !q.ProviderUpdatedAt.IsZero() && cfg.Now.Sub(q.ProviderUpdatedAt) > cfg.MaxDataAge {
			continue
		}
		key := groupKey{gameID: q.GameID, market: q.Market, player: q.Player}
		groups[key] = append(groups[key], q)
	}

	var out []Opportunity
	for _, group := range groups {
		for i := range group {
			for j := i + 1; j < len(group); j++ {
				a, b := &group[i], &group[j]
				if a.Source == b.Source && a.Provider == b.Provider {
					continue
				}
				if op, ok := evaluate(a, b, cfg); ok {
					out = append(out, op)
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EV > out[j].EV })
	return out
}

type groupKey struct {
	gameID string
	market market.MarketType
	player string
}

func evaluate(a, b *market.Quote, cfg Config) (Opportunity, bool) {
	gap, ok := middleGap(a, b)
	if !ok || gap <= 0 {
		return Opportunity{}, false
	}
	if gap < minGap(a.Market, cfg) {
		return Opportunity{}, false
	}

	pa, _ := a.Prob()
	pb, _ := b.Prob()
	gapProb := cfg.Estimator.GapProbability(a.Market, gap)
	ev := middleEV(cfg.Bankroll, pa, pb, gapProb)

	op := Opportunity{
		Category:   categoryFor(a, b),
		GameID:     a.GameID,
		Market:     a.Market,
		Player:     a.Player,
		A:          Leg{Side: a.Side, Line: a.Line, Source: a.Source, Provider: a.Provider, Prob: pa},
		B:          Leg{Side: b.Side, Line: b.Line, Source: b.Source, Provider: b.Provider, Prob: pb},
		Gap:        gap,
		GapProb:    gapProb,
		EV:         ev,
		DetectedAt: cfg.Now,
	}
	op.EVPercent = ev / cfg.Bankroll
	op.Description = fmt.Sprintf("%s: %s %+.1f (%s) vs %s %+.1f (%s)",
		a.Market, a.Side, a.Line, a.Provider, b.Side, b.Line, b.Provider)
	return op, true
}

// middleGap returns the width of the both-win window, or ok=false when the
// sides/lines cannot form a middle. Totals and props need over-at-A and
// under-at-B with B > A; spreads need opposite sides whose lines leave a
// positive window (home -3.5 with away +5.5 leaves wins-by-4-or-5).
func middleGap(a, b *market.Quote) (float64, bool) {
	switch {
	case a.Market == market.MarketTotals || a.Market.IsPlayerProp():
		over, under := a, b
		if over.Side != market.SideOver {
			over, under = b, a
		}
		if over.Side != market.SideOver || under.Side != market.SideUnder {
			return 0, false
		}
		return under.Line - over.Line, true
	case a.Market == market.MarketSpreads:
		home, away := a, b
		if home.Side != market.SideHome {
			home, away = b, a
		}
		if home.Side != market.SideHome || away.Side != market.SideAway {
			return 0, false
		}
		return home.Line + away.Line, true
	default:
		return 0, false
	}
}

func minGap(m market.MarketType, cfg Config) float64 {
	switch {
	case m == market.MarketSpreads:
		return cfg.MinGapSpread
	case m.IsPlayerProp():
		return cfg.MinGapProp
	default:
		return cfg.MinGapTotal
	}
}

func categoryFor(a, b *market.Quote) Category {
	if a.Market.IsPlayerProp() {
		return CategoryPlayerProp
	}
	sbA := a.Source == market.SourceSportsbook
	sbB := b.Source == market.SourceSportsbook
	switch {
	case sbA && sbB:
		return CategorySportsbook
	case !sbA && !sbB:
		return CategoryOpenMarket
	default:
		return CategoryCrossMarket
	}
}

// middleEV computes the expected value of staking the bankroll evenly across
// both legs. When the result lands in the gap both legs pay; otherwise
// exactly one does, and the two single-win outcomes are averaged.
func middleEV(bankroll, probA, probB, gapProb float64) float64 {
	if probA <= 0 || probB <= 0 {
		return 0
	}
	stake := bankroll / 2
	payoutA := stake / probA
	payoutB := stake / probB

	profitBoth := payoutA + payoutB - bankroll
	profitOne := (payoutA+payoutB)/2 - bankroll

	return gapProb*profitBoth + (1-gapProb)*profitOne
}
