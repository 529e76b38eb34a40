package arb

import (
	"sort"
	"time"

	"github.com/hetulpatel/sportsarb/internal/market"
)

// Config carries the detection thresholds. Zero values fall back to the
// defaults the CLI would otherwise read from configuration.
type Config struct {
	MinEdge    float64       // minimum margin to report, e.g. 0.005 = 0.5%
	MaxDataAge time.Duration // quotes with older provider timestamps are excluded
	Bankroll   float64       // reference amount for stake allocation
	Now        time.Time     // detection clock; zero means time.Now
}

const (
	defaultMinEdge    = 0.005
	defaultMaxDataAge = 10 * time.Minute
	defaultBankroll   = 100.0
)

func (c Config) withDefaults() Config {
	if c.MinEdge <= 0 {
		c.MinEdge = defaultMinEdge
	}
	if c.MaxDataAge <= 0 {
		c.MaxDataAge = defaultMaxDataAge
	}
	if c.Bankroll <= 0 {
		c.Bankroll = defaultBankroll
	}
	if c.Now.IsZero() {
		c.Now = time.Now().UTC()
	}
	return c
}

// DetectAll runs every category over one snapshot of quotes.
func DetectAll(quotes []market.Quote, cfg Config) map[Category][]Opportunity {
	return map[Category][]Opportunity{
		CategoryOpenMarket:  DetectOpenMarket(quotes, cfg),
		CategorySportsbook:  DetectSportsbook(quotes, cfg),
		CategoryCrossMarket: DetectCrossMarket(quotes, cfg),
		CategoryPlayerProp:  DetectPlayerProps(quotes, cfg),
	}
}

// DetectOpenMarket finds arbitrage between peer prediction markets.
func DetectOpenMarket(quotes []market.Quote, cfg Config) []Opportunity {
	return detect(quotes, cfg, CategoryOpenMarket, func(a, b *market.Quote) bool {
		return a.Source.VigFree() && b.Source.VigFree() && a.Provider != b.Provider
	})
}

// DetectSportsbook finds arbitrage between regulated bookmakers.
func DetectSportsbook(quotes []market.Quote, cfg Config) []Opportunity {
	return detect(quotes, cfg, CategorySportsbook, func(a, b *market.Quote) bool {
		return a.Source == market.SourceSportsbook && b.Source == market.SourceSportsbook &&
			a.Provider != b.Provider
	})
}

// DetectCrossMarket finds arbitrage between sportsbooks and peer markets.
func DetectCrossMarket(quotes []market.Quote, cfg Config) []Opportunity {
	return detect(quotes, cfg, CategoryCrossMarket, func(a, b *market.Quote) bool {
		if a.Source == market.SourceSportsbook {
			return b.Source.VigFree()
		}
		return a.Source.VigFree() && b.Source == market.SourceSportsbook
	})
}

// DetectPlayerProps finds over/under arbitrage on player stat markets across
// any pair of distinct venues.
func DetectPlayerProps(quotes []market.Quote, cfg Config) []Opportunity {
	var props []market.Quote
	for _, q := range quotes {
		if q.Market.IsPlayerProp() && q.Player != "" {
			props = append(props, q)
		}
	}
	return detect(props, cfg, CategoryPlayerProp, func(a, b *market.Quote) bool {
		return a.Source != b.Source || a.Provider != b.Provider
	})
}

// eligible reports whether two quotes may be paired for a category.
type eligible func(a, b *market.Quote) bool

func detect(quotes []market.Quote, cfg Config, category Category, ok eligible) []Opportunity {
	cfg = cfg.withDefaults()

	// Player props are owned by the prop category; the others scan only
	// game-level markets.
	if category != CategoryPlayerProp {
		filtered := make([]market.Quote, 0, len(quotes))
		for _, q := range quotes {
			if !q.Market.IsPlayerProp() {
				filtered = append(filtered, q)
			}
		}
		quotes = filtered
	}

	var out []Opportunity
	seen := make(map[string]struct{})

	for _, group := range groupForPairing(quotes, cfg) {
		// A quoted draw means home+away no longer spans the outcome set, so
		// the group is scanned as three-way triples instead of pairs.
		if group.market == market.MarketH2H && group.hasDraw() {
			out = append(out, threeWay(group, cfg, category, ok, seen)...)
			continue
		}
		out = append(out, pairwise(group, cfg, category, ok, seen)...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Margin > out[j].Margin })
	return out
}

// pairGroup is every fresh, probability-bearing quote for one
// (game, market, player) tuple.
type pairGroup struct {
	gameID string
	market market.MarketType
	player string
	quotes []market.Quote
}

func (g *pairGroup) hasDraw() bool {
	for i := range g.quotes {
		if g.quotes[i].Side == market.SideDraw {
			return true
		}
	}
	return false
}

type pairGroupKey struct {
	gameID string
	market market.MarketType
	player string
}

// groupForPairing merges the cross-provider groups into per-(game, market,
// player) scan units. Lines stay distinct inside market.Group but must share a
// unit here: spread legs pair across mirrored lines, never within one.
func groupForPairing(quotes []market.Quote, cfg Config) map[pairGroupKey]*pairGroup {
	groups := make(map[pairGroupKey]*pairGroup)
	for gk, lineGroup := range market.Group(quotes) {
		key := pairGroupKey{gameID: gk.GameID, market: gk.Market, player: gk.Player}
		for _, q := range lineGroup {
			if stale(&q, cfg) {
				continue
			}
			g := groups[key]
			if g == nil {
				g = &pairGroup{gameID: gk.GameID, market: gk.Market, player: gk.Player}
				groups[key] = g
			}
			g.quotes = append(g.quotes, q)
		}
	}
	return groups
}

// stale reports whether the provider's own update timestamp is older than the
// configured maximum. An unknown (zero) timestamp is treated as fresh; only a
// known-old quote is excluded.
func stale(q *market.Quote, cfg Config) bool {
	if q.ProviderUpdatedAt.IsZero() {
		return false
	}
	return cfg.Now.Sub(q.ProviderUpdatedAt) > cfg.MaxDataAge
}

func pairwise(g *pairGroup, cfg Config, category Category, ok eligible, seen map[string]struct{}) []Opportunity {
	var out []Opportunity
	for i := range g.quotes {
		for j := i + 1; j < len(g.quotes); j++ {
			a, b := &g.quotes[i], &g.quotes[j]
			if !ok(a, b) || !complementary(a, b) {
				continue
			}
			pa, _ := a.Prob()
			pb, _ := b.Prob()
			margin := 1 - (pa + pb)
			if margin < cfg.MinEdge {
				continue
			}
			op := build(g, category, cfg, []*market.Quote{a, b}, margin)
			if _, dup := seen[op.CacheKey()]; dup {
				continue
			}
			seen[op.CacheKey()] = struct{}{}
			out = append(out, op)
		}
	}
	return out
}

// threeWay covers head-to-head groups that quote a draw: a two-way pair no
// longer spans the outcome set, so home/draw/away triples across distinct
// providers are scanned instead.
func threeWay(g *pairGroup, cfg Config, category Category, ok eligible, seen map[string]struct{}) []Opportunity {
	var homes, draws, aways []*market.Quote
	for i := range g.quotes {
		q := &g.quotes[i]
		switch q.Side {
		case market.SideHome:
			homes = append(homes, q)
		case market.SideDraw:
			draws = append(draws, q)
		case market.SideAway:
			aways = append(aways, q)
		}
	}

	var out []Opportunity
	for _, h := range homes {
		for _, d := range draws {
			for _, a := range aways {
				if samePlacement(h, d) || samePlacement(d, a) || samePlacement(h, a) {
					continue
				}
				if !ok(h, d) || !ok(d, a) || !ok(h, a) {
					continue
				}
				ph, _ := h.Prob()
				pd, _ := d.Prob()
				pa, _ := a.Prob()
				margin := 1 - (ph + pd + pa)
				if margin < cfg.MinEdge {
					continue
				}
				op := build(g, category, cfg, []*market.Quote{h, d, a}, margin)
				if _, dup := seen[op.CacheKey()]; dup {
					continue
				}
				seen[op.CacheKey()] = struct{}{}
				out = append(out, op)
			}
		}
	}
	return out
}

func samePlacement(a, b *market.Quote) bool {
	return a.Source == b.Source && a.Provider == b.Provider
}

// complementary reports whether two quotes jointly cover every outcome of a
// two-way market, with compatible lines.
func complementary(a, b *market.Quote) bool {
	if a.Side == b.Side {
		return false
	}
	switch a.Market {
	case market.MarketH2H:
		return bothSides(a, b, market.SideHome, market.SideAway)
	case market.MarketSpreads:
		// Opposite point spreads: +3.5 covers against -3.5 exactly.
		return bothSides(a, b, market.SideHome, market.SideAway) && a.Line == -b.Line
	case market.MarketTotals:
		return bothSides(a, b, market.SideOver, market.SideUnder) && a.Line == b.Line
	case market.MarketFutures:
		// Futures outcomes are arbitrary selections; cross-provider futures
		// comparison is handled by dedicated tooling, not the pair scan.
		return false
	default:
		if a.Market.IsPlayerProp() {
			return bothSides(a, b, market.SideOver, market.SideUnder) && a.Line == b.Line
		}
		return false
	}
}

func bothSides(a, b *market.Quote, x, y market.Side) bool {
	return (a.Side == x && b.Side == y) || (a.Side == y && b.Side == x)
}

func build(g *pairGroup, category Category, cfg Config, legs []*market.Quote, margin float64) Opportunity {
	op := Opportunity{
		Category:   category,
		GameID:     g.gameID,
		Market:     g.market,
		Player:     g.player,
		Margin:     margin,
		TotalStake: cfg.Bankroll,
		DetectedAt: cfg.Now,
	}
	op.Legs = make([]Leg, len(legs))
	for i, q := range legs {
		p, _ := q.Prob()
		op.Legs[i] = Leg{
			Side:     q.Side,
			Line:     q.Line,
			Source:   q.Source,
			Provider: q.Provider,
			Prob:     p,
		}
	}
	// The profit is locked in by the stake split: every leg pays
	// bankroll/Σp, so the gain is bankroll·margin/Σp, not margin·bankroll.
	if payout := allocateStakes(op.Legs, cfg.Bankroll); payout > 0 {
		op.GuaranteedProfit = payout - cfg.Bankroll
	}
	return op
}
