package arb

import (
	"fmt"
	"sort"
	"time"

	"github.com/hetulpatel/sportsarb/internal/hashutil"
	"github.com/hetulpatel/sportsarb/internal/market"
	"github.com/hetulpatel/sportsarb/internal/odds"
)

// Category identifies which provider classes an opportunity pairs.
type Category string

const (
	CategoryOpenMarket  Category = "open_market"
	CategorySportsbook  Category = "sportsbook"
	CategoryCrossMarket Category = "cross_market"
	CategoryPlayerProp  Category = "player_prop"
)

// Leg is one side of an arbitrage combination.
type Leg struct {
	Side     market.Side           `json:"side"`
	Line     float64               `json:"line"`
	Source   market.SourceCategory `json:"source"`
	Provider string                `json:"provider"`
	Prob     float64               `json:"prob"`
	Odds     float64               `json:"odds"`
	Stake    float64               `json:"stake"`
}

// Opportunity is a detected combination of outcomes across providers covering
// every result of one market with combined probability below 1. Report-only:
// opportunities are recomputed each pass and never persisted.
type Opportunity struct {
	Category         Category          `json:"category"`
	GameID           string            `json:"game_id"`
	Market           market.MarketType `json:"market"`
	Player           string            `json:"player,omitempty"`
	Legs             []Leg             `json:"legs"`
	Margin           float64           `json:"margin"`
	TotalStake       float64           `json:"total_stake"`
	GuaranteedProfit float64           `json:"guaranteed_profit"`
	DetectedAt       time.Time         `json:"detected_at"`
}

// CacheKey builds an order-independent identity for alert deduplication.
func (o *Opportunity) CacheKey() string {
	parts := make([]string, 0, len(o.Legs)+3)
	parts = append(parts, o.GameID, string(o.Market), o.Player)
	legs := make([]string, 0, len(o.Legs))
	for _, leg := range o.Legs {
		legs = append(legs, fmt.Sprintf("%s:%s:%s:%.2f", leg.Source, leg.Provider, leg.Side, leg.Line))
	}
	sort.Strings(legs)
	parts = append(parts, legs...)
	return hashutil.HashStrings(parts...)
}

// allocateStakes splits the bankroll across legs proportionally to each leg's
// probability (equivalently 1/odds), so every leg returns the same absolute
// payoff regardless of which outcome occurs. It returns that common payout,
// bankroll/Σp, or 0 when the legs carry no probability mass.
func allocateStakes(legs []Leg, bankroll float64) float64 {
	total := 0.0
	for i := range legs {
		total += legs[i].Prob
	}
	if total <= 0 {
		return 0
	}
	for i := range legs {
		legs[i].Stake = bankroll * legs[i].Prob / total
		legs[i].Odds = odds.ToOdds(legs[i].Prob)
	}
	return bankroll / total
}
