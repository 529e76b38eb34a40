package market

import (
	"strings"
	"time"
)

// SourceCategory identifies the class of venue a quote came from.
type SourceCategory string

const (
	SourceSportsbook SourceCategory = "sportsbook"  // regulated bookmakers (via odds aggregator)
	SourceOpenMarket SourceCategory = "open_market" // peer-to-peer prediction markets
	SourceParlay     SourceCategory = "parlay"      // parlay exchanges
)

// VigFree reports whether quotes from this category carry no bookmaker margin.
// Peer markets quote probability directly, so de-vigging copies the implied
// probability through. This is a property of the source, never inferred from
// the numbers.
func (s SourceCategory) VigFree() bool {
	return s == SourceOpenMarket || s == SourceParlay
}

// MarketType is the closed enumeration of supported bet markets.
type MarketType string

const (
	MarketH2H     MarketType = "h2h"
	MarketSpreads MarketType = "spreads"
	MarketTotals  MarketType = "totals"
	MarketFutures MarketType = "futures"

	MarketPlayerPoints   MarketType = "player_points"
	MarketPlayerRebounds MarketType = "player_rebounds"
	MarketPlayerAssists  MarketType = "player_assists"
	MarketPlayerThrees   MarketType = "player_threes"
)

// IsPlayerProp reports whether the market is a per-player stat market.
func (m MarketType) IsPlayerProp() bool {
	return strings.HasPrefix(string(m), "player_")
}

// HasLine reports whether the line value is meaningful for this market.
// Lineless markets carry the 0.0 sentinel so group keys stay comparable.
func (m MarketType) HasLine() bool {
	return m == MarketSpreads || m == MarketTotals || m.IsPlayerProp()
}

// Side is the outcome a quote is priced on.
type Side string

const (
	SideHome  Side = "home"
	SideAway  Side = "away"
	SideDraw  Side = "draw"
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// Quote is one provider's price for one outcome of one market at one point in
// time. Ingestion adapters construct quotes; the engine only annotates the
// de-vigged probability and groups them.
type Quote struct {
	GameID            string         `json:"game_id"`
	Market            MarketType     `json:"market"`
	Side              Side           `json:"side"`
	Line              float64        `json:"line"`
	Source            SourceCategory `json:"source"`
	Provider          string         `json:"provider"`
	Player            string         `json:"player,omitempty"`
	Price             float64        `json:"price"`
	ImpliedProb       float64        `json:"implied_prob"`
	DeviggedProb      *float64       `json:"devigged_prob,omitempty"`
	ProviderUpdatedAt time.Time      `json:"provider_updated_at"`
	CapturedAt        time.Time      `json:"captured_at"`
}

// Prob returns the best available probability for analysis: the de-vigged
// value when computed, otherwise the implied probability. ok is false when
// neither is a usable probability.
func (q *Quote) Prob() (float64, bool) {
	if q.DeviggedProb != nil && *q.DeviggedProb > 0 {
		return *q.DeviggedProb, true
	}
	if q.ImpliedProb > 0 {
		return q.ImpliedProb, true
	}
	return 0, false
}

// Key is the natural primary key of a quote: the unique tuple identifying
// "latest" state and partitioning the time series.
type Key struct {
	GameID   string
	Market   MarketType
	Side     Side
	Line     float64
	Source   SourceCategory
	Provider string
	Player   string
}

// Key returns the quote's primary key.
func (q *Quote) Key() Key {
	return Key{
		GameID:   q.GameID,
		Market:   q.Market,
		Side:     q.Side,
		Line:     q.Line,
		Source:   q.Source,
		Provider: q.Provider,
		Player:   q.Player,
	}
}

// Game is a canonical real-world contest, created idempotently on first
// sighting by any provider and never deleted.
type Game struct {
	GameID       string    `json:"game_id"`
	League       string    `json:"league"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// Observation is one historical probability point for a quote key, the
// time-series input consumed by the lead/lag and event-impact analyzers.
type Observation struct {
	GameID   string
	Market   MarketType
	Side     Side
	Line     float64
	Source   SourceCategory
	Provider string
	Player   string
	Prob     float64
	Time     time.Time
}

// SeriesKey identifies one priced outcome across providers over time.
type SeriesKey struct {
	GameID string
	Market MarketType
	Side   Side
	Line   float64
	Player string
}

// SeriesKey returns the observation's series key.
func (o *Observation) SeriesKey() SeriesKey {
	return SeriesKey{GameID: o.GameID, Market: o.Market, Side: o.Side, Line: o.Line, Player: o.Player}
}

// ProviderKey identifies one quoting venue within a series.
type ProviderKey struct {
	Source   SourceCategory
	Provider string
}

// ProviderKey returns the observation's provider key.
func (o *Observation) ProviderKey() ProviderKey {
	return ProviderKey{Source: o.Source, Provider: o.Provider}
}
