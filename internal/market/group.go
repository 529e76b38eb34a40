package market

import (
	"strings"

	"github.com/hetulpatel/sportsarb/internal/canon"
)

// GroupKey partitions quotes into comparable groups for cross-provider
// detection: same event, market, line (and player for props), any provider.
type GroupKey struct {
	GameID string
	Market MarketType
	Line   float64
	Player string
}

// ProviderGroupKey additionally partitions by venue, scoping a group to the
// set of outcomes a single provider offers for one market. De-vigging operates
// on these groups only, never across providers.
type ProviderGroupKey struct {
	GameID   string
	Market   MarketType
	Line     float64
	Player   string
	Source   SourceCategory
	Provider string
}

// GroupKey returns the quote's cross-provider group key.
func (q *Quote) GroupKey() GroupKey {
	return GroupKey{GameID: q.GameID, Market: q.Market, Line: q.Line, Player: q.Player}
}

// ProviderGroupKey returns the quote's per-provider group key.
func (q *Quote) ProviderGroupKey() ProviderGroupKey {
	return ProviderGroupKey{
		GameID:   q.GameID,
		Market:   q.Market,
		Line:     q.Line,
		Player:   q.Player,
		Source:   q.Source,
		Provider: q.Provider,
	}
}

// Group partitions quotes by cross-provider group key. Quotes without a game
// id or a usable probability are dropped, never defaulted.
func Group(quotes []Quote) map[GroupKey][]Quote {
	groups := make(map[GroupKey][]Quote)
	for _, q := range quotes {
		if q.GameID == "" || q.Side == "" {
			continue
		}
		if _, ok := q.Prob(); !ok {
			continue
		}
		groups[q.GroupKey()] = append(groups[q.GroupKey()], q)
	}
	return groups
}

// GroupByProvider partitions quotes by per-provider group key for de-vigging.
func GroupByProvider(quotes []*Quote) map[ProviderGroupKey][]*Quote {
	groups := make(map[ProviderGroupKey][]*Quote)
	for _, q := range quotes {
		if q.GameID == "" || q.Side == "" {
			continue
		}
		groups[q.ProviderGroupKey()] = append(groups[q.ProviderGroupKey()], q)
	}
	return groups
}

// MatchSide maps a free-text outcome label onto a side relative to the given
// home/away teams. An outcome matches home when its normalized text equals or
// contains the normalized home-team text, symmetrically for away; draw/tie/x
// are literal tokens. Anything else is unmatched and the quote must be
// dropped from grouping.
func MatchSide(outcome, home, away string) (Side, bool) {
	o := canon.Normalize(outcome)
	if o == "" {
		return "", false
	}
	switch o {
	case "draw", "tie", "x":
		return SideDraw, true
	case "over":
		return SideOver, true
	case "under":
		return SideUnder, true
	}
	if h := canon.Normalize(home); h != "" && (o == h || strings.Contains(o, h)) {
		return SideHome, true
	}
	if a := canon.Normalize(away); a != "" && (o == a || strings.Contains(o, a)) {
		return SideAway, true
	}
	return "", false
}
