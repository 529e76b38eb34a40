package collectors

import (
	"strings"
	"time"

	"github.com/hetulpatel/sportsarb/internal/canon"
	"github.com/hetulpatel/sportsarb/internal/logging"
	"github.com/hetulpatel/sportsarb/internal/market"
	"github.com/hetulpatel/sportsarb/internal/odds"
)

// Payload mirrors the aggregator feed shape: games carrying per-bookmaker
// market blocks with free-text outcome labels and decimal prices.
type Payload struct {
	League string        `json:"league"`
	Games  []PayloadGame `json:"games"`
}

type PayloadGame struct {
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	CommenceTime time.Time          `json:"commence_time"`
	Bookmakers   []PayloadBookmaker `json:"bookmakers"`
}

type PayloadBookmaker struct {
	Key        string          `json:"key"`
	LastUpdate time.Time       `json:"last_update"`
	Markets    []PayloadMarket `json:"markets"`
}

type PayloadMarket struct {
	Key      string           `json:"key"`
	Outcomes []PayloadOutcome `json:"outcomes"`
}

type PayloadOutcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Point       *float64 `json:"point,omitempty"`
	Price       float64  `json:"price"`
}

// ParseFeed canonicalizes an aggregator payload into game feeds. Games whose
// teams cannot be canonicalized, outcomes whose side cannot be matched, and
// quotes with invalid prices are dropped individually; the rest of the batch
// survives.
func ParseFeed(p Payload, r canon.Resolver, source market.SourceCategory, now time.Time) []GameFeed {
	var feeds []GameFeed
	for _, g := range p.Games {
		gameID := canon.EventID(r, p.League, g.HomeTeam, g.AwayTeam, g.CommenceTime)
		if gameID == "" {
			logging.Debugf("unmatched teams %q / %q in %s, dropping game", g.HomeTeam, g.AwayTeam, p.League)
			continue
		}
		feed := GameFeed{
			Game: market.Game{
				GameID:       gameID,
				League:       canon.Normalize(p.League),
				HomeTeam:     r.Team(g.HomeTeam, p.League),
				AwayTeam:     r.Team(g.AwayTeam, p.League),
				CommenceTime: g.CommenceTime,
				LastSeenAt:   now,
			},
		}
		for _, book := range g.Bookmakers {
			provider := r.Provider(book.Key)
			if provider == "" {
				continue
			}
			for _, mkt := range book.Markets {
				mt, ok := marketType(r.Market(mkt.Key))
				if !ok {
					logging.Debugf("unknown market %q from %s, dropping block", mkt.Key, book.Key)
					continue
				}
				for _, out := range mkt.Outcomes {
					if q, ok := parseOutcome(out, mt, g, book, provider, r, source, now); ok {
						q.GameID = gameID
						feed.Quotes = append(feed.Quotes, q)
					}
				}
			}
		}
		if len(feed.Quotes) > 0 {
			feeds = append(feeds, feed)
		}
	}
	return feeds
}

func parseOutcome(out PayloadOutcome, mt market.MarketType, g PayloadGame, book PayloadBookmaker, provider string, r canon.Resolver, source market.SourceCategory, now time.Time) (market.Quote, bool) {
	prob, ok := odds.ToProbability(out.Price, odds.DecimalOdds)
	if !ok {
		return market.Quote{}, false
	}

	var (
		side   market.Side
		player string
	)
	if mt.IsPlayerProp() {
		// Prop outcomes put the player in the name and over/under in the
		// description.
		side, ok = propSide(out.Description)
		if !ok {
			return market.Quote{}, false
		}
		player = r.Player(out.Name)
		if player == "" {
			return market.Quote{}, false
		}
	} else {
		side, ok = market.MatchSide(out.Name, g.HomeTeam, g.AwayTeam)
		if !ok {
			logging.Debugf("unmatched outcome %q for %s vs %s, dropping quote", out.Name, g.HomeTeam, g.AwayTeam)
			return market.Quote{}, false
		}
	}

	line := 0.0
	if mt.HasLine() && out.Point != nil {
		line = *out.Point
	}

	return market.Quote{
		Market:            mt,
		Side:              side,
		Line:              line,
		Source:            source,
		Provider:          provider,
		Player:            player,
		Price:             out.Price,
		ImpliedProb:       prob,
		ProviderUpdatedAt: book.LastUpdate,
		CapturedAt:        now,
	}, true
}

// marketTypes maps normalized labels onto the closed market enumeration.
// Normalization strips underscores, so both spellings of the prop markets
// resolve.
var marketTypes = func() map[string]market.MarketType {
	all := []market.MarketType{
		market.MarketH2H, market.MarketSpreads, market.MarketTotals, market.MarketFutures,
		market.MarketPlayerPoints, market.MarketPlayerRebounds,
		market.MarketPlayerAssists, market.MarketPlayerThrees,
	}
	m := make(map[string]market.MarketType, len(all)*2)
	for _, mt := range all {
		m[string(mt)] = mt
		m[canon.Normalize(string(mt))] = mt
	}
	return m
}()

func marketType(key string) (market.MarketType, bool) {
	mt, ok := marketTypes[key]
	return mt, ok
}

func propSide(description string) (market.Side, bool) {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "over"):
		return market.SideOver, true
	case strings.Contains(d, "under"):
		return market.SideUnder, true
	default:
		return "", false
	}
}
