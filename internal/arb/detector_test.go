package arb

import (
	"math"
	"testing"
	"time"

	"github.com/hetulpatel/sportsarb/internal/market"
)

var testNow = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

func h2hQuote(side market.Side, source market.SourceCategory, provider string, prob float64) market.Quote {
	return market.Quote{
		GameID:            "g1",
		Market:            market.MarketH2H,
		Side:              side,
		Source:            source,
		Provider:          provider,
		ImpliedProb:       prob,
		ProviderUpdatedAt: testNow.Add(-time.Minute),
	}
}

func TestDetectSportsbook_MarginAndThresholdBoundary(t *testing.T) {
	quotes := []market.Quote{
		h2hQuote(market.SideHome, market.SourceSportsbook, "bookA", 0.45),
		h2hQuote(market.SideAway, market.SourceSportsbook, "bookB", 0.48),
	}

	// 1 - 0.93 = 0.07; flagged when the threshold is at or below 7%.
	ops := DetectSportsbook(quotes, Config{MinEdge: 0.07, Now: testNow})
	if len(ops) != 1 {
		t.Fatalf("expected 1 opportunity at the boundary, got %d", len(ops))
	}
	if math.Abs(ops[0].Margin-0.07) > 1e-9 {
		t.Errorf("margin = %v, want 0.07", ops[0].Margin)
	}

	ops = DetectSportsbook(quotes, Config{MinEdge: 0.0701, Now: testNow})
	if len(ops) != 0 {
		t.Errorf("threshold above the margin must not flag, got %d", len(ops))
	}
}

func TestDetectSportsbook_SameProviderNeverPaired(t *testing.T) {
	quotes := []market.Quote{
		h2hQuote(market.SideHome, market.SourceSportsbook, "bookA", 0.45),
		h2hQuote(market.SideAway, market.SourceSportsbook, "bookA", 0.48),
	}
	if ops := DetectSportsbook(quotes, Config{MinEdge: 0.01, Now: testNow}); len(ops) != 0 {
		t.Errorf("a provider against itself is not arbitrage, got %d", len(ops))
	}
}

func TestDetect_StaleQuoteExcluded(t *testing.T) {
	stale := h2hQuote(market.SideHome, market.SourceSportsbook, "bookA", 0.45)
	stale.ProviderUpdatedAt = testNow.Add(-time.Hour)
	fresh := h2hQuote(market.SideAway, market.SourceSportsbook, "bookB", 0.48)

	cfg := Config{MinEdge: 0.01, MaxDataAge: 10 * time.Minute, Now: testNow}
	if ops := DetectSportsbook([]market.Quote{stale, fresh}, cfg); len(ops) != 0 {
		t.Errorf("stale quote must never appear in a reported leg, got %d", len(ops))
	}
}

func TestDetect_ZeroTimestampTreatedFresh(t *testing.T) {
	a := h2hQuote(market.SideHome, market.SourceSportsbook, "bookA", 0.45)
	a.ProviderUpdatedAt = time.Time{}
	b := h2hQuote(market.SideAway, market.SourceSportsbook, "bookB", 0.48)

	cfg := Config{MinEdge: 0.01, MaxDataAge: 10 * time.Minute, Now: testNow}
	if ops := DetectSportsbook([]market.Quote{a, b}, cfg); len(ops) != 1 {
		t.Errorf("unknown provider timestamp is not staleness, got %d opportunities", len(ops))
	}
}

func TestDetect_QuoteWithoutProbabilityNeverPairs(t *testing.T) {
	// A zero-probability quote would fake a 0.52 margin if it survived
	// grouping.
	a := h2hQuote(market.SideHome, market.SourceSportsbook, "bookA", 0)
	b := h2hQuote(market.SideAway, market.SourceSportsbook, "bookB", 0.48)
	if ops := DetectSportsbook([]market.Quote{a, b}, Config{MinEdge: 0.01, Now: testNow}); len(ops) != 0 {
		t.Errorf("quotes without a usable probability must be dropped before pairing, got %d", len(ops))
	}
}

func TestDetect_StakesEqualizePayoffs(t *testing.T) {
	quotes := []market.Quote{
		h2hQuote(market.SideHome, market.SourceSportsbook, "bookA", 0.45),
		h2hQuote(market.SideAway, market.SourceSportsbook, "bookB", 0.48),
	}
	ops := DetectSportsbook(quotes, Config{MinEdge: 0.01, Bankroll: 100, Now: testNow})
	if len(ops) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(ops))
	}
	op := ops[0]

	totalStake := 0.0
	var payoffs []float64
	for _, leg := range op.Legs {
		totalStake += leg.Stake
		payoffs = append(payoffs, leg.Stake*leg.Odds)
	}
	if math.Abs(totalStake-100) > 1e-9 {
		t.Errorf("stakes must sum to the bankroll, got %v", totalStake)
	}
	for i := 1; i < len(payoffs); i++ {
		if math.Abs(payoffs[i]-payoffs[0]) > 1e-9 {
			t.Errorf("all legs must pay the same: %v", payoffs)
		}
	}
	wantProfit := payoffs[0] - 100
	if math.Abs(op.GuaranteedProfit-wantProfit) > 1e-6 {
		t.Errorf("guaranteed profit %v, want %v", op.GuaranteedProfit, wantProfit)
	}
	// 100/0.93 - 100: the payout the equalized stakes actually lock in.
	if math.Abs(op.GuaranteedProfit-100*0.07/0.93) > 1e-9 {
		t.Errorf("guaranteed profit %v, want %v", op.GuaranteedProfit, 100*0.07/0.93)
	}
}

func TestDetectOpenMarket_RequiresVigFreeSources(t *testing.T) {
	quotes := []market.Quote{
		h2hQuote(market.SideHome, market.SourceOpenMarket, "peerA", 0.45),
		h2hQuote(market.SideAway, market.SourceOpenMarket, "peerB", 0.48),
		h2hQuote(market.SideAway, market.SourceSportsbook, "bookB", 0.40),
	}
	ops := DetectOpenMarket(quotes, Config{MinEdge: 0.01, Now: testNow})
	if len(ops) != 1 {
		t.Fatalf("expected only the peer/peer pair, got %d", len(ops))
	}
	for _, leg := range ops[0].Legs {
		if !leg.Source.VigFree() {
			t.Errorf("open-market category must not include sportsbook legs")
		}
	}
}

func TestDetectCrossMarket_PairsBookWithPeer(t *testing.T) {
	quotes := []market.Quote{
		h2hQuote(market.SideHome, market.SourceSportsbook, "bookA", 0.45),
		h2hQuote(market.SideAway, market.SourceOpenMarket, "peerB", 0.48),
	}
	ops := DetectCrossMarket(quotes, Config{MinEdge: 0.01, Now: testNow})
	if len(ops) != 1 {
		t.Fatalf("expected 1 cross-market opportunity, got %d", len(ops))
	}
	// Same pair must not be claimed by the pure categories.
	if len(DetectSportsbook(quotes, Config{MinEdge: 0.01, Now: testNow})) != 0 {
		t.Error("mixed pair leaked into the sportsbook category")
	}
	if len(DetectOpenMarket(quotes, Config{MinEdge: 0.01, Now: testNow})) != 0 {
		t.Error("mixed pair leaked into the open-market category")
	}
}

func TestDetect_SpreadsRequireOppositeLines(t *testing.T) {
	home := market.Quote{
		GameID: "g1", Market: market.MarketSpreads, Side: market.SideHome, Line: -3.5,
		Source: market.SourceSportsbook, Provider: "bookA", ImpliedProb: 0.45,
	}
	away := market.Quote{
		GameID: "g1", Market: market.MarketSpreads, Side: market.SideAway, Line: 3.5,
		Source: market.SourceSportsbook, Provider: "bookB", ImpliedProb: 0.48,
	}
	cfg := Config{MinEdge: 0.01, Now: testNow}
	if ops := DetectSportsbook([]market.Quote{home, away}, cfg); len(ops) != 1 {
		t.Errorf("opposite spread lines must pair, got %d", len(ops))
	}

	away.Line = 4.5
	if ops := DetectSportsbook([]market.Quote{home, away}, cfg); len(ops) != 0 {
		t.Errorf("mismatched spread lines must not pair, got %d", len(ops))
	}
}

func TestDetect_ThreeWayWithDraw(t *testing.T) {
	quotes := []market.Quote{
		h2hQuote(market.SideHome, market.SourceSportsbook, "bookA", 0.40),
		h2hQuote(market.SideDraw, market.SourceSportsbook, "bookB", 0.25),
		h2hQuote(market.SideAway, market.SourceSportsbook, "bookC", 0.30),
	}
	ops := DetectSportsbook(quotes, Config{MinEdge: 0.01, Now: testNow})
	if len(ops) != 1 {
		t.Fatalf("expected 1 three-way opportunity, got %d", len(ops))
	}
	op := ops[0]
	if len(op.Legs) != 3 {
		t.Fatalf("expected 3 legs, got %d", len(op.Legs))
	}
	if math.Abs(op.Margin-0.05) > 1e-9 {
		t.Errorf("margin = %v, want 0.05", op.Margin)
	}
}

func TestDetectPlayerProps_RequirePlayerAndOwnCategory(t *testing.T) {
	over := market.Quote{
		GameID: "g1", Market: market.MarketPlayerPoints, Side: market.SideOver, Line: 25.5,
		Source: market.SourceSportsbook, Provider: "bookA", Player: "lebron_james", ImpliedProb: 0.45,
	}
	under := over
	under.Side = market.SideUnder
	under.Provider = "bookB"
	under.ImpliedProb = 0.48

	cfg := Config{MinEdge: 0.01, Now: testNow}
	quotes := []market.Quote{over, under}
	if ops := DetectPlayerProps(quotes, cfg); len(ops) != 1 {
		t.Errorf("expected 1 prop opportunity, got %d", len(ops))
	}
	// Game-level categories must not scan prop markets.
	if ops := DetectSportsbook(quotes, cfg); len(ops) != 0 {
		t.Errorf("props leaked into the sportsbook category, got %d", len(ops))
	}

	// A prop without a player identity is unusable.
	over.Player = ""
	under.Player = ""
	if ops := DetectPlayerProps([]market.Quote{over, under}, cfg); len(ops) != 0 {
		t.Errorf("props without a player must be dropped, got %d", len(ops))
	}
}

func TestDetectAll_SortedByMarginDescending(t *testing.T) {
	quotes := []market.Quote{
		h2hQuote(market.SideHome, market.SourceSportsbook, "bookA", 0.45),
		h2hQuote(market.SideAway, market.SourceSportsbook, "bookB", 0.48),
		h2hQuote(market.SideHome, market.SourceSportsbook, "bookC", 0.40),
	}
	ops := DetectSportsbook(quotes, Config{MinEdge: 0.01, Now: testNow})
	if len(ops) != 2 {
		t.Fatalf("expected 2 opportunities, got %d", len(ops))
	}
	if ops[0].Margin < ops[1].Margin {
		t.Errorf("output must be sorted by margin descending: %v then %v", ops[0].Margin, ops[1].Margin)
	}
}

func TestOpportunityCacheKey_OrderIndependent(t *testing.T) {
	legA := Leg{Side: market.SideHome, Source: market.SourceSportsbook, Provider: "bookA", Prob: 0.45}
	legB := Leg{Side: market.SideAway, Source: market.SourceSportsbook, Provider: "bookB", Prob: 0.48}

	op1 := Opportunity{GameID: "g1", Market: market.MarketH2H, Legs: []Leg{legA, legB}}
	op2 := Opportunity{GameID: "g1", Market: market.MarketH2H, Legs: []Leg{legB, legA}}
	if op1.CacheKey() != op2.CacheKey() {
		t.Error("cache key must not depend on leg order")
	}

	op3 := Opportunity{GameID: "g2", Market: market.MarketH2H, Legs: []Leg{legA, legB}}
	if op1.CacheKey() == op3.CacheKey() {
		t.Error("different games must produce different cache keys")
	}
}
