package lag

import (
	"math"
	"testing"
	"time"

	"github.com/hetulpatel/sportsarb/internal/market"
)

var t0 = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

func obs(provider string, prob float64, at time.Time) market.Observation {
	return market.Observation{
		GameID:   "g1",
		Market:   market.MarketH2H,
		Side:     market.SideHome,
		Source:   market.SourceSportsbook,
		Provider: provider,
		Prob:     prob,
		Time:     at,
	}
}

// Provider X moves 0.50 -> 0.60 at t0, provider Y moves 0.50 -> 0.58 thirty
// seconds later.
func twoProviderHistory() []market.Observation {
	return []market.Observation{
		obs("x", 0.50, t0.Add(-time.Minute)),
		obs("x", 0.60, t0),
		obs("y", 0.50, t0.Add(-time.Minute)),
		obs("y", 0.58, t0.Add(30*time.Second)),
	}
}

func TestDetect_LeaderAndLag(t *testing.T) {
	signals := Detect(twoProviderHistory(), Params{MinDelta: 0.02, MinLag: time.Second, MaxLag: time.Minute, Now: t0})
	if len(signals) != 1 {
		t.Fatalf("expected exactly 1 signal, got %d", len(signals))
	}
	sig := signals[0]
	if sig.LeaderProvider != "x" || sig.LaggerProvider != "y" {
		t.Errorf("leader=%s lagger=%s, want x leading y", sig.LeaderProvider, sig.LaggerProvider)
	}
	if sig.LagSeconds != 30 {
		t.Errorf("lag = %v seconds, want 30", sig.LagSeconds)
	}
	if sig.LeaderProbBefore != 0.50 || sig.LeaderProbAfter != 0.60 {
		t.Errorf("leader probs %v -> %v", sig.LeaderProbBefore, sig.LeaderProbAfter)
	}
	if sig.RunID == "" {
		t.Error("signals must carry a run id")
	}

	// avg(0.10, 0.08) / 0.5 minutes
	wantStrength := 0.09 / 0.5
	if math.Abs(sig.SignalStrength-wantStrength) > 1e-9 {
		t.Errorf("strength = %v, want %v", sig.SignalStrength, wantStrength)
	}
}

func TestDetect_MaxLagExcludes(t *testing.T) {
	signals := Detect(twoProviderHistory(), Params{MinDelta: 0.02, MinLag: time.Second, MaxLag: 29 * time.Second, Now: t0})
	if len(signals) != 0 {
		t.Errorf("lag above the maximum must produce no signal, got %d", len(signals))
	}
}

func TestDetect_MinLagExcludesSimultaneous(t *testing.T) {
	history := []market.Observation{
		obs("x", 0.50, t0.Add(-time.Minute)),
		obs("x", 0.60, t0),
		obs("y", 0.50, t0.Add(-time.Minute)),
		obs("y", 0.58, t0),
	}
	signals := Detect(history, Params{MinDelta: 0.02, MinLag: time.Second, MaxLag: time.Minute, Now: t0})
	if len(signals) != 0 {
		t.Errorf("near-simultaneous moves are not attributable, got %d signals", len(signals))
	}
}

func TestDetect_SmallMovesIgnored(t *testing.T) {
	history := []market.Observation{
		obs("x", 0.50, t0.Add(-time.Minute)),
		obs("x", 0.51, t0),
		obs("y", 0.50, t0.Add(-time.Minute)),
		obs("y", 0.58, t0.Add(30*time.Second)),
	}
	// X never moves by the minimum delta, so no pairing is possible.
	signals := Detect(history, Params{MinDelta: 0.02, MinLag: time.Second, MaxLag: time.Minute, Now: t0})
	if len(signals) != 0 {
		t.Errorf("providers without a significant move must not pair, got %d", len(signals))
	}
}

func TestDetect_SingleObservationProviderExcluded(t *testing.T) {
	history := []market.Observation{
		obs("x", 0.50, t0.Add(-time.Minute)),
		obs("x", 0.60, t0),
		obs("y", 0.58, t0.Add(30*time.Second)),
	}
	signals := Detect(history, Params{MinDelta: 0.02, MinLag: time.Second, MaxLag: time.Minute, Now: t0})
	if len(signals) != 0 {
		t.Errorf("a provider with one observation cannot move, got %d signals", len(signals))
	}
}

func TestDetect_DownwardMoveCounts(t *testing.T) {
	history := []market.Observation{
		obs("x", 0.50, t0.Add(-time.Minute)),
		obs("x", 0.40, t0),
		obs("y", 0.50, t0.Add(-time.Minute)),
		obs("y", 0.42, t0.Add(30*time.Second)),
	}
	signals := Detect(history, Params{MinDelta: 0.02, MinLag: time.Second, MaxLag: time.Minute, Now: t0})
	if len(signals) != 1 {
		t.Fatalf("magnitude matters, not direction: got %d signals", len(signals))
	}
	if signals[0].ProbabilityDelta <= 0 {
		t.Errorf("probability delta is an average magnitude, got %v", signals[0].ProbabilityDelta)
	}
}

func TestDetect_SeparateSeriesDoNotPair(t *testing.T) {
	history := twoProviderHistory()
	// Move y's observations to a different side; no shared series remains.
	for i := range history {
		if history[i].Provider == "y" {
			history[i].Side = market.SideAway
		}
	}
	signals := Detect(history, Params{MinDelta: 0.02, MinLag: time.Second, MaxLag: time.Minute, Now: t0})
	if len(signals) != 0 {
		t.Errorf("providers on different series must not pair, got %d", len(signals))
	}
}

func TestDetect_SortedByStrengthDescending(t *testing.T) {
	history := twoProviderHistory()
	// A second series with a weaker, slower move pair.
	for _, o := range []market.Observation{
		obs("x", 0.50, t0.Add(-time.Minute)),
		obs("x", 0.53, t0),
		obs("y", 0.50, t0.Add(-time.Minute)),
		obs("y", 0.53, t0.Add(50*time.Second)),
	} {
		o.Side = market.SideAway
		history = append(history, o)
	}
	signals := Detect(history, Params{MinDelta: 0.02, MinLag: time.Second, MaxLag: time.Minute, Now: t0})
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].SignalStrength < signals[1].SignalStrength {
		t.Error("signals must be sorted by strength descending")
	}
	if signals[0].RunID != signals[1].RunID {
		t.Error("one detection run must share one run id")
	}
}
