package lag

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hetulpatel/sportsarb/internal/market"
)

// Params controls the lead/lag detection pass.
type Params struct {
	MinDelta float64       // minimum probability change to count as a move
	MinLag   time.Duration // below this the moves are not attributable
	MaxLag   time.Duration // above this the moves are unlikely to be related
	Now      time.Time     // detection clock; zero means time.Now
}

func (p Params) withDefaults() Params {
	if p.MinDelta <= 0 {
		p.MinDelta = 0.02
	}
	if p.MinLag <= 0 {
		p.MinLag = 5 * time.Second
	}
	if p.MaxLag <= 0 {
		p.MaxLag = 5 * time.Minute
	}
	if p.Now.IsZero() {
		p.Now = time.Now().UTC()
	}
	return p
}

// Signal records that one provider's price for a market moved before
// another's. Persisted append-only for later aggregate analysis of which
// venues systematically lead.
type Signal struct {
	RunID  string            `json:"run_id"`
	GameID string            `json:"game_id"`
	Market market.MarketType `json:"market"`
	Side   market.Side       `json:"side"`
	Line   float64           `json:"line"`
	Player string            `json:"player,omitempty"`

	LeaderSource   market.SourceCategory `json:"leader_source"`
	LeaderProvider string                `json:"leader_provider"`
	LaggerSource   market.SourceCategory `json:"lagger_source"`
	LaggerProvider string                `json:"lagger_provider"`

	LeaderMoveTime time.Time `json:"leader_move_time"`
	LaggerMoveTime time.Time `json:"lagger_move_time"`
	LagSeconds     float64   `json:"lag_seconds"`

	LeaderProbBefore float64 `json:"leader_prob_before"`
	LeaderProbAfter  float64 `json:"leader_prob_after"`
	LaggerProbBefore float64 `json:"lagger_prob_before"`
	LaggerProbAfter  float64 `json:"lagger_prob_after"`

	ProbabilityDelta float64   `json:"probability_delta"`
	SignalStrength   float64   `json:"signal_strength"`
	DetectedAt       time.Time `json:"detected_at"`
}

// move is one provider's first significant price move within a series.
type move struct {
	time       time.Time
	probBefore float64
	probAfter  float64
	delta      float64
}

// Detect pairs providers on each market series by who moved first. One signal
// per qualifying unordered provider pair per series; a provider can lead one
// pair and lag another in the same run. Results are sorted by signal strength
// descending.
func Detect(history []market.Observation, params Params) []Signal {
	params = params.withDefaults()

	series := make(map[market.SeriesKey]map[market.ProviderKey][]market.Observation)
	for _, obs := range history {
		if obs.Prob <= 0 {
			continue
		}
		key := obs.SeriesKey()
		if series[key] == nil {
			series[key] = make(map[market.ProviderKey][]market.Observation)
		}
		pk := obs.ProviderKey()
		series[key][pk] = append(series[key][pk], obs)
	}

	runID := uuid.NewString()
	var signals []Signal

	for key, providers := range series {
		if len(providers) < 2 {
			continue
		}

		moves := make(map[market.ProviderKey]*move)
		for pk, points := range providers {
			if m := firstSignificantMove(points, params.MinDelta); m != nil {
				moves[pk] = m
			}
		}
		if len(moves) < 2 {
			continue
		}

		// Deterministic pair ordering.
		keys := make([]market.ProviderKey, 0, len(moves))
		for pk := range moves {
			keys = append(keys, pk)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Source != keys[j].Source {
				return keys[i].Source < keys[j].Source
			}
			return keys[i].Provider < keys[j].Provider
		})

		for i := range keys {
			for j := i + 1; j < len(keys); j++ {
				if sig, ok := pairSignal(key, keys[i], keys[j], moves, params, runID); ok {
					signals = append(signals, sig)
				}
			}
		}
	}

	sort.Slice(signals, func(i, j int) bool { return signals[i].SignalStrength > signals[j].SignalStrength })
	return signals
}

func pairSignal(key market.SeriesKey, a, b market.ProviderKey, moves map[market.ProviderKey]*move, params Params, runID string) (Signal, bool) {
	ma, mb := moves[a], moves[b]

	lagDur := mb.time.Sub(ma.time)
	if lagDur < 0 {
		lagDur = -lagDur
	}
	if lagDur < params.MinLag || lagDur > params.MaxLag {
		return Signal{}, false
	}

	leaderKey, laggerKey := a, b
	leader, lagger := ma, mb
	if mb.time.Before(ma.time) {
		leaderKey, laggerKey = b, a
		leader, lagger = mb, ma
	}

	avgDelta := (math.Abs(leader.delta) + math.Abs(lagger.delta)) / 2
	lagSeconds := lagDur.Seconds()

	return Signal{
		RunID:            runID,
		GameID:           key.GameID,
		Market:           key.Market,
		Side:             key.Side,
		Line:             key.Line,
		Player:           key.Player,
		LeaderSource:     leaderKey.Source,
		LeaderProvider:   leaderKey.Provider,
		LaggerSource:     laggerKey.Source,
		LaggerProvider:   laggerKey.Provider,
		LeaderMoveTime:   leader.time,
		LaggerMoveTime:   lagger.time,
		LagSeconds:       lagSeconds,
		LeaderProbBefore: leader.probBefore,
		LeaderProbAfter:  leader.probAfter,
		LaggerProbBefore: lagger.probBefore,
		LaggerProbAfter:  lagger.probAfter,
		ProbabilityDelta: avgDelta,
		SignalStrength:   avgDelta / (lagSeconds / 60),
		DetectedAt:       params.Now,
	}, true
}

// firstSignificantMove finds the first point whose probability differs from
// the series' first point by at least minDelta. Fewer than 2 observations, or
// no large-enough delta, yields nil and the provider is excluded from pairing.
func firstSignificantMove(points []market.Observation, minDelta float64) *move {
	if len(points) < 2 {
		return nil
	}
	sorted := append([]market.Observation(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	initial := sorted[0].Prob
	for _, p := range sorted[1:] {
		delta := p.Prob - initial
		if math.Abs(delta) >= minDelta {
			return &move{time: p.Time, probBefore: initial, probAfter: p.Prob, delta: delta}
		}
	}
	return nil
}
