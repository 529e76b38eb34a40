package impact

import (
	"math"
	"sort"
	"time"

	"github.com/hetulpatel/sportsarb/internal/market"
)

// Event is an externally supplied discrete happening (injury news, lineup
// change) attributed to a game. The extraction pipeline producing these lives
// outside the engine; the analyzer only consumes them.
type Event struct {
	EventID string    `json:"event_id"`
	GameID  string    `json:"game_id"`
	Type    string    `json:"type,omitempty"`
	Team    string    `json:"team,omitempty"`
	Player  string    `json:"player,omitempty"`
	Time    time.Time `json:"time"`
}

// Direction classifies the sign of an impact delta.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// Params controls the impact computation windows and thresholds.
type Params struct {
	PreWindow          time.Duration // how far before the event to look for a baseline
	PostWindow         time.Duration // how far after the event to track displacement
	MinSnapshots       int           // minimum post-event observations required
	DirectionThreshold float64       // |delta| above this is up/down, else stable
	Now                time.Time     // computation clock; zero means time.Now
}

func (p Params) withDefaults() Params {
	if p.PreWindow <= 0 {
		p.PreWindow = 60 * time.Minute
	}
	if p.PostWindow <= 0 {
		p.PostWindow = 60 * time.Minute
	}
	if p.MinSnapshots <= 0 {
		p.MinSnapshots = 1
	}
	if p.DirectionThreshold <= 0 {
		p.DirectionThreshold = 0.01
	}
	if p.Now.IsZero() {
		p.Now = time.Now().UTC()
	}
	return p
}

// Impact measures one event's effect on one priced outcome at one provider.
// The extremal post-window probability is reported, not the last one, since
// markets can overshoot and revert.
type Impact struct {
	EventID string `json:"event_id"`
	GameID  string `json:"game_id"`

	Market   market.MarketType     `json:"market"`
	Side     market.Side           `json:"side"`
	Line     float64               `json:"line"`
	Player   string                `json:"player,omitempty"`
	Source   market.SourceCategory `json:"source"`
	Provider string                `json:"provider"`

	BaselineProb float64   `json:"baseline_prob"`
	BaselineTime time.Time `json:"baseline_time"`

	MaxProb       float64   `json:"max_prob"`
	MinProb       float64   `json:"min_prob"`
	ImpactProb    float64   `json:"impact_prob"`
	ImpactDelta   float64   `json:"impact_delta"`
	Direction     Direction `json:"impact_direction"`
	ImpactTime    time.Time `json:"impact_time"`
	SnapshotCount int       `json:"snapshot_count"`

	ComputedAt time.Time `json:"computed_at"`
}

type seriesKey struct {
	series   market.SeriesKey
	provider market.ProviderKey
}

// Compute correlates events against the probability history of their games.
// Per event and per (market, side, line, player, provider) series: the
// baseline is the last observation at or before the event time within the
// pre-window; post-window observations must number at least MinSnapshots.
// A series with no baseline, or too few post observations, yields no impact.
func Compute(history []market.Observation, events []Event, params Params) []Impact {
	params = params.withDefaults()

	byGame := make(map[string][]market.Observation)
	for _, obs := range history {
		if obs.Prob <= 0 || obs.GameID == "" {
			continue
		}
		byGame[obs.GameID] = append(byGame[obs.GameID], obs)
	}

	var impacts []Impact
	for _, ev := range events {
		if ev.GameID == "" || ev.Time.IsZero() {
			continue
		}
		obs := byGame[ev.GameID]
		if len(obs) == 0 {
			continue
		}
		impacts = append(impacts, computeForEvent(ev, obs, params)...)
	}

	sort.Slice(impacts, func(i, j int) bool {
		return math.Abs(impacts[i].ImpactDelta) > math.Abs(impacts[j].ImpactDelta)
	})
	return impacts
}

func computeForEvent(ev Event, obs []market.Observation, params Params) []Impact {
	preStart := ev.Time.Add(-params.PreWindow)
	postEnd := ev.Time.Add(params.PostWindow)

	grouped := make(map[seriesKey][]market.Observation)
	for _, o := range obs {
		if o.Time.Before(preStart) || o.Time.After(postEnd) {
			continue
		}
		key := seriesKey{series: o.SeriesKey(), provider: o.ProviderKey()}
		grouped[key] = append(grouped[key], o)
	}

	var out []Impact
	for key, rows := range grouped {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })

		baseline, ok := findBaseline(rows, ev.Time)
		if !ok {
			continue
		}

		var post []market.Observation
		for _, r := range rows {
			if r.Time.After(ev.Time) {
				post = append(post, r)
			}
		}
		if len(post) < params.MinSnapshots {
			continue
		}

		imp := measure(baseline, post, params)
		imp.EventID = ev.EventID
		imp.GameID = ev.GameID
		imp.Market = key.series.Market
		imp.Side = key.series.Side
		imp.Line = key.series.Line
		imp.Player = key.series.Player
		imp.Source = key.provider.Source
		imp.Provider = key.provider.Provider
		imp.ComputedAt = params.Now
		out = append(out, imp)
	}
	return out
}

// findBaseline returns the last observation at or before the event time.
// rows must already be time-sorted.
func findBaseline(rows []market.Observation, eventTime time.Time) (market.Observation, bool) {
	var baseline market.Observation
	found := false
	for _, r := range rows {
		if r.Time.After(eventTime) {
			break
		}
		baseline = r
		found = true
	}
	return baseline, found
}

// measure picks whichever of the post-window max and min deviates further
// from the baseline.
func measure(baseline market.Observation, post []market.Observation, params Params) Impact {
	maxRow, minRow := post[0], post[0]
	for _, r := range post[1:] {
		if r.Prob > maxRow.Prob {
			maxRow = r
		}
		if r.Prob < minRow.Prob {
			minRow = r
		}
	}

	deltaMax := maxRow.Prob - baseline.Prob
	deltaMin := minRow.Prob - baseline.Prob

	impactRow, delta := maxRow, deltaMax
	if math.Abs(deltaMin) > math.Abs(deltaMax) {
		impactRow, delta = minRow, deltaMin
	}

	dir := DirectionStable
	switch {
	case delta > params.DirectionThreshold:
		dir = DirectionUp
	case delta < -params.DirectionThreshold:
		dir = DirectionDown
	}

	return Impact{
		BaselineProb:  baseline.Prob,
		BaselineTime:  baseline.Time,
		MaxProb:       maxRow.Prob,
		MinProb:       minRow.Prob,
		ImpactProb:    impactRow.Prob,
		ImpactDelta:   delta,
		Direction:     dir,
		ImpactTime:    impactRow.Time,
		SnapshotCount: len(post),
	}
}
