package middles

import (
	"math"

	"github.com/hetulpatel/sportsarb/internal/market"
)

// Estimator supplies the probability that the final result lands inside a
// middle window of the given width. Injected so callers can swap in an
// empirical model without touching detection.
type Estimator interface {
	GapProbability(m market.MarketType, gap float64) float64
}

// NormalEstimator models the margin of victory (spreads), total points
// (totals), or a player's stat (props) as a zero-mean Gaussian around the
// consensus line and returns the mass of a gap-wide window centered on it.
type NormalEstimator struct {
	SpreadStdDev float64
	TotalStdDev  float64
	PropStdDev   float64
}

// DefaultEstimator returns a NormalEstimator with NBA-shaped deviations.
func DefaultEstimator() NormalEstimator {
	return NormalEstimator{SpreadStdDev: 13.5, TotalStdDev: 18.0, PropStdDev: 5.0}
}

// GapProbability returns P(|X| < gap/2) for X ~ N(0, sigma).
func (e NormalEstimator) GapProbability(m market.MarketType, gap float64) float64 {
	if gap <= 0 {
		return 0
	}
	sigma := e.TotalStdDev
	switch {
	case m == market.MarketSpreads:
		sigma = e.SpreadStdDev
	case m.IsPlayerProp():
		sigma = e.PropStdDev
	}
	if sigma <= 0 {
		return 0
	}
	return math.Erf(gap / (2 * math.Sqrt2 * sigma))
}
