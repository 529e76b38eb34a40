package odds

// Convention describes how a venue quotes prices.
type Convention int

const (
	// DecimalOdds quotes a payout multiplier > 1.0 (sportsbooks).
	DecimalOdds Convention = iota
	// DirectProbability quotes a [0,1] contract price (peer markets).
	DirectProbability
)

// ToProbability converts a raw quoted price into an implied probability.
// Invalid input returns ok=false rather than an error so a single bad quote
// never aborts a batch.
func ToProbability(price float64, conv Convention) (float64, bool) {
	switch conv {
	case DecimalOdds:
		if price <= 1 {
			return 0, false
		}
		return 1 / price, true
	case DirectProbability:
		if price <= 0 || price > 1 {
			return 0, false
		}
		return price, true
	default:
		return 0, false
	}
}

// ToOdds converts a probability back to decimal odds, or 0 when invalid.
func ToOdds(prob float64) float64 {
	if prob <= 0 {
		return 0
	}
	return 1 / prob
}
