package odds

import "github.com/hetulpatel/sportsarb/internal/market"

// Devig removes the bookmaker margin from a set of mutually-exclusive outcome
// probabilities by renormalizing them to sum to 1. The input must come from a
// single provider; mixing providers would conflate margin removal with
// cross-provider disagreement.
//
// A vector containing any non-positive entry is returned unchanged so one
// malformed outcome cannot corrupt the whole group. Devig is idempotent: an
// already-normalized vector maps to itself.
func Devig(probs []float64) []float64 {
	if len(probs) == 0 {
		return probs
	}
	total := 0.0
	for _, p := range probs {
		if p <= 0 {
			return probs
		}
		total += p
	}
	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = p / total
	}
	return out
}

// Annotate computes the de-vigged probability for every quote in place. Quotes
// are grouped per provider per (market, line); vig-free sources copy the
// implied probability straight through. When a group contains a non-positive
// entry the vector comes back unchanged, so its valid quotes carry their
// implied probability as DeviggedProb while the invalid ones stay nil.
func Annotate(quotes []*market.Quote) {
	for _, group := range market.GroupByProvider(quotes) {
		annotateGroup(group)
	}
}

func annotateGroup(group []*market.Quote) {
	if len(group) == 0 {
		return
	}
	if group[0].Source.VigFree() {
		for _, q := range group {
			if q.ImpliedProb > 0 {
				p := q.ImpliedProb
				q.DeviggedProb = &p
			}
		}
		return
	}

	probs := make([]float64, len(group))
	for i, q := range group {
		probs[i] = q.ImpliedProb
	}
	devigged := Devig(probs)
	for i, q := range group {
		if devigged[i] > 0 {
			p := devigged[i]
			q.DeviggedProb = &p
		}
	}
}
