package odds

import (
	"math"
	"testing"
)

func TestToProbability_DecimalOdds(t *testing.T) {
	p, ok := ToProbability(2.0, DecimalOdds)
	if !ok || p != 0.5 {
		t.Errorf("2.0 decimal: got (%v, %v), want (0.5, true)", p, ok)
	}
	p, ok = ToProbability(1.25, DecimalOdds)
	if !ok || math.Abs(p-0.8) > 1e-12 {
		t.Errorf("1.25 decimal: got (%v, %v), want (0.8, true)", p, ok)
	}
}

func TestToProbability_DecimalOddsRejectsAtOrBelowOne(t *testing.T) {
	for _, price := range []float64{1.0, 0.99, 0, -2} {
		if _, ok := ToProbability(price, DecimalOdds); ok {
			t.Errorf("decimal price %v must be rejected", price)
		}
	}
}

func TestToProbability_DirectProbability(t *testing.T) {
	p, ok := ToProbability(0.37, DirectProbability)
	if !ok || p != 0.37 {
		t.Errorf("direct 0.37: got (%v, %v)", p, ok)
	}
	if _, ok := ToProbability(0, DirectProbability); ok {
		t.Error("direct 0 must be rejected")
	}
	if _, ok := ToProbability(1.01, DirectProbability); ok {
		t.Error("direct price above 1 must be rejected")
	}
	if p, ok := ToProbability(1.0, DirectProbability); !ok || p != 1.0 {
		t.Errorf("direct 1.0 is valid: got (%v, %v)", p, ok)
	}
}

func TestToOdds_RoundTrip(t *testing.T) {
	for _, prob := range []float64{0.1, 0.5, 0.91} {
		odds := ToOdds(prob)
		back, ok := ToProbability(odds, DecimalOdds)
		if !ok || math.Abs(back-prob) > 1e-12 {
			t.Errorf("round trip %v -> %v -> %v", prob, odds, back)
		}
	}
	if ToOdds(0) != 0 {
		t.Error("ToOdds(0) must be 0")
	}
}
