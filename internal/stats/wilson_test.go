package stats_test

import (
	"math"
	"testing"

	"github.com/splitkit/splitkit/internal/stats"
)

func TestWilsonInterval_ContainsRate(t *testing.T) {
	cases := []struct {
		successes, trials int
	}{
		{10, 100},
		{50, 100},
		{90, 100},
		{1, 10},
		{500, 10000},
	}

	for _, c := range cases {
		lower, upper := stats.WilsonInterval(c.successes, c.trials, 0.95)
		rate := float64(c.successes) / float64(c.trials)

		if lower >= rate || upper <= rate {
			t.Errorf("WilsonInterval(%d, %d): [%f, %f] does not contain rate %f",
				c.successes, c.trials, lower, upper, rate)
		}
		if lower < 0 || upper > 1 {
			t.Errorf("WilsonInterval(%d, %d): [%f, %f] out of bounds",
				c.successes, c.trials, lower, upper)
		}
	}
}

func TestWilsonInterval_ZeroTrials(t *testing.T) {
	lower, upper := stats.WilsonInterval(0, 0, 0.95)
	if lower != 0 || upper != 0 {
		t.Errorf("expected [0, 0] for zero trials, got [%f, %f]", lower, upper)
	}
}

func TestWilsonInterval_ExtremesStayClamped(t *testing.T) {
	lower, _ := stats.WilsonInterval(0, 10, 0.95)
	if lower != 0 {
		t.Errorf("zero successes: lower bound %f, want 0", lower)
	}

	_, upper := stats.WilsonInterval(10, 10, 0.95)
	if upper != 1 {
		t.Errorf("all successes: upper bound %f, want 1", upper)
	}
}

func TestWilsonInterval_NarrowsWithSampleSize(t *testing.T) {
	smallLower, smallUpper := stats.WilsonInterval(10, 100, 0.95)
	largeLower, largeUpper := stats.WilsonInterval(1000, 10000, 0.95)

	if (largeUpper - largeLower) >= (smallUpper - smallLower) {
		t.Errorf("interval did not narrow: small [%f, %f], large [%f, %f]",
			smallLower, smallUpper, largeLower, largeUpper)
	}
}

func TestWilsonInterval_KnownValue(t *testing.T) {
	// 50/100 at 95%: Wilson gives roughly [0.404, 0.596].
	lower, upper := stats.WilsonInterval(50, 100, 0.95)

	if math.Abs(lower-0.404) > 0.005 {
		t.Errorf("lower bound: got %f, want ~0.404", lower)
	}
	if math.Abs(upper-0.596) > 0.005 {
		t.Errorf("upper bound: got %f, want ~0.596", upper)
	}
}

func TestConfidenceInterval_UsesVariationStats(t *testing.T) {
	vs := stats.VariationStats{Name: "control", Visitors: 100, Successes: 50}
	lower, upper := stats.ConfidenceInterval(vs)

	wantLower, wantUpper := stats.WilsonInterval(50, 100, 0.95)
	if lower != wantLower || upper != wantUpper {
		t.Errorf("ConfidenceInterval: got [%f, %f], want [%f, %f]", lower, upper, wantLower, wantUpper)
	}
}
