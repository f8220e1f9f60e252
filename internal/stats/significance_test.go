package stats_test

import (
	"math"
	"strings"
	"testing"

	"github.com/splitkit/splitkit/internal/stats"
)

func TestEvaluate_ClearWinner(t *testing.T) {
	// Baseline 10% (100/1000) vs candidate 13% (130/1000): the pooled
	// z-test puts z near 2.1 and p near 0.035 — significant at 95%.
	baseline := stats.VariationStats{Name: "control", Visitors: 1000, Successes: 100}
	candidate := stats.VariationStats{Name: "challenger", Visitors: 1000, Successes: 130}

	result := stats.Evaluate(baseline, candidate)

	if !result.IsSignificant {
		t.Errorf("expected significant result, got p=%f", result.PValue)
	}
	if result.ZScore < 2.0 || result.ZScore > 2.3 {
		t.Errorf("z-score: got %f, want ~2.1", result.ZScore)
	}
	if result.PValue < 0.02 || result.PValue > 0.05 {
		t.Errorf("p-value: got %f, want ~0.035", result.PValue)
	}
	if math.Abs(result.RelativeUplift-30) > 0.01 {
		t.Errorf("relative uplift: got %f, want 30", result.RelativeUplift)
	}
	if result.LowSampleSize {
		t.Error("unexpected low-sample flag for 1000-visitor arms")
	}
	if !strings.Contains(result.Message, "challenger") {
		t.Errorf("message should name the winner: %q", result.Message)
	}
	if !strings.Contains(result.Recommendation, "challenger") {
		t.Errorf("recommendation should suggest adopting the winner: %q", result.Recommendation)
	}
}

func TestEvaluate_SmallSampleNotSignificant(t *testing.T) {
	// 5/50 vs 6/50: tiny difference, tiny sample.
	baseline := stats.VariationStats{Name: "control", Visitors: 50, Successes: 5}
	candidate := stats.VariationStats{Name: "challenger", Visitors: 50, Successes: 6}

	result := stats.Evaluate(baseline, candidate)

	if result.IsSignificant {
		t.Errorf("expected no significance, got p=%f", result.PValue)
	}
	if !result.LowSampleSize {
		t.Error("expected low-sample flag for 50-visitor arms")
	}
	if !strings.Contains(result.Recommendation, "collecting") {
		t.Errorf("expected keep-collecting recommendation, got %q", result.Recommendation)
	}
}

func TestEvaluate_Symmetry(t *testing.T) {
	a := stats.VariationStats{Name: "a", Visitors: 800, Successes: 96}
	b := stats.VariationStats{Name: "b", Visitors: 750, Successes: 120}

	ab := stats.Evaluate(a, b)
	ba := stats.Evaluate(b, a)

	if math.Abs(ab.ZScore+ba.ZScore) > 1e-12 {
		t.Errorf("z-scores not symmetric: %f vs %f", ab.ZScore, ba.ZScore)
	}
	if math.Abs(ab.PValue-ba.PValue) > 1e-12 {
		t.Errorf("p-values differ: %f vs %f", ab.PValue, ba.PValue)
	}
}

func TestEvaluate_ZeroVisitors(t *testing.T) {
	cases := []struct {
		name                string
		baseline, candidate stats.VariationStats
	}{
		{"both empty", stats.VariationStats{}, stats.VariationStats{}},
		{"empty baseline", stats.VariationStats{}, stats.VariationStats{Visitors: 100, Successes: 10}},
		{"empty candidate", stats.VariationStats{Visitors: 100, Successes: 10}, stats.VariationStats{}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result := stats.Evaluate(c.baseline, c.candidate)

			if result.PValue != 1.0 {
				t.Errorf("p-value: got %f, want 1.0", result.PValue)
			}
			if result.ZScore != 0 {
				t.Errorf("z-score: got %f, want 0", result.ZScore)
			}
			if result.RelativeUplift != 0 {
				t.Errorf("uplift: got %f, want 0", result.RelativeUplift)
			}
			if result.IsSignificant {
				t.Error("degenerate input must not be significant")
			}
			if !strings.Contains(result.Message, "Insufficient") {
				t.Errorf("expected insufficient-data message, got %q", result.Message)
			}
		})
	}
}

func TestEvaluate_NeverNaN(t *testing.T) {
	cases := []stats.VariationStats{
		{},
		{Visitors: 10},
		{Visitors: 10, Successes: 10},
		{Visitors: 1, Successes: 1},
		{Visitors: 100000, Successes: 99999},
	}

	for _, a := range cases {
		for _, b := range cases {
			result := stats.Evaluate(a, b)
			for name, v := range map[string]float64{
				"PValue":         result.PValue,
				"ZScore":         result.ZScore,
				"RelativeUplift": result.RelativeUplift,
			} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("Evaluate(%+v, %+v): %s is %f", a, b, name, v)
				}
			}
		}
	}
}

func TestEvaluate_DegenerateIdenticalRates(t *testing.T) {
	// Both arms fully converted: pooled SE is zero.
	a := stats.VariationStats{Visitors: 100, Successes: 100}
	b := stats.VariationStats{Visitors: 100, Successes: 100}

	result := stats.Evaluate(a, b)

	if result.ZScore != 0 {
		t.Errorf("z-score: got %f, want 0", result.ZScore)
	}
	if result.PValue != 1.0 {
		t.Errorf("p-value: got %f, want 1.0", result.PValue)
	}
	if result.IsSignificant {
		t.Error("identical rates must not be significant")
	}
}

func TestEvaluate_ZeroBaselineRate(t *testing.T) {
	// A baseline with no conversions cannot produce a meaningful
	// relative uplift; it must be 0, not Inf.
	baseline := stats.VariationStats{Visitors: 100, Successes: 0}
	candidate := stats.VariationStats{Visitors: 100, Successes: 20}

	result := stats.Evaluate(baseline, candidate)

	if result.RelativeUplift != 0 {
		t.Errorf("uplift with zero baseline rate: got %f, want 0", result.RelativeUplift)
	}
}

func TestEvaluate_SignificantNegative(t *testing.T) {
	baseline := stats.VariationStats{Name: "control", Visitors: 1000, Successes: 130}
	candidate := stats.VariationStats{Name: "challenger", Visitors: 1000, Successes: 100}

	result := stats.Evaluate(baseline, candidate)

	if !result.IsSignificant {
		t.Errorf("expected significance, got p=%f", result.PValue)
	}
	if result.ZScore >= 0 {
		t.Errorf("z-score should be negative, got %f", result.ZScore)
	}
	if result.Recommendation != "No change recommended." {
		t.Errorf("expected no-change recommendation, got %q", result.Recommendation)
	}
	if math.Abs(result.RelativeUplift-(-23.076923076923077)) > 0.001 {
		t.Errorf("uplift: got %f, want ~-23.08", result.RelativeUplift)
	}
}

func TestEvaluate_PValuePrecision(t *testing.T) {
	// z = 1.96 should give a two-tailed p of 0.05 to 4 decimal places.
	// 500/1000 vs 560/1000 gives z ≈ 2.69, p ≈ 0.0072; check the p-value
	// agrees with the normal distribution to 4 decimals.
	baseline := stats.VariationStats{Visitors: 1000, Successes: 500}
	candidate := stats.VariationStats{Visitors: 1000, Successes: 560}

	result := stats.Evaluate(baseline, candidate)

	want := 2 * (1 - 0.5*(1+math.Erf(math.Abs(result.ZScore)/math.Sqrt2)))
	if math.Abs(result.PValue-want) > 1e-10 {
		t.Errorf("p-value: got %.10f, want %.10f", result.PValue, want)
	}
	if result.PValue > 0.05 {
		t.Errorf("expected strong significance, got p=%f", result.PValue)
	}
}
