package assign_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/splitkit/splitkit/internal/assign"
)

func TestSelect_Boundaries(t *testing.T) {
	variations := []assign.Variation{
		{Name: "a", Weight: 0.5},
		{Name: "b", Weight: 0.5},
	}

	cases := []struct {
		bucket float64
		want   string
	}{
		{0.0, "a"},
		{0.3, "a"},
		{0.499999, "a"},
		{0.5, "b"}, // boundary belongs to the upper interval
		{0.7, "b"},
		{0.999999, "b"},
	}

	for _, c := range cases {
		got, err := assign.Select(c.bucket, variations)
		if err != nil {
			t.Fatalf("Select(%f) returned error: %v", c.bucket, err)
		}
		if got != c.want {
			t.Errorf("Select(%f) = %q, want %q", c.bucket, got, c.want)
		}
	}
}

func TestSelect_Deterministic(t *testing.T) {
	variations := []assign.Variation{
		{Name: "a", Weight: 2},
		{Name: "b", Weight: 1},
		{Name: "c", Weight: 1},
	}

	for _, bucket := range []float64{0.1, 0.49, 0.51, 0.76, 0.99} {
		first, err := assign.Select(bucket, variations)
		if err != nil {
			t.Fatal(err)
		}
		second, _ := assign.Select(bucket, variations)
		if first != second {
			t.Errorf("Select(%f) not deterministic: %q vs %q", bucket, first, second)
		}
	}
}

func TestSelect_UnnormalizedWeights(t *testing.T) {
	// Weights 2/1/1 partition as 50%/25%/25% regardless of their sum.
	variations := []assign.Variation{
		{Name: "a", Weight: 2},
		{Name: "b", Weight: 1},
		{Name: "c", Weight: 1},
	}

	cases := []struct {
		bucket float64
		want   string
	}{
		{0.25, "a"},
		{0.49, "a"},
		{0.5, "b"},
		{0.74, "b"},
		{0.75, "c"},
		{0.99, "c"},
	}

	for _, c := range cases {
		got, err := assign.Select(c.bucket, variations)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("Select(%f) = %q, want %q", c.bucket, got, c.want)
		}
	}
}

func TestSelect_EmptyVariations(t *testing.T) {
	_, err := assign.Select(0.5, nil)
	if !errors.Is(err, assign.ErrNoVariations) {
		t.Errorf("expected ErrNoVariations, got %v", err)
	}
}

func TestSelect_AllZeroWeights(t *testing.T) {
	variations := []assign.Variation{
		{Name: "a", Weight: 0},
		{Name: "b", Weight: 0},
	}

	_, err := assign.Select(0.5, variations)
	if !errors.Is(err, assign.ErrZeroWeight) {
		t.Errorf("expected ErrZeroWeight, got %v", err)
	}
}

func TestSelect_ZeroWeightVariationNeverChosen(t *testing.T) {
	variations := []assign.Variation{
		{Name: "a", Weight: 1},
		{Name: "dead", Weight: 0},
		{Name: "b", Weight: 1},
	}

	for i := 0; i < 1000; i++ {
		bucket := float64(i) / 1000
		got, err := assign.Select(bucket, variations)
		if err != nil {
			t.Fatal(err)
		}
		if got == "dead" {
			t.Fatalf("zero-weight variation selected at bucket %f", bucket)
		}
	}
}

func TestSelect_RoundingGapFallsBackToLast(t *testing.T) {
	// Seven equal weights: 7 * (1.0/7) accumulates to just under 1.0 in
	// float64, so a bucket value at the very top falls in the gap.
	variations := make([]assign.Variation, 7)
	for i := range variations {
		variations[i] = assign.Variation{Name: fmt.Sprintf("v%d", i), Weight: 1}
	}

	got, err := assign.Select(0.9999999999999999, variations)
	if err != nil {
		t.Fatal(err)
	}
	if got != "v6" {
		t.Errorf("expected last variation for top-of-range bucket, got %q", got)
	}
}

func TestSelect_WeightConformance(t *testing.T) {
	variations := []assign.Variation{
		{Name: "a", Weight: 1},
		{Name: "b", Weight: 1},
	}

	n := 10000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		got, err := assign.Select(assign.Bucket("conformance", fmt.Sprintf("visitor-%d", i)), variations)
		if err != nil {
			t.Fatal(err)
		}
		counts[got]++
	}

	for _, name := range []string{"a", "b"} {
		share := float64(counts[name]) / float64(n)
		if share < 0.48 || share > 0.52 {
			t.Errorf("variation %q got %.1f%% of traffic, want 50%% ± 2%%", name, share*100)
		}
	}
}

func TestSelect_ReorderPreservesAggregateShares(t *testing.T) {
	// Reordering equal-weight variations may reassign individuals but the
	// aggregate split must stay 50/50.
	forward := []assign.Variation{{Name: "a", Weight: 1}, {Name: "b", Weight: 1}}
	reversed := []assign.Variation{{Name: "b", Weight: 1}, {Name: "a", Weight: 1}}

	n := 10000
	forwardA := 0
	reversedA := 0
	for i := 0; i < n; i++ {
		bucket := assign.Bucket("reorder", fmt.Sprintf("visitor-%d", i))
		if got, _ := assign.Select(bucket, forward); got == "a" {
			forwardA++
		}
		if got, _ := assign.Select(bucket, reversed); got == "a" {
			reversedA++
		}
	}

	for label, count := range map[string]int{"forward": forwardA, "reversed": reversedA} {
		share := float64(count) / float64(n)
		if share < 0.48 || share > 0.52 {
			t.Errorf("%s order: variation a got %.1f%%, want 50%% ± 2%%", label, share*100)
		}
	}
}
