package assign

import "errors"

var (
	// ErrNoVariations is returned when an experiment has no variations configured.
	ErrNoVariations = errors.New("no variations configured")

	// ErrZeroWeight is returned when no variation carries a positive weight.
	ErrZeroWeight = errors.New("variation weights sum to zero")
)

// Variation is one arm of an experiment: a name and its relative share of
// traffic. Weights do not need to sum to 1; they are normalized here.
type Variation struct {
	Name   string
	Weight float64
}

// Select maps a bucket value in [0, 1) onto one of the variations by
// partitioning the unit interval in proportion to the normalized weights,
// walking the variations in their given order.
//
// Intervals are half-open: a bucket value equal to a boundary belongs to
// the variation above it, so with weights 0.5/0.5 a value of exactly 0.5
// selects the second variation.
//
// The interval layout depends on variation order. Reordering variations
// (even with identical weights) moves the boundaries and can reassign
// visitors whose bucket values are already fixed.
func Select(bucketValue float64, variations []Variation) (string, error) {
	if len(variations) == 0 {
		return "", ErrNoVariations
	}

	total := 0.0
	for _, v := range variations {
		if v.Weight > 0 {
			total += v.Weight
		}
	}
	if total <= 0 {
		return "", ErrZeroWeight
	}

	cumulative := 0.0
	last := ""
	for _, v := range variations {
		if v.Weight <= 0 {
			continue
		}
		cumulative += v.Weight / total
		if bucketValue < cumulative {
			return v.Name, nil
		}
		last = v.Name
	}

	// Accumulated rounding can leave the final boundary a hair below 1.0;
	// a bucket value in that gap belongs to the last weighted variation.
	return last, nil
}
