package stats

import "github.com/splitkit/splitkit/internal/store"

// VariationStats summarizes one variation's observed traffic.
type VariationStats struct {
	Name      string
	Visitors  int
	Successes int
	Rate      float64 // Successes / Visitors, 0 when no visitors
}

// Aggregate folds assignment and success-event records into per-variation
// stats. Visitors are counted from assignments, not events, so a visitor
// who never converts still counts. Successes are visitor-deduplicated: a
// visitor with three matching events converts once.
//
// When metricEvent is non-empty only events with that name count toward
// conversions; otherwise any event counts. Events from visitors with no
// assignment record are dropped — an event without a known bucket cannot
// be attributed to a variation.
func Aggregate(assignments []store.Assignment, events []store.SuccessEvent, metricEvent string) map[string]VariationStats {
	byVariation := make(map[string]VariationStats)

	// Visitor -> assigned variation, and distinct-visitor counts.
	assigned := make(map[string]string, len(assignments))
	for _, a := range assignments {
		if _, seen := assigned[a.VisitorKey]; seen {
			continue
		}
		assigned[a.VisitorKey] = a.Variation

		vs := byVariation[a.Variation]
		vs.Name = a.Variation
		vs.Visitors++
		byVariation[a.Variation] = vs
	}

	converted := make(map[string]bool)
	for _, e := range events {
		if metricEvent != "" && e.Event != metricEvent {
			continue
		}
		variation, ok := assigned[e.VisitorKey]
		if !ok || converted[e.VisitorKey] {
			continue
		}
		converted[e.VisitorKey] = true

		vs := byVariation[variation]
		vs.Successes++
		byVariation[variation] = vs
	}

	for name, vs := range byVariation {
		if vs.Visitors > 0 {
			vs.Rate = float64(vs.Successes) / float64(vs.Visitors)
		}
		byVariation[name] = vs
	}

	return byVariation
}
