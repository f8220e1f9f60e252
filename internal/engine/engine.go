// Package engine ties the pure assignment and stats functions to the
// storage layer: sticky variation assignment, stats aggregation, and
// significance analysis for an experiment.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/splitkit/splitkit/internal/assign"
	"github.com/splitkit/splitkit/internal/stats"
	"github.com/splitkit/splitkit/internal/store"
)

type Engine struct {
	store store.Store
	now   func() time.Time
}

func New(s store.Store) *Engine {
	return &Engine{store: s, now: time.Now}
}

// AssignVariation returns the variation visitorKey should see in the given
// experiment. The stored assignment wins when one exists; otherwise the
// visitor is bucketed, the choice is written write-if-absent, and the
// surviving row is read back so concurrent requests for a new visitor all
// converge on one variation.
//
// When the experiment is inactive, outside its start/end window, or has an
// unusable variation config, the caller-supplied fallback is returned and
// nothing is recorded. Configuration errors surface alongside the fallback
// so callers can report them.
func (e *Engine) AssignVariation(ctx context.Context, experimentID, visitorKey, fallback string) (string, error) {
	exp, err := e.store.GetExperiment(ctx, experimentID)
	if err != nil {
		return fallback, fmt.Errorf("failed to load experiment: %w", err)
	}

	if !e.isOpen(exp) {
		return fallback, nil
	}

	if a, err := e.store.GetAssignment(ctx, experimentID, visitorKey); err == nil {
		return a.Variation, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fallback, fmt.Errorf("failed to look up assignment: %w", err)
	}

	variations, err := e.store.GetVariations(ctx, experimentID)
	if err != nil {
		return fallback, fmt.Errorf("failed to load variations: %w", err)
	}

	chosen, err := assign.Select(assign.Bucket(experimentID, visitorKey), toArms(variations))
	if err != nil {
		return fallback, fmt.Errorf("experiment %q misconfigured: %w", experimentID, err)
	}

	if err := e.store.PutAssignment(ctx, store.Assignment{
		ExperimentID: experimentID,
		VisitorKey:   visitorKey,
		Variation:    chosen,
	}); err != nil {
		return fallback, fmt.Errorf("failed to record assignment: %w", err)
	}

	// Re-read: if a concurrent request won the insert race, adopt its
	// variation rather than the one computed here.
	a, err := e.store.GetAssignment(ctx, experimentID, visitorKey)
	if err != nil {
		return fallback, fmt.Errorf("failed to read back assignment: %w", err)
	}
	return a.Variation, nil
}

// ComputeStats aggregates stored assignments and success events into
// per-variation stats, filtered by the experiment's success metric when
// one is configured.
func (e *Engine) ComputeStats(ctx context.Context, experimentID string) (map[string]stats.VariationStats, error) {
	exp, err := e.store.GetExperiment(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load experiment: %w", err)
	}

	assignments, err := e.store.ListAssignments(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	events, err := e.store.ListSuccessEvents(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list success events: %w", err)
	}

	return stats.Aggregate(assignments, events, exp.MetricEvent), nil
}

// AnalyzeSignificance compares two variation summaries directly; no I/O.
func (e *Engine) AnalyzeSignificance(baseline, candidate stats.VariationStats) stats.SignificanceResult {
	return stats.Evaluate(baseline, candidate)
}

// VariationReport is one arm of an experiment results view: its stats,
// Wilson interval, and (for non-baseline arms) the test against baseline.
type VariationReport struct {
	stats.VariationStats
	IsBaseline   bool
	CILower      float64
	CIUpper      float64
	Significance *stats.SignificanceResult
}

// Results produces the full per-variation report for an experiment:
// every configured variation (including ones with no traffic yet) with
// confidence intervals, and each non-baseline arm tested against the
// baseline. The baseline is the variation flagged IsBaseline, or the
// first variation when none is flagged.
func (e *Engine) Results(ctx context.Context, experimentID string) ([]VariationReport, error) {
	variations, err := e.store.GetVariations(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variations: %w", err)
	}
	if len(variations) == 0 {
		return nil, fmt.Errorf("experiment %q misconfigured: %w", experimentID, assign.ErrNoVariations)
	}

	byName, err := e.ComputeStats(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	baselineIdx := 0
	for i, v := range variations {
		if v.IsBaseline {
			baselineIdx = i
			break
		}
	}

	statsFor := func(name string) stats.VariationStats {
		if vs, ok := byName[name]; ok {
			return vs
		}
		return stats.VariationStats{Name: name}
	}
	baselineStats := statsFor(variations[baselineIdx].Name)

	reports := make([]VariationReport, len(variations))
	for i, v := range variations {
		vs := statsFor(v.Name)
		lower, upper := stats.ConfidenceInterval(vs)

		r := VariationReport{
			VariationStats: vs,
			IsBaseline:     i == baselineIdx,
			CILower:        lower,
			CIUpper:        upper,
		}
		if i != baselineIdx {
			sig := stats.Evaluate(baselineStats, vs)
			r.Significance = &sig
		}
		reports[i] = r
	}

	return reports, nil
}

// isOpen reports whether the experiment is currently accepting traffic.
func (e *Engine) isOpen(exp *store.Experiment) bool {
	if !exp.IsActive {
		return false
	}
	now := e.now()
	if exp.StartAt != nil && now.Before(*exp.StartAt) {
		return false
	}
	if exp.EndAt != nil && now.After(*exp.EndAt) {
		return false
	}
	return true
}

func toArms(variations []store.Variation) []assign.Variation {
	arms := make([]assign.Variation, len(variations))
	for i, v := range variations {
		arms[i] = assign.Variation{Name: v.Name, Weight: v.Weight}
	}
	return arms
}
