package stats

import (
	"fmt"
	"math"
)

// ConfidenceLevel is the fixed confidence level of this version. The
// significance threshold follows from it: p < 0.05.
const ConfidenceLevel = 95

// significanceThreshold is the two-tailed p-value cutoff for 95% confidence.
const significanceThreshold = 0.05

// lowSampleVisitors is the per-arm visitor count below which results are
// flagged as low-sample. Advisory only; does not change IsSignificant.
const lowSampleVisitors = 100

// SignificanceResult is the outcome of a two-proportion z-test between a
// baseline and a candidate variation. All numeric fields are finite:
// degenerate input (empty arms, identical rates) produces sentinel values,
// never NaN or Inf.
type SignificanceResult struct {
	PValue          float64
	ZScore          float64
	ConfidenceLevel int
	RelativeUplift  float64 // percent change of candidate rate vs baseline
	IsSignificant   bool
	LowSampleSize   bool
	Message         string
	Recommendation  string
}

// Evaluate runs a pooled two-proportion z-test of candidate against
// baseline. Zero visitors in either arm is not an error: it yields a
// degraded result (p=1, z=0) with a message saying data is insufficient.
func Evaluate(baseline, candidate VariationStats) SignificanceResult {
	result := SignificanceResult{
		PValue:          1.0,
		ConfidenceLevel: ConfidenceLevel,
		LowSampleSize:   baseline.Visitors < lowSampleVisitors || candidate.Visitors < lowSampleVisitors,
	}

	if baseline.Visitors == 0 || candidate.Visitors == 0 {
		result.Message = "Insufficient data: both variations need at least one visitor."
		result.Recommendation = "Keep collecting data."
		return result
	}

	p1 := float64(baseline.Successes) / float64(baseline.Visitors)
	p2 := float64(candidate.Successes) / float64(candidate.Visitors)

	// Pooled proportion under the null hypothesis of no difference.
	pooled := float64(baseline.Successes+candidate.Successes) /
		float64(baseline.Visitors+candidate.Visitors)
	se := math.Sqrt(pooled * (1 - pooled) *
		(1/float64(baseline.Visitors) + 1/float64(candidate.Visitors)))

	if se > 0 {
		result.ZScore = (p2 - p1) / se
		result.PValue = twoTailedPValue(result.ZScore)
	}
	// se == 0 means both arms converted identically (0% or 100%);
	// z stays 0 and p stays 1.

	if p1 > 0 {
		result.RelativeUplift = (p2 - p1) / p1 * 100
	}

	result.IsSignificant = result.PValue < significanceThreshold
	result.Message, result.Recommendation = verdict(result, baseline.Name, candidate.Name)

	return result
}

// twoTailedPValue converts a z-score into a two-tailed p-value from the
// standard normal distribution, via the exact error function.
func twoTailedPValue(z float64) float64 {
	return 2 * (1 - normalCDF(math.Abs(z)))
}

func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func verdict(r SignificanceResult, baselineName, candidateName string) (message, recommendation string) {
	if baselineName == "" {
		baselineName = "baseline"
	}
	if candidateName == "" {
		candidateName = "candidate"
	}

	switch {
	case r.IsSignificant && r.ZScore > 0:
		message = fmt.Sprintf("%q outperforms %q with %d%% confidence (p=%.4f).",
			candidateName, baselineName, r.ConfidenceLevel, r.PValue)
		recommendation = fmt.Sprintf("Adopt %q.", candidateName)
	case r.IsSignificant:
		message = fmt.Sprintf("%q underperforms %q with %d%% confidence (p=%.4f).",
			candidateName, baselineName, r.ConfidenceLevel, r.PValue)
		recommendation = "No change recommended."
	default:
		message = fmt.Sprintf("No significant difference between %q and %q (p=%.4f).",
			baselineName, candidateName, r.PValue)
		if r.LowSampleSize {
			recommendation = "Keep collecting data: sample size is low."
		} else {
			recommendation = "No change recommended."
		}
	}

	if r.LowSampleSize && r.IsSignificant {
		message += " Low sample size: treat this result with caution."
	}

	return message, recommendation
}
