package server

import (
	"encoding/json"
	"net/http"
)

// handleDashboardAPI returns every experiment with full results: per-arm
// stats, Wilson intervals, and the significance test against baseline.
// Token-protected; this is what dashboards poll.
func (s *Server) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	experiments, err := s.store.ListExperiments(ctx)
	if err != nil {
		http.Error(w, "Failed to load experiments", http.StatusInternalServerError)
		return
	}

	type apiSignificance struct {
		PValue         float64 `json:"p_value"`
		ZScore         float64 `json:"z_score"`
		RelativeUplift float64 `json:"relative_uplift"`
		IsSignificant  bool    `json:"is_significant"`
		LowSampleSize  bool    `json:"low_sample_size"`
		Message        string  `json:"message"`
		Recommendation string  `json:"recommendation"`
	}

	type apiVariation struct {
		Name         string           `json:"name"`
		Baseline     bool             `json:"baseline"`
		Visitors     int              `json:"visitors"`
		Successes    int              `json:"successes"`
		Rate         float64          `json:"rate"`
		CILower      float64          `json:"ci_lower"`
		CIUpper      float64          `json:"ci_upper"`
		Significance *apiSignificance `json:"significance,omitempty"`
	}

	type apiExperiment struct {
		ID          string         `json:"id"`
		Name        string         `json:"name"`
		Active      bool           `json:"active"`
		Winner      string         `json:"winner,omitempty"`
		MetricEvent string         `json:"metric_event,omitempty"`
		CreatedAt   string         `json:"created_at"`
		Variations  []apiVariation `json:"variations"`
	}

	apiExperiments := make([]apiExperiment, 0, len(experiments))
	for _, exp := range experiments {
		reports, err := s.engine.Results(ctx, exp.ID)
		if err != nil {
			http.Error(w, "Failed to compute results", http.StatusInternalServerError)
			return
		}

		variations := make([]apiVariation, len(reports))
		for i, rep := range reports {
			v := apiVariation{
				Name:      rep.Name,
				Baseline:  rep.IsBaseline,
				Visitors:  rep.Visitors,
				Successes: rep.Successes,
				Rate:      rep.Rate,
				CILower:   rep.CILower,
				CIUpper:   rep.CIUpper,
			}
			if rep.Significance != nil {
				v.Significance = &apiSignificance{
					PValue:         rep.Significance.PValue,
					ZScore:         rep.Significance.ZScore,
					RelativeUplift: rep.Significance.RelativeUplift,
					IsSignificant:  rep.Significance.IsSignificant,
					LowSampleSize:  rep.Significance.LowSampleSize,
					Message:        rep.Significance.Message,
					Recommendation: rep.Significance.Recommendation,
				}
			}
			variations[i] = v
		}

		winner := ""
		if exp.Winner != nil {
			winner = *exp.Winner
		}

		apiExperiments = append(apiExperiments, apiExperiment{
			ID:          exp.ID,
			Name:        exp.Name,
			Active:      exp.IsActive,
			Winner:      winner,
			MetricEvent: exp.MetricEvent,
			CreatedAt:   exp.CreatedAt.Format("2006-01-02T15:04:05Z"),
			Variations:  variations,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"experiments": apiExperiments,
	})
}
