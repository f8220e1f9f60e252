package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/splitkit/splitkit/internal/store"
)

type HealthResponse struct {
	Status           string `json:"status"`
	ExperimentsCount int    `json:"experiments_count"`
	DBSizeBytes      int64  `json:"db_size_bytes"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	experiments, err := s.store.ListExperiments(ctx)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var dbSize int64
	row := s.store.DB().QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	_ = row.Scan(&dbSize)

	response := HealthResponse{
		Status:           "ok",
		ExperimentsCount: len(experiments),
		DBSizeBytes:      dbSize,
		UptimeSeconds:    int64(time.Since(s.startTime).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// AssignRequest asks which variation a visitor should see.
type AssignRequest struct {
	Experiment string `json:"experiment"`
	VisitorID  string `json:"visitor_id"`
	Fallback   string `json:"fallback"`
}

type AssignResponse struct {
	Experiment string `json:"experiment"`
	Variation  string `json:"variation"`
	VisitorID  string `json:"visitor_id"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Experiment == "" {
		http.Error(w, "Missing experiment", http.StatusBadRequest)
		return
	}

	// Anonymous visitors get a server-issued id; the client persists it
	// so repeat requests stay in the same bucket.
	if req.VisitorID == "" {
		req.VisitorID = uuid.NewString()
	}

	variation, err := s.engine.AssignVariation(r.Context(), req.Experiment, req.VisitorID, req.Fallback)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Experiment not found", http.StatusBadRequest)
			return
		}
		// Closed or misconfigured experiments fall back; only surface
		// failures that left us with nothing to serve.
		if variation == "" {
			http.Error(w, "Failed to assign variation", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AssignResponse{
		Experiment: req.Experiment,
		Variation:  variation,
		VisitorID:  req.VisitorID,
	})
}

// EventRequest is an incoming success-event beacon.
type EventRequest struct {
	Experiment string   `json:"experiment"`
	VisitorID  string   `json:"visitor_id"`
	Event      string   `json:"event"`
	Value      *float64 `json:"value,omitempty"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Experiment == "" || req.VisitorID == "" || req.Event == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if _, err := s.store.GetExperiment(ctx, req.Experiment); err != nil {
		http.Error(w, "Experiment not found", http.StatusBadRequest)
		return
	}

	err := s.store.RecordSuccess(ctx, store.SuccessEvent{
		ExperimentID: req.Experiment,
		VisitorKey:   req.VisitorID,
		Event:        req.Event,
		Value:        req.Value,
	})
	if err != nil {
		http.Error(w, "Failed to record event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleExperimentsAPI returns public experiment config for the SDK.
func (s *Server) handleExperimentsAPI(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "GET, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	type variationResponse struct {
		Name     string `json:"name"`
		Baseline bool   `json:"baseline,omitempty"`
	}
	type experimentResponse struct {
		ID          string              `json:"id"`
		Name        string              `json:"name"`
		Active      bool                `json:"active"`
		MetricEvent string              `json:"metric_event,omitempty"`
		Variations  []variationResponse `json:"variations"`
	}

	build := func(exp *store.Experiment) (experimentResponse, error) {
		variations, err := s.store.GetVariations(ctx, exp.ID)
		if err != nil {
			return experimentResponse{}, err
		}
		vr := make([]variationResponse, len(variations))
		for i, v := range variations {
			vr[i] = variationResponse{Name: v.Name, Baseline: v.IsBaseline}
		}
		return experimentResponse{
			ID:          exp.ID,
			Name:        exp.Name,
			Active:      exp.IsActive,
			MetricEvent: exp.MetricEvent,
			Variations:  vr,
		}, nil
	}

	if id := r.URL.Query().Get("id"); id != "" {
		exp, err := s.store.GetExperiment(ctx, id)
		if err != nil {
			http.Error(w, "Experiment not found", http.StatusNotFound)
			return
		}
		resp, err := build(exp)
		if err != nil {
			http.Error(w, "Failed to load variations", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
		return
	}

	experiments, err := s.store.ListExperiments(ctx)
	if err != nil {
		http.Error(w, "Failed to load experiments", http.StatusInternalServerError)
		return
	}

	response := []experimentResponse{}
	for _, exp := range experiments {
		if !exp.IsActive {
			continue
		}
		resp, err := build(exp)
		if err != nil {
			http.Error(w, "Failed to load variations", http.StatusInternalServerError)
			return
		}
		response = append(response, resp)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func setCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
