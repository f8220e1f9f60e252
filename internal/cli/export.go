package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/splitkit/splitkit/internal/store"
	"github.com/spf13/cobra"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export raw experiment data",
	Long: `Export raw assignment and success-event data in CSV or JSON format.

Examples:
  splitkit export hero --format csv > hero-data.csv
  splitkit export hero --format json > hero-data.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	id := args[0]

	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		if _, err := s.GetExperiment(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("experiment '%s' not found", id)
			}
			return fmt.Errorf("failed to get experiment: %w", err)
		}

		assignments, err := s.ListAssignments(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list assignments: %w", err)
		}
		events, err := s.ListSuccessEvents(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list success events: %w", err)
		}

		if exportFormat == "csv" {
			return exportCSV(assignments, events)
		}
		return exportJSON(assignments, events)
	})
}

func exportCSV(assignments []store.Assignment, events []store.SuccessEvent) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	// One flat stream: assignment rows then event rows.
	if err := w.Write([]string{"record", "timestamp", "visitor_id", "variation", "event", "value"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, a := range assignments {
		row := []string{"assignment", strconv.FormatInt(a.CreatedAt.Unix(), 10), a.VisitorKey, a.Variation, "", ""}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	for _, e := range events {
		value := ""
		if e.Value != nil {
			value = strconv.FormatFloat(*e.Value, 'g', -1, 64)
		}
		row := []string{"success", strconv.FormatInt(e.CreatedAt.Unix(), 10), e.VisitorKey, "", e.Event, value}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return nil
}

type jsonExport struct {
	Assignments []jsonAssignment `json:"assignments"`
	Events      []jsonEvent      `json:"events"`
}

type jsonAssignment struct {
	Timestamp int64  `json:"timestamp"`
	VisitorID string `json:"visitor_id"`
	Variation string `json:"variation"`
}

type jsonEvent struct {
	Timestamp int64    `json:"timestamp"`
	VisitorID string   `json:"visitor_id"`
	Event     string   `json:"event"`
	Value     *float64 `json:"value,omitempty"`
}

func exportJSON(assignments []store.Assignment, events []store.SuccessEvent) error {
	export := jsonExport{
		Assignments: make([]jsonAssignment, len(assignments)),
		Events:      make([]jsonEvent, len(events)),
	}

	for i, a := range assignments {
		export.Assignments[i] = jsonAssignment{
			Timestamp: a.CreatedAt.Unix(),
			VisitorID: a.VisitorKey,
			Variation: a.Variation,
		}
	}
	for i, e := range events {
		export.Events[i] = jsonEvent{
			Timestamp: e.CreatedAt.Unix(),
			VisitorID: e.VisitorKey,
			Event:     e.Event,
			Value:     e.Value,
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
