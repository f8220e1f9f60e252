package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/splitkit/splitkit/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func newCreateCmd() *cobra.Command {
	var (
		name        string
		description string
		variations  string
		baseline    string
		metricKind  string
		metricEvent string
		startAt     string
		endAt       string
	)

	cmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a new experiment",
		Long: `Create a new experiment with weighted variations.

Variations are "name" or "name=weight" pairs; weights default to 1 and
are normalized at assignment time, so they do not need to sum to 1.

Examples:
  splitkit create hero --variations "control,challenger"
  splitkit create cta --variations "control=3,green=1,blue=1" --baseline control
  splitkit create signup --variations "a,b" --metric-event signup_click --metric-kind click`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			if variations == "" {
				entered, err := promptVariations()
				if err != nil {
					return err
				}
				variations = entered
			}

			parsed, err := parseVariations(variations, baseline)
			if err != nil {
				return err
			}
			if len(parsed) < 2 {
				return fmt.Errorf("need at least 2 variations. Example: --variations \"control,challenger\"")
			}

			exp := &store.Experiment{
				ID:          id,
				Name:        name,
				Description: description,
				IsActive:    true,
				MetricKind:  store.MetricKind(metricKind),
				MetricEvent: metricEvent,
			}
			if exp.Name == "" {
				exp.Name = id
			}
			if startAt != "" {
				t, err := time.Parse("2006-01-02", startAt)
				if err != nil {
					return fmt.Errorf("invalid --start date (want YYYY-MM-DD): %w", err)
				}
				exp.StartAt = &t
			}
			if endAt != "" {
				t, err := time.Parse("2006-01-02", endAt)
				if err != nil {
					return fmt.Errorf("invalid --end date (want YYYY-MM-DD): %w", err)
				}
				exp.EndAt = &t
			}

			return withStore(func(s *store.SQLiteStore) error {
				created, err := s.CreateExperiment(context.Background(), exp, parsed)
				if err != nil {
					return fmt.Errorf("failed to create experiment: %w", err)
				}

				fmt.Printf("Created experiment '%s' with %d variations:\n", created.ID, len(parsed))
				for i, v := range parsed {
					marker := ""
					if v.IsBaseline {
						marker = " (baseline)"
					}
					fmt.Printf("  %d: %s weight=%g%s\n", i, v.Name, v.Weight, marker)
				}
				if metricEvent != "" {
					fmt.Printf("  Success metric: %s\n", metricEvent)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the id)")
	cmd.Flags().StringVar(&description, "description", "", "experiment description")
	cmd.Flags().StringVarP(&variations, "variations", "v", "", "comma-separated variations, name or name=weight")
	cmd.Flags().StringVar(&baseline, "baseline", "", "baseline variation name (defaults to the first)")
	cmd.Flags().StringVar(&metricKind, "metric-kind", "", "success metric kind (click, conversion, custom)")
	cmd.Flags().StringVar(&metricEvent, "metric-event", "", "event name that counts as success (empty: any event)")
	cmd.Flags().StringVar(&startAt, "start", "", "start date YYYY-MM-DD (optional)")
	cmd.Flags().StringVar(&endAt, "end", "", "end date YYYY-MM-DD (optional)")

	return cmd
}

// parseVariations turns "control=3,challenger" into Variation records.
// The baseline flag picks the baseline arm; with no flag the first
// variation is the baseline.
func parseVariations(spec, baseline string) ([]store.Variation, error) {
	parts := strings.Split(spec, ",")
	variations := make([]store.Variation, 0, len(parts))
	seen := make(map[string]bool)

	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name := part
		weight := 1.0
		if idx := strings.Index(part, "="); idx >= 0 {
			name = strings.TrimSpace(part[:idx])
			w, err := strconv.ParseFloat(strings.TrimSpace(part[idx+1:]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid weight in %q", part)
			}
			if w < 0 {
				return nil, fmt.Errorf("negative weight in %q", part)
			}
			weight = w
		}
		if name == "" {
			return nil, fmt.Errorf("empty variation name in %q", spec)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate variation name %q", name)
		}
		seen[name] = true

		variations = append(variations, store.Variation{
			Name:       name,
			Weight:     weight,
			IsBaseline: name == baseline || (baseline == "" && i == 0),
			Position:   i,
		})
	}

	if baseline != "" && !seen[baseline] {
		return nil, fmt.Errorf("baseline %q is not one of the variations", baseline)
	}

	return variations, nil
}

func promptVariations() (string, error) {
	prompt := promptui.Prompt{
		Label: "Variations (comma-separated, name or name=weight)",
		Validate: func(input string) error {
			if _, err := parseVariations(input, ""); err != nil {
				return err
			}
			if len(strings.Split(input, ",")) < 2 {
				return fmt.Errorf("need at least 2 variations")
			}
			return nil
		},
	}

	result, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return result, nil
}
