package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/splitkit/splitkit/internal/engine"
	"github.com/splitkit/splitkit/internal/store"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results <id>",
	Short: "Show detailed results for an experiment",
	Long:  `Show per-variation conversion rates, confidence intervals, and the significance test against the baseline.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	id := args[0]

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		exp, err := s.GetExperiment(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("experiment '%s' not found", id)
			}
			return fmt.Errorf("failed to get experiment: %w", err)
		}

		reports, err := engine.New(s).Results(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to compute results: %w", err)
		}

		// Print header
		fmt.Printf("EXPERIMENT: %s\n", exp.ID)
		status := "active"
		if !exp.IsActive {
			status = "stopped"
		}
		fmt.Printf("STATUS: %s\n", status)
		if exp.Winner != nil {
			fmt.Printf("WINNER: %s\n", *exp.Winner)
		}
		if exp.MetricEvent != "" {
			fmt.Printf("METRIC: %s\n", exp.MetricEvent)
		}
		fmt.Printf("CREATED: %s\n", exp.CreatedAt.Format("2006-01-02"))
		fmt.Println()

		// Print table header
		fmt.Println("VARIATION         VISITORS  CONVERSIONS  RATE     95% CI")
		fmt.Println(strings.Repeat("─", 64))

		for _, rep := range reports {
			indicator := ""
			if rep.IsBaseline {
				indicator = " ← BASELINE"
			}

			ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", rep.CILower*100, rep.CIUpper*100)
			if rep.Visitors == 0 {
				ciStr = "N/A"
			}

			// Truncate name if too long
			name := rep.Name
			if len(name) > 16 {
				name = name[:13] + "..."
			}

			fmt.Printf("%-16s  %-8d  %-11d  %-7s  %s%s\n",
				name,
				rep.Visitors,
				rep.Successes,
				formatPercent(rep.Rate),
				ciStr,
				indicator,
			)
		}

		fmt.Println()

		// Significance of each arm against the baseline
		printedVerdict := false
		for _, rep := range reports {
			if rep.Significance == nil {
				continue
			}
			printedVerdict = true
			sig := rep.Significance

			fmt.Println(sig.Message)
			if sig.RelativeUplift != 0 {
				fmt.Printf("  Relative uplift: %+.1f%%  (z=%.2f, p=%.4f)\n",
					sig.RelativeUplift, sig.ZScore, sig.PValue)
			}
			fmt.Printf("  Recommendation: %s\n", sig.Recommendation)
		}
		if !printedVerdict {
			fmt.Println("No challenger variations to compare against the baseline.")
		}

		return nil
	})
}
