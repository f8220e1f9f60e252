package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/splitkit/splitkit/internal/stats"
	"github.com/splitkit/splitkit/internal/store"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all experiments",
	Long:  `List all experiments with their status and traffic totals.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		experiments, err := s.ListExperiments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list experiments: %w", err)
		}

		if len(experiments) == 0 {
			fmt.Println("No experiments yet.")
			fmt.Println()
			fmt.Println("Create one with:")
			fmt.Println("  splitkit create hero --variations \"control,challenger\"")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tVARIATIONS\tVISITORS\tCONVERSIONS\tCREATED")

		for _, exp := range experiments {
			assignments, err := s.ListAssignments(ctx, exp.ID)
			if err != nil {
				return fmt.Errorf("failed to list assignments for %s: %w", exp.ID, err)
			}
			events, err := s.ListSuccessEvents(ctx, exp.ID)
			if err != nil {
				return fmt.Errorf("failed to list events for %s: %w", exp.ID, err)
			}
			variations, err := s.GetVariations(ctx, exp.ID)
			if err != nil {
				return fmt.Errorf("failed to list variations for %s: %w", exp.ID, err)
			}

			totalVisitors := 0
			totalConversions := 0
			for _, vs := range stats.Aggregate(assignments, events, exp.MetricEvent) {
				totalVisitors += vs.Visitors
				totalConversions += vs.Successes
			}

			status := "ACTIVE"
			if !exp.IsActive {
				status = "STOPPED"
			}
			if exp.Winner != nil {
				status = fmt.Sprintf("WON (%s)", *exp.Winner)
			}

			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				exp.ID,
				status,
				len(variations),
				totalVisitors,
				totalConversions,
				exp.CreatedAt.Format("2006-01-02"),
			)
		}

		return w.Flush()
	})
}
