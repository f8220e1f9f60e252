package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/splitkit/splitkit/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newWinnerCmd())
}

func newWinnerCmd() *cobra.Command {
	var variation string

	cmd := &cobra.Command{
		Use:   "winner <id>",
		Short: "Declare a winner for an experiment",
		Long: `Declare a winning variation and stop the experiment.

After declaring a winner, the snippet command generates static code
showing only the winning variation (no experiment logic).

Example:
  splitkit winner hero --variation challenger`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
				if exp.Winner != nil {
					return fmt.Errorf("experiment already has a winner: %s", *exp.Winner)
				}

				variations, err := s.GetVariations(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to get variations: %w", err)
				}
				found := false
				for _, v := range variations {
					if v.Name == variation {
						found = true
						break
					}
				}
				if !found {
					names := make([]string, len(variations))
					for i, v := range variations {
						names[i] = v.Name
					}
					return fmt.Errorf("unknown variation %q (experiment has: %v)", variation, names)
				}

				if err := s.SetWinner(ctx, id, variation); err != nil {
					return fmt.Errorf("failed to set winner: %w", err)
				}

				fmt.Printf("Declared winner for experiment '%s': %q\n", id, variation)
				fmt.Println("The experiment has been stopped.")
				fmt.Println("\nNote: 'snippet' now generates static code with the winning variation only.")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&variation, "variation", "v", "", "winning variation name (required)")
	cmd.MarkFlagRequired("variation")

	return cmd
}
