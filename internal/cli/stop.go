package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/splitkit/splitkit/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newStopCmd())
}

func newStopCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop an experiment",
		Long: `Stop an experiment: it stops accepting traffic, but its data stays.

Stopped experiments serve the caller's fallback variation. Data is kept,
so 'results' keeps working.

Example:
  splitkit stop hero`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			if !yes {
				confirm := promptui.Prompt{
					Label:     fmt.Sprintf("Stop experiment '%s'", id),
					IsConfirm: true,
				}
				if _, err := confirm.Run(); err != nil {
					fmt.Println("Aborted.")
					return nil
				}
			}

			return withStore(func(s *store.SQLiteStore) error {
				err := s.UpdateExperimentState(context.Background(), id, false)
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("experiment '%s' not found", id)
					}
					return fmt.Errorf("failed to stop experiment: %w", err)
				}

				fmt.Printf("Stopped experiment '%s'. Visitors now get the fallback variation.\n", id)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}
