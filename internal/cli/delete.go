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
	rootCmd.AddCommand(newDeleteCmd())
}

func newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an experiment and all its data",
		Long: `Permanently delete an experiment, its variations, assignments, and
success events. This cannot be undone; prefer 'stop' to retain data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			if !yes {
				confirm := promptui.Prompt{
					Label:     fmt.Sprintf("Permanently delete experiment '%s' and all its data", id),
					IsConfirm: true,
				}
				if _, err := confirm.Run(); err != nil {
					fmt.Println("Aborted.")
					return nil
				}
			}

			return withStore(func(s *store.SQLiteStore) error {
				err := s.DeleteExperiment(context.Background(), id)
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("experiment '%s' not found", id)
					}
					return fmt.Errorf("failed to delete experiment: %w", err)
				}

				fmt.Printf("Deleted experiment '%s'.\n", id)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}
