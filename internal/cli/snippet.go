package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/splitkit/splitkit/internal/snippets"
	"github.com/splitkit/splitkit/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newSnippetCmd())
}

func newSnippetCmd() *cobra.Command {
	var (
		framework string
		serverURL string
		content   string
	)

	cmd := &cobra.Command{
		Use:   "snippet <id>",
		Short: "Generate integration code for an experiment",
		Long: `Generate framework-specific integration code for an experiment.

Content per variation is given as "variation=text" pairs. When the
experiment already has a declared winner, a static snippet is produced
with only the winning content.

Examples:
  splitkit snippet hero --content "control=Ship Faster,challenger=Build Better"
  splitkit snippet hero --framework react --server-url https://ab.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			fw := snippets.Framework(framework)
			if framework == "" {
				picked, err := promptFramework()
				if err != nil {
					return err
				}
				fw = picked
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				exp, err := s.GetExperiment(ctx, id)
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("experiment '%s' not found", id)
					}
					return fmt.Errorf("failed to get experiment: %w", err)
				}

				variations, err := s.GetVariations(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to get variations: %w", err)
				}

				contentByName := parseContent(content)
				// Unspecified content defaults to the variation name.
				for _, v := range variations {
					if _, ok := contentByName[v.Name]; !ok {
						contentByName[v.Name] = v.Name
					}
				}

				config := snippets.Config{
					ServerURL:    serverURL,
					ExperimentID: id,
					Variations:   contentByName,
				}
				if exp.Winner != nil {
					config.Winner = *exp.Winner
				}

				files, err := snippets.Generate(fw, config)
				if err != nil {
					return fmt.Errorf("failed to generate snippet: %w", err)
				}

				for _, f := range files {
					fmt.Printf("--- %s ---\n", f.Name)
					fmt.Println(f.Content)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&framework, "framework", "F", "", "target framework (html, react, vue)")
	cmd.Flags().StringVar(&serverURL, "server-url", "http://localhost:8080", "public URL of the splitkit server")
	cmd.Flags().StringVar(&content, "content", "", "comma-separated variation=text pairs")

	return cmd
}

// parseContent turns "a=Ship Faster,b=Build Better" into a map.
func parseContent(spec string) map[string]string {
	result := make(map[string]string)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, "="); idx > 0 {
			result[strings.TrimSpace(part[:idx])] = strings.TrimSpace(part[idx+1:])
		}
	}
	return result
}

func promptFramework() (snippets.Framework, error) {
	options := []struct {
		Label     string
		Framework snippets.Framework
	}{
		{"HTML (vanilla JavaScript)", snippets.FrameworkHTML},
		{"React / Next.js", snippets.FrameworkReact},
		{"Vue", snippets.FrameworkVue},
	}

	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.Label
	}

	prompt := promptui.Select{
		Label: "Your framework",
		Items: labels,
		Size:  len(labels),
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return options[idx].Framework, nil
}
