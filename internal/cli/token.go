package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the dashboard API URL with access token",
	Long: `Show the dashboard API URL with the current access token.

Use this when you've scrolled past the startup message or need to
share dashboard access.

Example:
  splitkit token`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(tokenFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no server running. Start with: splitkit serve")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := string(data)
	if token == "" {
		return fmt.Errorf("token file is empty. Restart the server with: splitkit serve")
	}

	serverPort := getEnvOrDefault("SK_PORT", "8080")
	fmt.Printf("Dashboard API: http://localhost:%s/dashboard/api/experiments?token=%s\n", serverPort, token)
	return nil
}
