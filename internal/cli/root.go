package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "splitkit",
	Short: "splitkit - a minimal, self-hosted A/B testing service",
	Long: `splitkit is a minimal, self-hosted A/B testing service.
Single Go binary, embedded SQLite, deterministic server-side bucketing.

Running without a subcommand starts the server (same as 'splitkit serve').`,
	RunE: runServe, // Default action is to start the server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional; real env vars win over it
	_ = godotenv.Load()

	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("SK_DB_PATH", "./splitkit.db"), "database path")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
