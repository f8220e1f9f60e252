package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/splitkit/splitkit/internal/server"
	"github.com/splitkit/splitkit/internal/store"
	"github.com/spf13/cobra"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the splitkit server",
	Long: `Start the splitkit HTTP server.

The server provides:
  - Assignment endpoint for deterministic variation bucketing
  - Beacon endpoint for success events
  - Client SDK at /sdk.js
  - Token-protected dashboard API

Example:
  splitkit serve --port 8080`,
	RunE: runServe,
}

func init() {
	defaultPort := 8080
	if p := os.Getenv("SK_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			defaultPort = parsed
		}
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", defaultPort, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Open database
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	// Create and start server
	srv := server.New(s, port, tokenFilePath())
	return srv.Start()
}
