package cli

import (
	"fmt"
	"path/filepath"

	"github.com/splitkit/splitkit/internal/store"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// tokenFilePath returns the path of the server token file, kept alongside
// the database.
func tokenFilePath() string {
	return filepath.Join(filepath.Dir(dbPath), ".splitkit-token")
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}
