package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vitalsync/backend/internal/infrastructure/storage"
)

var (
	dbPath     string
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "vitalctl",
	Short: "Inspect nutrition reports, tracker windows and calendar ranges",
	Long: `vitalctl runs the VitalSync nutrition and time-window engine from the command line.
It reads food logs from JSON files and tracker samples from the SQLite store used by the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./vitalsync.db or $VITALSYNC_STORAGE_PATH)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print JSON instead of a table")
}

// getDBPath returns the database file path
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("VITALSYNC_STORAGE_PATH"); env != "" {
		return env
	}
	return "vitalsync.db"
}

// openDB opens the store, refusing to create a fresh database by accident
func openDB() (*storage.Store, error) {
	path := getDBPath()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	return storage.Open(path)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSONFile(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
