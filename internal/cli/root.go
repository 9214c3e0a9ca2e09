package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/curatord/curator/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Deterministic context assembly for LLM prompts",
	Long:  "Curator scores stored memory items against the current conversation and assembles a bounded, fully audited context block for LLM prompt injection.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(runsCmd)
}

// openDB opens the database for CLI commands. CURATOR_DB overrides the
// default path.
func openDB() (*store.DB, error) {
	dbPath := os.Getenv("CURATOR_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(dbPath)
}
