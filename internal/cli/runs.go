package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/curatord/curator/internal/selector"
)

var (
	runsLimit int
	runsDebug string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent selection runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs")
	runsCmd.Flags().StringVar(&runsDebug, "debug", "", "Print the debug report for one run id")
}

func runRuns(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if runsDebug != "" {
		run, err := db.GetRun(runsDebug)
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		if run == nil {
			return fmt.Errorf("run %s not found", runsDebug)
		}
		var res selector.SelectionResult
		if err := json.Unmarshal(run.Result, &res); err != nil {
			return fmt.Errorf("decode run payload: %w", err)
		}
		fmt.Print(selector.FormatSelectionDebug(res))
		return nil
	}

	runs, err := db.RecentRuns(runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for _, r := range runs {
		ts := time.UnixMilli(r.CreatedAt).Format("2006-01-02 15:04:05")
		fmt.Printf("%s  %s  %2d included  %2d excluded", ts, r.ID, r.IncludedCount, r.ExcludedCount)
		if r.SessionID != "" {
			fmt.Printf("  session=%s turn=%d", r.SessionID, r.Turn)
		}
		fmt.Println()
	}
	return nil
}
