package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/curatord/curator/internal/selector"
	"github.com/curatord/curator/internal/store"
)

var (
	selectIntent   string
	selectDomain   string
	selectRole     string
	selectCategory string
	selectQuality  float64
	selectJSON     bool
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Run a selection against the local store",
	Long:  "Score every stored memory item against the given intent, domain, and role, admit the best under budget, and print the selection debug report.",
	RunE:  runSelect,
}

func init() {
	selectCmd.Flags().StringVarP(&selectIntent, "intent", "i", "general", "Conversation intent (health, planning, emotional, recall, general)")
	selectCmd.Flags().StringVarP(&selectDomain, "domain", "d", "", "Explicit domain filter (health, family, schedule, daily)")
	selectCmd.Flags().StringVarP(&selectRole, "role", "r", "owner", "Viewer role (owner, caregiver, assistant)")
	selectCmd.Flags().StringVarP(&selectCategory, "category", "c", "", "Restrict candidates to one category")
	selectCmd.Flags().Float64VarP(&selectQuality, "quality", "q", 0.7, "Retrieval quality signal in [0,1]")
	selectCmd.Flags().BoolVar(&selectJSON, "json", false, "Print the raw selection result as JSON")
}

func runSelect(cmd *cobra.Command, args []string) error {
	if selectQuality < 0 || selectQuality > 1 {
		return fmt.Errorf("quality %.2f outside [0,1]", selectQuality)
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var items []store.Item
	if selectCategory != "" {
		items, err = db.ListByCategory(selectCategory)
	} else {
		items, err = db.ListItems()
	}
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}

	fb, err := db.FeedbackSets()
	if err != nil {
		return fmt.Errorf("load feedback: %w", err)
	}

	candidates := make([]selector.CandidateItem, len(items))
	for i, it := range items {
		candidates[i] = it.Candidate()
	}

	sel := selector.NewDefault()
	entry := sel.SelectRun(candidates, selectQuality, selector.ScoringContext{
		Intent:      selector.Intent(selectIntent),
		Domain:      selector.Domain(selectDomain),
		Role:        selector.Role(selectRole),
		Pinned:      fb.Pinned,
		Reused:      fb.Reused,
		Corrected:   fb.Corrected,
		Dismissed:   fb.Dismissed,
		CurrentTime: time.Now(),
	}, selector.Meta{})

	if err := db.SaveRun(entry); err != nil {
		return fmt.Errorf("persist run: %w", err)
	}

	if selectJSON {
		return printJSON(entry.Result)
	}

	fmt.Printf("run %s\n\n", entry.RunID)
	fmt.Print(selector.FormatSelectionDebug(entry.Result))
	return nil
}
