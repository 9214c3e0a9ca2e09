package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/curatord/curator/internal/store"
)

var (
	rememberID         string
	rememberCategory   string
	rememberSource     string
	rememberImportance int
)

var rememberCmd = &cobra.Command{
	Use:   "remember [content]",
	Short: "Store a memory item",
	Long:  "Insert a memory item into the local store. Content comes from the arguments, or from stdin when no arguments are given.",
	RunE:  runRemember,
}

func init() {
	rememberCmd.Flags().StringVar(&rememberID, "id", "", "Item id (default: generated)")
	rememberCmd.Flags().StringVarP(&rememberCategory, "category", "c", "personal", "Item category")
	rememberCmd.Flags().StringVarP(&rememberSource, "source", "s", "text", "Capture source (voice, text, system)")
	rememberCmd.Flags().IntVar(&rememberImportance, "importance", 50, "Importance 0-100")
}

func runRemember(cmd *cobra.Command, args []string) error {
	content := strings.TrimSpace(strings.Join(args, " "))
	if content == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		content = strings.TrimSpace(string(data))
	}
	if content == "" {
		return fmt.Errorf("content required")
	}

	id := rememberID
	if id == "" {
		id = uuid.NewString()
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	it := &store.Item{
		ID:         id,
		Category:   rememberCategory,
		Source:     rememberSource,
		Content:    content,
		OccurredAt: time.Now().UnixMilli(),
		Importance: rememberImportance,
	}
	if err := db.SaveItem(it); err != nil {
		return fmt.Errorf("save item: %w", err)
	}

	fmt.Printf("remembered %s [%s]\n", it.ID, it.Category)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
