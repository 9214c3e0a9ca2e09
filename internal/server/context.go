package server

import (
	"fmt"
	"strings"

	"github.com/curatord/curator/internal/selector"
)

// renderContext turns a selection result into the markdown block
// injected into an LLM prompt. Categories render in stable order so the
// block is deterministic for a given result.
func renderContext(res selector.SelectionResult) string {
	var b strings.Builder

	b.WriteString("<context>\n## Curator: Assembled Context\n")

	byCat := make(map[selector.Category][]selector.ScoredItem)
	for _, it := range res.Included {
		byCat[it.Category] = append(byCat[it.Category], it)
	}

	for _, cat := range selector.Categories {
		items := byCat[cat]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n", sectionTitle(cat))
		for _, it := range items {
			b.WriteString("- ")
			b.WriteString(strings.Join(strings.Fields(it.Content), " "))
			b.WriteString("\n")
		}
	}

	if len(res.Included) == 0 {
		b.WriteString("\n(no memories met the inclusion criteria)\n")
	} else {
		fmt.Fprintf(&b, "\n_%d memories, %d excluded_\n",
			res.Metrics.TotalItems, res.Metrics.ExcludedCount)
	}

	b.WriteString("</context>")
	return b.String()
}

var sectionTitles = map[selector.Category]string{
	selector.CategoryHealth:        "Health",
	selector.CategoryPersonal:      "About You",
	selector.CategoryRelationships: "People",
	selector.CategoryPreferences:   "Preferences",
	selector.CategoryConversation:  "Recent Conversations",
	selector.CategoryEvents:        "Events",
	selector.CategoryTasks:         "Tasks",
}

func sectionTitle(cat selector.Category) string {
	if t, ok := sectionTitles[cat]; ok {
		return t
	}
	return string(cat)
}
