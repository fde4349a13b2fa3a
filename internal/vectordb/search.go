package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as human-readable text.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n\n", len(results))

	for i, r := range results {
		md := r.Document.Metadata
		fmt.Fprintf(&sb, "--- %d. %s (similarity: %.4f) ---\n", i+1, r.Document.ID, r.Similarity)
		if md.Source != "" {
			fmt.Fprintf(&sb, "Source: %s\n", md.Source)
		}
		if len(md.Disciplines) > 0 {
			fmt.Fprintf(&sb, "Disciplines: %s\n", strings.Join(md.Disciplines, ", "))
		}
		if len(md.Cultures) > 0 {
			fmt.Fprintf(&sb, "Cultures: %s\n", strings.Join(md.Cultures, ", "))
		}
		sb.WriteString("\n")
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
