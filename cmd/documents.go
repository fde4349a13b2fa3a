package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/pipeline"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List the knowledge base documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		discipline, _ := cmd.Flags().GetString("discipline")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := knowledge.Open(cfg.KnowledgePaths)
		if err != nil {
			return fmt.Errorf("loading knowledge base: %w", err)
		}

		var docs []knowledge.Document
		for _, d := range store.All() {
			if discipline == "" || hasDiscipline(d, knowledge.Discipline(discipline)) {
				docs = append(docs, d)
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(docs)
		}

		stats := store.Stats()
		fmt.Fprintf(out, "%d documents\n", stats.Documents)
		for _, d := range knowledge.Disciplines {
			fmt.Fprintf(out, "  %-18s %d\n", d, stats.ByDiscipline[d])
		}
		if len(stats.ByCulture) > 0 {
			cultures := make([]string, 0, len(stats.ByCulture))
			for c := range stats.ByCulture {
				cultures = append(cultures, c)
			}
			sort.Strings(cultures)
			fmt.Fprintf(out, "Cultures: %s\n", strings.Join(cultures, ", "))
		}
		fmt.Fprintln(out)

		for _, d := range docs {
			fmt.Fprintf(out, "%s\n  %s\n", d.ID, pipeline.SourceSummary(d))
		}
		return nil
	},
}

func init() {
	documentsCmd.Flags().String("discipline", "", "only list documents tagged with this discipline")
	documentsCmd.Flags().Bool("json", false, "output documents as JSON")
	rootCmd.AddCommand(documentsCmd)
}

func hasDiscipline(d knowledge.Document, disc knowledge.Discipline) bool {
	for _, x := range d.Discipline {
		if x == disc {
			return true
		}
	}
	return false
}
