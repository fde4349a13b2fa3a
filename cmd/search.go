package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/interlingua/internal/intent"
	"github.com/ziadkadry99/interlingua/internal/pipeline"
	"github.com/ziadkadry99/interlingua/internal/retrieval"
)

var searchCmd = &cobra.Command{
	Use:   "search [question]",
	Short: "Show the knowledge base documents retrieved for a question",
	Long: `Runs intent analysis and hybrid retrieval without generating an answer,
printing the ranked documents with their scores.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum number of results (default from config)")
	searchCmd.Flags().StringSlice("context", nil, "situational context to reward, e.g. formal")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	limit, _ := cmd.Flags().GetInt("limit")
	contexts, _ := cmd.Flags().GetStringSlice("context")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newRetrievalApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := a.cfg.RetrievalOptions()
	if limit > 0 {
		opts.MaxResults = limit
	}
	if len(contexts) > 0 {
		opts.Contexts = contexts
	}

	in := a.analyze(ctx, query, "")
	results := a.retriever.Search(ctx, query, in, opts)

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printSearchResultsJSON(out, in, results)
	}
	printSearchResultsTable(out, in, results)
	return nil
}

type searchResultJSON struct {
	Rank       int      `json:"rank"`
	Score      float64  `json:"score"`
	ID         string   `json:"id"`
	Discipline []string `json:"discipline"`
	Culture    []string `json:"culture"`
	Confidence string   `json:"confidence"`
	Source     string   `json:"source"`
	Summary    string   `json:"summary"`
}

func printSearchResultsJSON(out io.Writer, in intent.Intent, results []retrieval.ScoredDocument) error {
	hits := make([]searchResultJSON, 0, len(results))
	for i, r := range results {
		disciplines := make([]string, len(r.Document.Discipline))
		for j, d := range r.Document.Discipline {
			disciplines[j] = string(d)
		}
		hits = append(hits, searchResultJSON{
			Rank:       i + 1,
			Score:      r.Score,
			ID:         r.Document.ID,
			Discipline: disciplines,
			Culture:    r.Document.Culture,
			Confidence: string(r.Document.Confidence),
			Source:     r.Document.Source,
			Summary:    truncate(r.Document.Text, 200),
		})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Intent  intent.Intent      `json:"intent"`
		Results []searchResultJSON `json:"results"`
	}{in, hits})
}

func printSearchResultsTable(out io.Writer, in intent.Intent, results []retrieval.ScoredDocument) {
	fmt.Fprintf(out, "Intent: %s / %s", in.PrimaryDiscipline, in.QueryType)
	if len(in.CulturesInvolved) > 0 {
		fmt.Fprintf(out, " (%s)", strings.Join(in.CulturesInvolved, ", "))
	}
	fmt.Fprintln(out)

	if len(results) == 0 {
		fmt.Fprintln(out, "No matching documents.")
		return
	}

	fmt.Fprintf(out, "Found %d documents:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(out, "  %d. [%.2f] %s\n", i+1, r.Score, r.Document.ID)
		fmt.Fprintf(out, "     %s\n", pipeline.SourceSummary(r.Document))
		fmt.Fprintf(out, "     Confidence: %s\n", r.Document.Confidence)
		fmt.Fprintf(out, "     %s\n\n", truncate(r.Document.Text, 120))
	}
}
