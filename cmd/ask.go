package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/interlingua/internal/article"
	"github.com/ziadkadry99/interlingua/internal/config"
	"github.com/ziadkadry99/interlingua/internal/pipeline"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a cross-cultural language question",
	Long: `Classifies the question, retrieves grounding from the knowledge base and
generates a structured article with references. In legacy mode the answer
is streamed as it is generated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("conversation", "", "earlier conversation to take into account")
	askCmd.Flags().String("mode", "", "generation mode: structured or legacy (default from config)")
	askCmd.Flags().Bool("no-audit", false, "skip the audit pass")
	askCmd.Flags().Bool("no-refs", false, "omit the references list")
	askCmd.Flags().Bool("html", false, "print the answer as HTML")
	askCmd.Flags().Bool("json", false, "print the full result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	conversation, _ := cmd.Flags().GetString("conversation")
	mode, _ := cmd.Flags().GetString("mode")
	noAudit, _ := cmd.Flags().GetBool("no-audit")
	noRefs, _ := cmd.Flags().GetBool("no-refs")
	htmlOutput, _ := cmd.Flags().GetBool("html")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(ctx, nil, func(c *config.Config) {
		if mode != "" {
			c.Pipeline.Mode = mode
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	opts := a.cfg.RunOptions()
	if noAudit {
		opts.EnableAuditor = false
	}
	if noRefs {
		opts.IncludeReferences = false
	}

	out := cmd.OutOrStdout()
	streamed := false
	if !htmlOutput && !jsonOutput {
		opts.OnDelta = func(delta string) {
			streamed = true
			fmt.Fprint(out, delta)
		}
	}

	res, err := a.pipeline.Run(ctx, question, conversation, opts)
	if err != nil {
		return err
	}

	switch {
	case jsonOutput:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case htmlOutput:
		html, err := article.MarkdownToHTML(answerMarkdown(res))
		if err != nil {
			return fmt.Errorf("rendering html: %w", err)
		}
		fmt.Fprint(out, html)
	case streamed:
		fmt.Fprintln(out)
		if len(res.Sources) > 0 {
			fmt.Fprintf(out, "\n%s", article.RenderSources(res.Sources))
		}
	default:
		fmt.Fprint(out, answerMarkdown(res))
	}

	if res.IntentFallback {
		fmt.Fprintln(cmd.ErrOrStderr(), "Note: question intent was estimated heuristically.")
	}
	return nil
}

// answerMarkdown is the rendered article followed by its references.
func answerMarkdown(res *pipeline.Result) string {
	var sb strings.Builder
	sb.WriteString(res.Markdown)
	if len(res.Sources) > 0 {
		if !strings.HasSuffix(res.Markdown, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(article.RenderSources(res.Sources))
	}
	return sb.String()
}
