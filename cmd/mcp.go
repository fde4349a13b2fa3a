package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpserver "github.com/ziadkadry99/interlingua/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing the
ask_question, search_knowledge, get_document and list_documents tools.
Without a usable LLM provider only the search tools work.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, nil)
		if err != nil {
			// Stdout carries protocol frames, so this goes to stderr.
			fmt.Fprintf(os.Stderr, "Warning: %v\nask_question is disabled; search tools remain available.\n", err)
			a, err = newRetrievalApp(ctx)
			if err != nil {
				return err
			}
		}
		defer a.Close()

		deps := mcpserver.Deps{
			Searcher:   a.retriever,
			Knowledge:  a.knowledge,
			RunOptions: a.cfg.RunOptions(),
			Retrieval:  a.cfg.RetrievalOptions(),
		}
		if a.pipeline != nil {
			deps.Asker = a.pipeline
		}

		mcpserver.Version = Version
		a.logger.Info("interlingua MCP server started on stdio",
			zap.Int("documents", a.knowledge.Len()),
			zap.Bool("ask_enabled", deps.Asker != nil),
		)

		return mcpserver.NewServer(deps).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
