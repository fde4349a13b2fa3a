package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/interlingua/internal/config"
)

var (
	cfgFile  string
	verbose  bool
	jsonLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "interlingua",
	Short: "Grounded answers to cross-cultural language questions",
	Long: `Interlingua answers questions about language use across cultures.
It classifies each question, retrieves grounding from a curated knowledge
base of linguistics, literature and cultural studies sources, and asks an
LLM for a structured, cited article. It runs as a CLI, an HTTP/WebSocket
server, or an MCP server for AI agents.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "write logs as JSON")
}
