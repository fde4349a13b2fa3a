package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/interlingua/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize interlingua configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to pick an LLM provider, knowledge base files and generation mode, and writes a .interlingua.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
