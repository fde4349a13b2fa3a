package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/interlingua/internal/article"
	"github.com/ziadkadry99/interlingua/internal/db"
	"github.com/ziadkadry99/interlingua/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List answered questions recorded in the history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		discipline, _ := cmd.Flags().GetString("discipline")
		mode, _ := cmd.Flags().GetString("mode")
		contains, _ := cmd.Flags().GetString("contains")
		since, _ := cmd.Flags().GetDuration("since")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		store, database, err := openHistory()
		if err != nil {
			return err
		}
		defer database.Close()

		filter := history.QueryFilter{
			Discipline: discipline,
			Mode:       mode,
			Contains:   contains,
			Limit:      limit,
		}
		if since > 0 {
			t := time.Now().Add(-since)
			filter.Since = &t
		}

		entries, err := store.List(cmd.Context(), filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No recorded answers.")
			return nil
		}
		for _, e := range entries {
			flags := e.Mode
			if e.Audited {
				flags += ", audited"
			}
			if e.Repaired {
				flags += ", repaired"
			}
			fmt.Fprintf(out, "%s  %s  [%s] (%s)\n  %s\n",
				e.CreatedAt.Local().Format(time.DateTime), e.ID, e.PrimaryDiscipline, flags, truncate(e.Question, 100))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a recorded answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, database, err := openHistory()
		if err != nil {
			return err
		}
		defer database.Close()

		e, err := store.Get(cmd.Context(), args[0])
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no recorded answer with id %s", args[0])
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n\n", e.Question)
		fmt.Fprint(out, e.Markdown)
		if len(e.Sources) > 0 {
			fmt.Fprintf(out, "\n%s", article.RenderSources(e.Sources))
		}
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete recorded answers older than a given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		store, database, err := openHistory()
		if err != nil {
			return err
		}
		defer database.Close()

		n, err := store.DeleteBefore(cmd.Context(), time.Now().Add(-olderThan))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries.\n", n)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyCmd.Flags().String("discipline", "", "filter by primary discipline")
	historyCmd.Flags().String("mode", "", "filter by generation mode: structured or legacy")
	historyCmd.Flags().String("contains", "", "filter by question substring")
	historyCmd.Flags().Duration("since", 0, "only entries newer than this age, e.g. 24h")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")

	historyPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "age of the entries to delete")

	historyCmd.AddCommand(historyShowCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, *db.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.HistoryPath == "" {
		return nil, nil, fmt.Errorf("history is disabled; set history_path in %s", cfgFile)
	}
	database, err := db.Open(cfg.HistoryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history database: %w", err)
	}
	return history.NewStore(database), database, nil
}
