package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/progress"
	"github.com/ziadkadry99/interlingua/internal/vectordb"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the semantic index over the knowledge base",
	Long: `Embeds every knowledge base document and persists a chromem vector index
to index_dir. When semantic_search is enabled, retrieval adds an embedding
similarity boost from this index.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := knowledge.Open(cfg.KnowledgePaths)
	if err != nil {
		return fmt.Errorf("loading knowledge base: %w", err)
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	vectors, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}

	docs := store.All()
	reporter := progress.NewReporter("Indexing knowledge base")
	reporter.Start(len(docs))

	start := time.Now()
	done := 0
	idx := vectordb.NewIndex(vectors)
	err = idx.Build(ctx, docs, func(id string) {
		done++
		reporter.Update(done, id)
	})
	reporter.Finish()
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	if err := vectors.Persist(ctx, cfg.IndexDir); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	logger.Info("semantic index built",
		zap.Int("documents", idx.Count()),
		zap.String("dir", cfg.IndexDir),
		zap.Duration("elapsed", time.Since(start)),
	)
	if !cfg.SemanticSearch {
		fmt.Fprintln(cmd.ErrOrStderr(), "Note: set semantic_search: true in the config to use this index.")
	}
	return nil
}
