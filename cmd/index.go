package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pelican0/pelican/internal/app"
	"github.com/pelican0/pelican/internal/corpus"
	"github.com/pelican0/pelican/internal/indexer"
)

var corpusPath string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index from a corpus artifact",
	Long: `Index embeds every item of a prepared corpus artifact (a JSON array
of {id, content, metadata} records) and loads the vectors into the
configured collection. The collection is reset first: an index build
replaces the previous contents wholesale.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&corpusPath, "corpus", "",
		"path to the corpus artifact (JSON array of content items)")
	_ = indexCmd.MarkFlagRequired("corpus")
	rootCmd.AddCommand(indexCmd)
}

// failedPreviewLimit caps how many per-item errors the summary prints.
const failedPreviewLimit = 5

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := initLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	items, err := corpus.Load(corpusPath)
	if err != nil {
		return err
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() { _ = a.Close() }()

	builder := indexer.New(
		a.Embed,
		a.VecStore,
		cfg.Dimension,
		logger.With("component", "indexer"),
		indexer.WithBatchSize(cfg.BatchSize),
		indexer.WithLimiter(app.EmbedLimiter(cfg)),
	)

	result, err := builder.Build(ctx, cfg.Collection, items)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	count, err := a.VecStore.Count(ctx, cfg.Collection)
	if err != nil {
		return fmt.Errorf("verifying index: %w", err)
	}

	fmt.Printf("Indexed collection %q\n", cfg.Collection)
	fmt.Printf("  Succeeded: %d\n", len(result.Succeeded))
	fmt.Printf("  Skipped:   %d\n", len(result.Skipped))
	fmt.Printf("  Failed:    %d\n", len(result.Failed))
	fmt.Printf("  Points in collection: %d\n", count)

	if preview := result.ErrorPreview(failedPreviewLimit); preview != "" {
		fmt.Printf("Failures:\n%s", preview)
	}

	return nil
}
