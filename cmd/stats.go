package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yngdkt/fin-llm-dataset/internal/index"
	"github.com/yngdkt/fin-llm-dataset/internal/record"
)

func newStatsCmd() *cobra.Command {
	var corpusPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics for a corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := record.NewLoader(corpusPath).Load()
			if err != nil {
				return fmt.Errorf("failed to load corpus: %w", err)
			}

			idx := index.New()
			if err := idx.Build(records); err != nil {
				return fmt.Errorf("failed to build index: %w", err)
			}

			stats := idx.Stats()
			fmt.Printf("Corpus: %s\n", corpusPath)
			fmt.Printf("  Total records:       %d\n", stats.TotalRecords)
			fmt.Printf("  With identifier:     %d (%.1f%%)\n", stats.WithIdentifier, percent(stats.WithIdentifier, stats.TotalRecords))
			fmt.Printf("  Work-prefix buckets: %d\n", stats.PrefixBuckets)
			fmt.Printf("  Exact-key buckets:   %d\n", stats.ExactBuckets)
			fmt.Printf("  Aggressive buckets:  %d\n", stats.AggressiveBuckets)
			fmt.Printf("  Blocking tokens:     %d\n", stats.BlockingTokens)

			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "data/master/books.jsonl", "Path to corpus file (.jsonl or .parquet)")

	return cmd
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
