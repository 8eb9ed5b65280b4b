package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookdedup",
		Short: "Book record deduplication engine for the finance dataset corpus",
		Long: `Bookdedup decides whether a newly crawled book record is the same work
as one already in the master corpus, and whether it is a different edition
of that work.

Matching is tiered: exact ISBN, ISBN work-prefix, exact-normalized title,
aggressive-normalized title, then bounded fuzzy comparison within a small
blocking neighborhood. Normalization handles full-width/half-width
characters, bracket variants, ideographic numerals, edition phrasing and
subtitle delimiters, so records from Japanese and English sources match
across notation differences.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newMatchCmd())
	cmd.AddCommand(newDedupCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
