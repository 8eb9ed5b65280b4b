package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/yngdkt/fin-llm-dataset/internal/index"
	"github.com/yngdkt/fin-llm-dataset/internal/match"
	"github.com/yngdkt/fin-llm-dataset/internal/record"
)

func newMatchCmd() *cobra.Command {
	var corpusPath string
	var title string
	var authors []string
	var isbnCode string
	var year int
	var inputPath string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match a candidate record against a corpus",
		Long: `Builds an in-memory index from the corpus file and runs one candidate
record (or a batch file of candidates) through the tiered matcher.

Exits non-zero when a single candidate finds no match, so the command can
gate crawler submissions in shell pipelines.`,
		Example: `  # Single candidate from flags
  bookdedup match --corpus data/master/books.jsonl \
    --title "コーポレート・ファイナンス【第3版】" --author 山田

  # Candidate identified by ISBN only
  bookdedup match --corpus data/master/books.jsonl --isbn 978-4-1234-5678-9

  # Batch file of candidates
  bookdedup match --corpus data/master/books.jsonl --input new_books.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" && isbnCode == "" && inputPath == "" {
				return fmt.Errorf("nothing to match: provide --title, --isbn or --input")
			}

			records, err := record.NewLoader(corpusPath).Load()
			if err != nil {
				return fmt.Errorf("failed to load corpus: %w", err)
			}

			idx := index.New()
			start := time.Now()
			if err := idx.Build(records); err != nil {
				return fmt.Errorf("failed to build index: %w", err)
			}
			slog.Debug("Index built", "records", idx.Len(), "took", time.Since(start))

			matcher := match.New(idx)

			if inputPath != "" {
				return runBatchMatch(matcher, inputPath)
			}

			cand := record.BookRecord{
				Title:   title,
				Authors: authors,
				ISBN:    isbnCode,
				Year:    year,
			}

			res, ok := matcher.FindMatch(cand)
			if !ok {
				fmt.Println("no match")
				return fmt.Errorf("no match found")
			}

			printResult(cand, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "data/master/books.jsonl", "Path to corpus file (.jsonl or .parquet)")
	cmd.Flags().StringVar(&title, "title", "", "Candidate title")
	cmd.Flags().StringArrayVar(&authors, "author", nil, "Candidate author (repeatable)")
	cmd.Flags().StringVar(&isbnCode, "isbn", "", "Candidate ISBN")
	cmd.Flags().IntVar(&year, "year", 0, "Candidate publication year")
	cmd.Flags().StringVar(&inputPath, "input", "", "Batch file of candidates (.jsonl or .parquet)")

	return cmd
}

func runBatchMatch(matcher *match.Matcher, inputPath string) error {
	candidates, err := record.NewLoader(inputPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}

	matched := 0
	review := 0
	for _, cand := range candidates {
		res, ok := matcher.FindMatch(cand)
		if !ok {
			fmt.Printf("NO MATCH  %s\n", cand.Title)
			continue
		}
		matched++
		if res.RequiresReview {
			review++
		}
		printResult(cand, res)
	}

	fmt.Printf("\n%d/%d matched, %d flagged for review\n", matched, len(candidates), review)
	return nil
}

func printResult(cand record.BookRecord, res *match.Result) {
	flag := ""
	if res.RequiresReview {
		flag = "  [requires review]"
	}
	fmt.Printf("%-22s %.2f%%  %s -> %s (%s)%s\n",
		res.Type, res.Confidence*100, cand.Title, res.Record.Title, res.Record.ID, flag)
}
