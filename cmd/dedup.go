package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yngdkt/fin-llm-dataset/internal/master"
	"github.com/yngdkt/fin-llm-dataset/internal/record"
)

func newDedupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Build and maintain the deduplicated master corpus",
	}

	cmd.AddCommand(newDedupInitCmd())
	cmd.AddCommand(newDedupAddCmd())

	return cmd
}

func newDedupInitCmd() *cobra.Command {
	var masterPath string
	var reportPath string

	cmd := &cobra.Command{
		Use:   "init [source files...]",
		Short: "Initialize a master corpus from source files with deduplication",
		Example: `  # Build a fresh master from two crawler outputs
  bookdedup dedup init data/sources/amazon.jsonl data/sources/wiley.jsonl \
    --master data/master/books.jsonl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := master.NewService()

			for _, sourcePath := range args {
				if err := ingestSource(svc, sourcePath); err != nil {
					return err
				}
			}

			return finishRun(svc, "init", masterPath, reportPath, args)
		},
	}

	cmd.Flags().StringVar(&masterPath, "master", "data/master/books.jsonl", "Path to write the master corpus")
	cmd.Flags().StringVar(&reportPath, "report", "", "Path for the YAML run report (default: reports/dedup_<timestamp>.yaml)")

	return cmd
}

func newDedupAddCmd() *cobra.Command {
	var masterPath string
	var reportPath string
	var backupDir string

	cmd := &cobra.Command{
		Use:   "add [source files...]",
		Short: "Merge new source files into an existing master corpus",
		Example: `  # Merge a fresh crawl into the master
  bookdedup dedup add data/sources/amazon_2026-08.jsonl \
    --master data/master/books.jsonl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := master.BackupMaster(masterPath, backupDir); err != nil {
				return err
			}

			existing, err := record.NewLoader(masterPath).Load()
			if err != nil {
				return fmt.Errorf("failed to load master: %w", err)
			}

			svc := master.NewService()
			if err := svc.Bootstrap(existing); err != nil {
				return err
			}

			for _, sourcePath := range args {
				if err := ingestSource(svc, sourcePath); err != nil {
					return err
				}
			}

			return finishRun(svc, "add", masterPath, reportPath, args)
		},
	}

	cmd.Flags().StringVar(&masterPath, "master", "data/master/books.jsonl", "Path to the master corpus")
	cmd.Flags().StringVar(&reportPath, "report", "", "Path for the YAML run report (default: reports/dedup_<timestamp>.yaml)")
	cmd.Flags().StringVar(&backupDir, "backup-dir", "data/master/backups", "Directory for master backups")

	return cmd
}

func ingestSource(svc *master.Service, sourcePath string) error {
	records, err := record.NewLoader(sourcePath).Load()
	if err != nil {
		return fmt.Errorf("failed to load source %s: %w", sourcePath, err)
	}

	source := filepath.Base(sourcePath)
	counts := svc.IngestAll(records, source)
	slog.Info("Source processed", "source", source, "input", len(records),
		"added", counts.Added, "merged", counts.Merged, "review", counts.Review, "skipped", counts.Skipped)

	return nil
}

func finishRun(svc *master.Service, command, masterPath, reportPath string, inputs []string) error {
	if err := record.SaveJSONL(svc.Records(), masterPath); err != nil {
		return fmt.Errorf("failed to save master: %w", err)
	}

	report := master.NewRunReport(command, masterPath, inputs, svc)
	if reportPath == "" {
		reportPath = filepath.Join("reports", fmt.Sprintf("dedup_%s.yaml", report.Config.Timestamp))
	}
	if err := report.Save(reportPath); err != nil {
		return err
	}

	counts := svc.Counts()
	fmt.Printf("Master: %s (%d works)\n", masterPath, len(svc.Records()))
	fmt.Printf("Added: %d  Merged: %d  Review: %d  Skipped: %d\n",
		counts.Added, counts.Merged, counts.Review, counts.Skipped)
	fmt.Printf("Report: %s\n", reportPath)
	if pending := svc.Reviews().Len(); pending > 0 {
		fmt.Printf("\n%d candidates need manual review before they enter the master.\n", pending)
	}

	return nil
}
