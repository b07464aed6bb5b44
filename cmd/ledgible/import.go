package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ewhitmore/ledgible/internal/cli"
	"github.com/ewhitmore/ledgible/internal/common"
	"github.com/ewhitmore/ledgible/internal/engine"
	"github.com/ewhitmore/ledgible/internal/importer"
	"github.com/ewhitmore/ledgible/internal/model"
)

func importCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from CSV or OFX/QFX statements",
		Long: `Import credit card statements. CSV and OFX/QFX files are detected by
extension. Transactions already in the database are skipped, and anything a
rule covers is classified on the way in.

Examples:
  # Import a single statement
  ledgible import ~/Downloads/activity.csv

  # Import several months at once
  ledgible import ~/Downloads/statements/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, dryRun)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "parse and report without saving")
	return cmd
}

func runImport(cmd *cobra.Command, args []string, dryRun bool) error {
	ctx := cmd.Context()

	files, err := expandFileArgs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to import")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := engine.New(store)

	bar := progressbar.Default(int64(len(files)), "importing")
	var total, saved, duplicates, autoClassified int

	for _, path := range files {
		transactions, parseErr := parseStatementFile(path)
		if parseErr != nil {
			slog.Error("Failed to parse file", "file", filepath.Base(path), "error", parseErr)
			_ = bar.Add(1)
			continue
		}

		if dryRun {
			total += len(transactions)
			_ = bar.Add(1)
			continue
		}

		stats, importErr := eng.ImportTransactions(ctx, transactions)
		if importErr != nil {
			return fmt.Errorf("failed to import %s: %w", filepath.Base(path), importErr)
		}

		total += stats.Total
		saved += stats.Saved
		duplicates += stats.Duplicates
		autoClassified += stats.AutoClassified
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if dryRun {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions parsed from %d files.", total, len(files))))
		return nil
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Imported %d of %d transactions (%d duplicates skipped, %d auto-classified).",
		saved, total, duplicates, autoClassified)))
	return nil
}

func expandFileArgs(args []string) ([]string, error) {
	var files []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(pattern); statErr == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	return files, nil
}

func parseStatementFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var parser interface {
		Parse(io.Reader) ([]model.Transaction, error)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		parser = importer.NewOFXParser()
	default:
		parser = importer.NewCSVParser()
	}

	transactions, err := parser.Parse(f)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not parse %s", filepath.Base(path)), err)
	}
	return transactions, nil
}
