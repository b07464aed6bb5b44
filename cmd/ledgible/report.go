package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ewhitmore/ledgible/internal/cli"
	"github.com/ewhitmore/ledgible/internal/config"
	"github.com/ewhitmore/ledgible/internal/report"
	"github.com/ewhitmore/ledgible/internal/service"
	"github.com/ewhitmore/ledgible/internal/sheets"
)

func reportCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
		csvPath   string
		toSheets  bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize expenses per business over a date range",
		Long: `Build a per-business expense summary for a date range.

By default the report prints to the terminal. Use --csv to write a
CSV file, or --sheets to export to Google Sheets.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			dateRange, err := parseReportRange(startDate, endDate)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rep, err := report.Generate(ctx, store, dateRange)
			if err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}

			if csvPath != "" {
				file, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", csvPath, err)
				}
				defer func() { _ = file.Close() }()

				if err := report.WriteCSV(file, rep); err != nil {
					return fmt.Errorf("failed to write CSV: %w", err)
				}
				fmt.Println(cli.FormatSuccess("Report written to " + csvPath))
				return nil
			}

			if toSheets {
				return exportToSheets(cmd, rep)
			}

			printReport(rep)
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD, default first of this month)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the report to a CSV file")
	cmd.Flags().BoolVar(&toSheets, "sheets", false, "export the report to Google Sheets")

	return cmd
}

func parseReportRange(startDate, endDate string) (service.DateRange, error) {
	now := time.Now()
	dateRange := service.DateRange{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		End:   now,
	}

	var err error
	if startDate != "" {
		if dateRange.Start, err = time.Parse("2006-01-02", startDate); err != nil {
			return service.DateRange{}, fmt.Errorf("invalid --start %q: expected YYYY-MM-DD", startDate)
		}
	}
	if endDate != "" {
		if dateRange.End, err = time.Parse("2006-01-02", endDate); err != nil {
			return service.DateRange{}, fmt.Errorf("invalid --end %q: expected YYYY-MM-DD", endDate)
		}
		// Make the end date inclusive of its whole day.
		dateRange.End = dateRange.End.Add(24*time.Hour - time.Second)
	}
	if dateRange.End.Before(dateRange.Start) {
		return service.DateRange{}, fmt.Errorf("end date %s is before start date %s",
			dateRange.End.Format("2006-01-02"), dateRange.Start.Format("2006-01-02"))
	}

	return dateRange, nil
}

func printReport(rep *service.Report) {
	fmt.Println(cli.FormatTitle(fmt.Sprintf("Expenses %s to %s",
		rep.DateRange.Start.Format("2006-01-02"), rep.DateRange.End.Format("2006-01-02"))))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, cli.BoldStyle.Render("BUSINESS")+"\tTXNS\tEXPENSES\tINCOME\tNET")

	var totalCount int
	var totalExpenses, totalIncome, totalNet float64
	for _, summary := range rep.Businesses {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\n",
			summary.BusinessName, summary.Count, summary.Expenses, summary.Income, summary.Net)
		totalCount += summary.Count
		totalExpenses += summary.Expenses
		totalIncome += summary.Income
		totalNet += summary.Net
	}
	if rep.Unassigned.Count > 0 {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\n",
			cli.SubtleStyle.Render("(unassigned)"),
			rep.Unassigned.Count, rep.Unassigned.Expenses, rep.Unassigned.Income, rep.Unassigned.Net)
		totalCount += rep.Unassigned.Count
		totalExpenses += rep.Unassigned.Expenses
		totalIncome += rep.Unassigned.Income
		totalNet += rep.Unassigned.Net
	}
	fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\n",
		cli.BoldStyle.Render("Total"), totalCount, totalExpenses, totalIncome, totalNet)
	_ = w.Flush()
}

func exportToSheets(cmd *cobra.Command, rep *service.Report) error {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("failed to load sheets config: %w", err)
	}

	writer, err := sheets.NewWriter(cmd.Context(), *cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	if err := writer.Write(cmd.Context(), rep); err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}

	fmt.Println(cli.FormatSuccess("Report exported to Google Sheets."))
	return nil
}
