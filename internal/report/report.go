// Package report aggregates transactions into per-business summaries.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ewhitmore/ledgible/internal/model"
	"github.com/ewhitmore/ledgible/internal/service"
)

// Generate builds a per-business breakdown of activity within the date range.
// Transactions without a business are collected under Unassigned.
func Generate(ctx context.Context, store service.Storage, dateRange service.DateRange) (*service.Report, error) {
	businesses, err := store.GetBusinesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load businesses: %w", err)
	}

	transactions, err := store.GetTransactions(ctx, service.TransactionFilter{
		StartDate: &dateRange.Start,
		EndDate:   &dateRange.End,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	names := make(map[string]string, len(businesses))
	for _, b := range businesses {
		names[b.ID] = b.Name
	}

	summaries := make(map[string]*service.BusinessSummary)
	unassigned := &service.BusinessSummary{BusinessName: "Unassigned"}

	for _, t := range transactions {
		target := unassigned
		if t.Assigned() {
			s, ok := summaries[t.BusinessID]
			if !ok {
				s = &service.BusinessSummary{
					BusinessID:   t.BusinessID,
					BusinessName: names[t.BusinessID],
				}
				summaries[t.BusinessID] = s
			}
			target = s
		}
		accumulate(target, t)
	}

	report := &service.Report{
		DateRange:  dateRange,
		Unassigned: *unassigned,
	}
	for _, s := range summaries {
		report.Businesses = append(report.Businesses, *s)
	}
	sort.Slice(report.Businesses, func(i, j int) bool {
		return report.Businesses[i].BusinessName < report.Businesses[j].BusinessName
	})

	return report, nil
}

func accumulate(s *service.BusinessSummary, t model.Transaction) {
	s.Count++
	s.Net += t.Amount
	if t.IsExpense() {
		s.Expenses += -t.Amount
	} else {
		s.Income += t.Amount
	}
}

// WriteCSV renders a report as CSV with a summary row per business.
func WriteCSV(w io.Writer, report *service.Report) error {
	cw := csv.NewWriter(w)

	header := []string{"Business", "Transactions", "Expenses", "Income", "Net"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rows := append([]service.BusinessSummary{}, report.Businesses...)
	if report.Unassigned.Count > 0 {
		rows = append(rows, report.Unassigned)
	}

	for _, s := range rows {
		record := []string{
			s.BusinessName,
			strconv.Itoa(s.Count),
			strconv.FormatFloat(s.Expenses, 'f', 2, 64),
			strconv.FormatFloat(s.Income, 'f', 2, 64),
			strconv.FormatFloat(s.Net, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
