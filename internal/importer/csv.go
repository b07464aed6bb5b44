// Package importer parses transaction statements from files into the model.
// CSV parsing targets the card-statement layout the web UI accepts: date in
// the first column, description in the third, then card member, account
// number, and amount.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ewhitmore/ledgible/internal/model"
)

// csv column positions in a card statement export.
const (
	colDate          = 0
	colDescription   = 2
	colCardMember    = 3
	colAccountNumber = 4
	colAmount        = 5
	minColumns       = 6
)

var csvDateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"01/02/06",
}

// CSVParser parses card-statement CSV exports.
type CSVParser struct{}

// NewCSVParser creates a new CSV statement parser.
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads a CSV statement and returns transactions. The header row is
// skipped; rows with an unparseable date or amount are dropped with a
// warning rather than failing the whole import.
func (p *CSVParser) Parse(reader io.Reader) ([]model.Transaction, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1 // ragged rows are rejected per-row below

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var transactions []model.Transaction
	skipped := 0

	for i, row := range records[1:] {
		txn, err := parseRow(row)
		if err != nil {
			slog.Warn("Skipping CSV row", "row", i+2, "error", err)
			skipped++
			continue
		}
		transactions = append(transactions, txn)
	}

	slog.Info("Parsed CSV statement",
		"transactions", len(transactions),
		"skipped", skipped)

	return transactions, nil
}

func parseRow(row []string) (model.Transaction, error) {
	var txn model.Transaction

	if len(row) < minColumns {
		return txn, fmt.Errorf("expected %d columns, got %d", minColumns, len(row))
	}

	date, err := parseDate(strings.TrimSpace(row[colDate]))
	if err != nil {
		return txn, err
	}

	description := strings.TrimSpace(row[colDescription])
	if description == "" {
		return txn, fmt.Errorf("empty description")
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(row[colAmount]), 64)
	if err != nil {
		return txn, fmt.Errorf("invalid amount %q: %w", row[colAmount], err)
	}

	txn = model.Transaction{
		ID:            uuid.NewString(),
		Date:          date,
		Description:   description,
		CardMember:    strings.TrimSpace(row[colCardMember]),
		AccountNumber: strings.TrimSpace(row[colAccountNumber]),
		Amount:        amount,
	}
	txn.Hash = txn.GenerateHash()

	return txn, nil
}

func parseDate(s string) (time.Time, error) {
	for _, format := range csvDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
