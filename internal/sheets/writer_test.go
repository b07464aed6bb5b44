package sheets

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewhitmore/ledgible/internal/service"
)

func testReport() *service.Report {
	return &service.Report{
		DateRange: service.DateRange{
			Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		Businesses: []service.BusinessSummary{
			{BusinessID: "b1", BusinessName: "Acme Consulting", Count: 3, Expenses: 1020.50, Income: 2000, Net: 979.50},
			{BusinessID: "b2", BusinessName: "Blue Bakery", Count: 1, Expenses: 340.25, Net: -340.25},
		},
		Unassigned: service.BusinessSummary{BusinessName: "Unassigned", Count: 1, Expenses: 15, Net: -15},
	}
}

func TestPrepareReportData(t *testing.T) {
	w := &Writer{
		config: DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	values := w.prepareReportData(testReport())

	// Title, blank, column header, 3 summary rows, blank, total.
	require.Len(t, values, 8)

	assert.Equal(t, "Expense Report", values[0][0])
	assert.Equal(t, "Mar 1, 2024 - Mar 31, 2024", values[0][1])

	assert.Equal(t, []any{"Business", "Transactions", "Expenses", "Income", "Net"}, values[2])
	assert.Equal(t, []any{"Acme Consulting", 3, 1020.50, 2000.0, 979.50}, values[3])
	assert.Equal(t, []any{"Blue Bakery", 1, 340.25, 0.0, -340.25}, values[4])
	assert.Equal(t, []any{"Unassigned", 1, 15.0, 0.0, -15.0}, values[5])

	total := values[7]
	assert.Equal(t, "Total", total[0])
	assert.Equal(t, 5, total[1])
	assert.InDelta(t, 1375.75, total[2].(float64), 0.001)
	assert.InDelta(t, 2000, total[3].(float64), 0.001)
	assert.InDelta(t, 624.25, total[4].(float64), 0.001)
}

func TestPrepareReportData_SkipsEmptyUnassigned(t *testing.T) {
	w := &Writer{
		config: DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	report := testReport()
	report.Unassigned = service.BusinessSummary{BusinessName: "Unassigned"}

	values := w.prepareReportData(report)

	require.Len(t, values, 7)
	for _, row := range values {
		if len(row) > 0 {
			assert.NotEqual(t, "Unassigned", row[0])
		}
	}
}
