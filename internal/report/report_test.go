package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewhitmore/ledgible/internal/model"
	"github.com/ewhitmore/ledgible/internal/service"
	"github.com/ewhitmore/ledgible/internal/testutil"
)

func seedTransactions(t *testing.T, db *testutil.TestDB) (acme, blue *model.Business) {
	t.Helper()

	acme = db.MustCreateBusiness("Acme Consulting")
	blue = db.MustCreateBusiness("Blue Bakery")

	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

	txns := []model.Transaction{
		{ID: "t1", Date: day(1), Description: "OFFICE SUPPLIES", Amount: -120.50, BusinessID: acme.ID},
		{ID: "t2", Date: day(5), Description: "CLIENT PAYMENT", Amount: 2000, BusinessID: acme.ID},
		{ID: "t3", Date: day(8), Description: "FLOUR WHOLESALE", Amount: -340.25, BusinessID: blue.ID},
		{ID: "t4", Date: day(12), Description: "UNKNOWN VENDOR", Amount: -15},
		{ID: "t5", Date: day(28), Description: "RENT", Amount: -900, BusinessID: acme.ID},
		// Outside the reporting window.
		{ID: "t6", Date: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), Description: "LATE CHARGE", Amount: -50, BusinessID: acme.ID},
	}
	for i := range txns {
		txns[i].Hash = txns[i].GenerateHash()
	}
	db.MustSaveTransactions(txns...)

	return acme, blue
}

func marchRange() service.DateRange {
	return service.DateRange{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
	}
}

func TestGenerate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	acme, blue := seedTransactions(t, db)

	report, err := Generate(context.Background(), db.Storage, marchRange())
	require.NoError(t, err)

	require.Len(t, report.Businesses, 2)
	assert.Equal(t, "Acme Consulting", report.Businesses[0].BusinessName)
	assert.Equal(t, acme.ID, report.Businesses[0].BusinessID)
	assert.Equal(t, 3, report.Businesses[0].Count)
	assert.InDelta(t, 1020.50, report.Businesses[0].Expenses, 0.001)
	assert.InDelta(t, 2000, report.Businesses[0].Income, 0.001)
	assert.InDelta(t, 979.50, report.Businesses[0].Net, 0.001)

	assert.Equal(t, "Blue Bakery", report.Businesses[1].BusinessName)
	assert.Equal(t, blue.ID, report.Businesses[1].BusinessID)
	assert.Equal(t, 1, report.Businesses[1].Count)
	assert.InDelta(t, 340.25, report.Businesses[1].Expenses, 0.001)

	assert.Equal(t, 1, report.Unassigned.Count)
	assert.InDelta(t, 15, report.Unassigned.Expenses, 0.001)
}

func TestGenerate_EmptyRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedTransactions(t, db)

	report, err := Generate(context.Background(), db.Storage, service.DateRange{
		Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Empty(t, report.Businesses)
	assert.Equal(t, 0, report.Unassigned.Count)
}

func TestWriteCSV(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedTransactions(t, db)

	report, err := Generate(context.Background(), db.Storage, marchRange())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Business,Transactions,Expenses,Income,Net", lines[0])
	assert.Equal(t, "Acme Consulting,3,1020.50,2000.00,979.50", lines[1])
	assert.Equal(t, "Blue Bakery,1,340.25,0.00,-340.25", lines[2])
	assert.Equal(t, "Unassigned,1,15.00,0.00,-15.00", lines[3])
}
