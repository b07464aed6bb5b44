package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewhitmore/ledgible/internal/engine"
	"github.com/ewhitmore/ledgible/internal/model"
	"github.com/ewhitmore/ledgible/internal/storage"
	"github.com/ewhitmore/ledgible/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	storage *storage.SQLiteStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.SetupTestDB(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(engine.New(db.Storage), db.Storage, nil, DefaultConfig(), logger)

	return &testServer{
		router:  server.Router(),
		storage: db.Storage,
	}
}

func (ts *testServer) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (ts *testServer) seedBusiness(t *testing.T, name string) model.Business {
	t.Helper()
	w := ts.request(t, http.MethodPost, "/api/businesses", gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[model.Business](t, w)
}

func (ts *testServer) seedTransactions(t *testing.T, txns []model.Transaction) {
	t.Helper()
	for i := range txns {
		txns[i].Hash = txns[i].GenerateHash()
	}
	_, err := ts.storage.SaveTransactions(context.Background(), txns)
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestBusinessEndpoints(t *testing.T) {
	ts := newTestServer(t)

	created := ts.seedBusiness(t, "Acme Consulting")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Acme Consulting", created.Name)

	// Duplicate name conflicts.
	w := ts.request(t, http.MethodPost, "/api/businesses", gin.H{"name": "Acme Consulting"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.request(t, http.MethodGet, "/api/businesses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	businesses := decode[[]model.Business](t, w)
	assert.Len(t, businesses, 1)
}

func TestRuleEndpoints(t *testing.T) {
	ts := newTestServer(t)
	business := ts.seedBusiness(t, "Acme Consulting")

	w := ts.request(t, http.MethodPost, "/api/rules", gin.H{
		"pattern":     "AMAZON WEB SERVICES",
		"business_id": business.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	rule := decode[model.Rule](t, w)
	assert.Equal(t, "amazon web services", rule.Pattern)

	// Unknown business is rejected.
	w = ts.request(t, http.MethodPost, "/api/rules", gin.H{
		"pattern":     "SOMETHING ELSE",
		"business_id": "nope",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.request(t, http.MethodPut, "/api/rules/"+rule.ID, gin.H{
		"pattern":     "AMAZON AWS",
		"business_id": business.ID,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rules := decode[[]model.Rule](t, w)
	require.Len(t, rules, 1)
	assert.Equal(t, "amazon aws", rules[0].Pattern)

	w = ts.request(t, http.MethodDelete, "/api/rules/"+rule.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.request(t, http.MethodDelete, "/api/rules/"+rule.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransactionListAndPatch(t *testing.T) {
	ts := newTestServer(t)
	business := ts.seedBusiness(t, "Acme Consulting")

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	ts.seedTransactions(t, []model.Transaction{
		{ID: "t1", Date: day, Description: "OFFICE SUPPLIES", Amount: -42},
		{ID: "t2", Date: day.AddDate(0, 0, 1), Description: "COFFEE SHOP", Amount: -4.50},
	})

	w := ts.request(t, http.MethodGet, "/api/transactions?unassigned=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	txns := decode[[]model.Transaction](t, w)
	assert.Len(t, txns, 2)

	w = ts.request(t, http.MethodGet, "/api/transactions?start_date=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Reviewed requires an assignment first.
	w = ts.request(t, http.MethodPatch, "/api/transactions/t1", gin.H{"reviewed": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.request(t, http.MethodPatch, "/api/transactions/t1", gin.H{"business_id": business.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodPatch, "/api/transactions/t1", gin.H{"reviewed": true})
	require.Equal(t, http.StatusOK, w.Code)
	patched := decode[model.Transaction](t, w)
	assert.True(t, patched.Reviewed)

	w = ts.request(t, http.MethodGet, "/api/transactions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignAndCommitFlow(t *testing.T) {
	ts := newTestServer(t)
	business := ts.seedBusiness(t, "Streaming Co")

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ts.seedTransactions(t, []model.Transaction{
		{ID: "t1", Date: day, Description: "Netflix", Amount: -15.99},
		{ID: "t2", Date: day.AddDate(0, 0, 7), Description: "Netflix.com", Amount: -15.99},
		{ID: "t3", Date: day.AddDate(0, 0, 14), Description: "NETFLIX RENEWAL", Amount: -15.99},
	})

	w := ts.request(t, http.MethodPost, "/api/transactions/t1/assign", gin.H{"business_id": business.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodPost, "/api/transactions/t2/assign", gin.H{"business_id": business.ID})
	require.Equal(t, http.StatusOK, w.Code)
	proposal := decode[model.Proposal](t, w)
	assert.Equal(t, "Netflix", proposal.Pattern)
	assert.Equal(t, []string{"t3"}, proposal.CandidateIDs)

	w = ts.request(t, http.MethodPost, "/api/proposals/commit", gin.H{
		"proposal": proposal,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var committed struct {
		Rule       model.Rule `json:"rule"`
		AppliedIDs []string   `json:"applied_ids"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &committed))
	assert.Equal(t, "netflix", committed.Rule.Pattern)
	assert.Equal(t, []string{"t3"}, committed.AppliedIDs)

	txn, err := ts.storage.GetTransactionByID(context.Background(), "t3")
	require.NoError(t, err)
	assert.Equal(t, business.ID, txn.BusinessID)
	assert.Equal(t, committed.Rule.ID, txn.AssignedRule)
}

func TestImportCSV(t *testing.T) {
	ts := newTestServer(t)
	business := ts.seedBusiness(t, "Acme Consulting")

	w := ts.request(t, http.MethodPost, "/api/rules", gin.H{
		"pattern":     "AMAZON WEB SERVICES",
		"business_id": business.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	statement := "Date,Posted Date,Description,Card Member,Account #,Amount\n" +
		"2024-03-05,2024-03-06,AMAZON WEB SERVICES,JANE DOE,-1001,-120.50\n" +
		"2024-03-06,2024-03-07,COFFEE SHOP,JANE DOE,-1001,-4.25\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "statement.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(statement))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats struct {
		Total          int `json:"total"`
		Saved          int `json:"saved"`
		AutoClassified int `json:"auto_classified"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 1, stats.AutoClassified)
}

func TestReportEndpoint(t *testing.T) {
	ts := newTestServer(t)
	business := ts.seedBusiness(t, "Acme Consulting")

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	ts.seedTransactions(t, []model.Transaction{
		{ID: "t1", Date: day, Description: "OFFICE SUPPLIES", Amount: -42, BusinessID: business.ID},
		{ID: "t2", Date: day, Description: "MYSTERY", Amount: -10},
	})

	w := ts.request(t, http.MethodGet, "/api/report?start_date=2024-03-01&end_date=2024-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Acme Consulting")
	assert.Contains(t, body, "Unassigned")

	w = ts.request(t, http.MethodGet, "/api/report", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.request(t, http.MethodGet, "/api/report/csv?start_date=2024-03-01&end_date=2024-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "Business,Transactions,Expenses,Income,Net")
}

func TestLinkRoutesWithoutFeed(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/link/token", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = ts.request(t, http.MethodPost, "/api/link/exchange", gin.H{"public_token": "tok"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReclassifyEndpoint(t *testing.T) {
	ts := newTestServer(t)
	business := ts.seedBusiness(t, "Acme Consulting")

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	ts.seedTransactions(t, []model.Transaction{
		{ID: "t1", Date: day, Description: "AMAZON WEB SERVICES BILL", Amount: -120},
	})

	w := ts.request(t, http.MethodPost, "/api/rules", gin.H{
		"pattern":     "AMAZON WEB SERVICES",
		"business_id": business.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.request(t, http.MethodPost, "/api/classify", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"assigned": %d}`, 1), w.Body.String())
}
