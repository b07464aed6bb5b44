package simplefin

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ewhitmore/ledgible/internal/common"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		accessURL:  server.URL,
		httpClient: server.Client(),
	}
}

const accountsResponse = `{
	"accounts": [
		{
			"id": "acct-checking",
			"name": "Everyday Checking",
			"currency": "USD",
			"balance": "1250.00",
			"transactions": [
				{
					"id": "tx-1",
					"posted": 1704931200,
					"amount": "-25.50",
					"description": "STARBUCKS STORE #1234",
					"payee": "Starbucks"
				},
				{
					"id": "tx-2",
					"posted": 1705017600,
					"amount": "2500.00",
					"description": "",
					"payee": "ACME PAYROLL"
				},
				{
					"id": "tx-pending",
					"posted": 1705104000,
					"amount": "-9.99",
					"description": "PENDING CHARGE",
					"pending": true
				},
				{
					"id": "tx-old",
					"posted": 1600000000,
					"amount": "-5.00",
					"description": "OUT OF RANGE"
				}
			]
		}
	]
}`

func TestClient_GetTransactions(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(accountsResponse))
	}))
	defer server.Close()

	start := time.Unix(1704067200, 0) // 2024-01-01
	end := time.Unix(1706659200, 0)   // 2024-01-31

	client := newTestClient(server)
	txns, err := client.GetTransactions(context.Background(), start, end)
	if err != nil {
		t.Fatalf("GetTransactions() error = %v", err)
	}

	if !strings.Contains(gotQuery, "start-date=1704067200") {
		t.Errorf("request query = %q, missing start-date", gotQuery)
	}

	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2 (pending and out-of-range skipped)", len(txns))
	}

	first := txns[0]
	if first.ID != "acct-checking_tx-1" {
		t.Errorf("ID = %q, want account-prefixed", first.ID)
	}
	if first.Description != "STARBUCKS STORE #1234" {
		t.Errorf("Description = %q, want raw statement text over payee", first.Description)
	}
	if first.Amount != -25.50 {
		t.Errorf("Amount = %v, want -25.50", first.Amount)
	}
	if first.AccountNumber != "acct-checking" {
		t.Errorf("AccountNumber = %q", first.AccountNumber)
	}
	if first.Hash == "" {
		t.Error("Hash not populated")
	}

	// Empty description falls back to the payee.
	if txns[1].Description != "ACME PAYROLL" {
		t.Errorf("Description = %q, want payee fallback", txns[1].Description)
	}
	if txns[1].Amount != 2500.00 {
		t.Errorf("Amount = %v, want 2500.00", txns[1].Amount)
	}
}

func TestClient_GetTransactions_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.GetTransactions(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if !errors.Is(err, common.ErrFeedRateLimit) {
		t.Errorf("error = %v, want ErrFeedRateLimit", err)
	}
}

func TestClient_GetTransactions_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.GetTransactions(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if !errors.Is(err, common.ErrFeedConnection) {
		t.Errorf("error = %v, want ErrFeedConnection", err)
	}
}

func TestClient_GetAccounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accounts":[{"id":"a1","name":"Checking"},{"id":"a2"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	names, err := client.GetAccounts(context.Background())
	if err != nil {
		t.Fatalf("GetAccounts() error = %v", err)
	}
	want := []string{"Checking (a1)", "a2"}
	if len(names) != len(want) {
		t.Fatalf("got %d accounts, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("account[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestClaimToken_InvalidToken(t *testing.T) {
	if _, err := claimToken("not-base64!!!"); err == nil {
		t.Error("claimToken() accepted malformed token")
	}

	bogus := base64.StdEncoding.EncodeToString([]byte("ftp://example.com/claim"))
	if _, err := claimToken(bogus); err == nil {
		t.Error("claimToken() accepted non-HTTP claim URL")
	}
}

func TestClaimToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("claim method = %s, want POST", r.Method)
		}
		_, _ = w.Write([]byte("https://bridge.example.com/access\n"))
	}))
	defer server.Close()

	token := base64.StdEncoding.EncodeToString([]byte(server.URL))
	accessURL, err := claimToken(token)
	if err != nil {
		t.Fatalf("claimToken() error = %v", err)
	}
	if accessURL != "https://bridge.example.com/access" {
		t.Errorf("accessURL = %q", accessURL)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "-25.50", want: -25.50},
		{in: " 100.00 ", want: 100.00},
		{in: "0", want: 0},
		{in: "abc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseAmount(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAmount(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
