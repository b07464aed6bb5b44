package plaid

import (
	"context"
	"time"

	"github.com/ewhitmore/ledgible/internal/model"
	"github.com/ewhitmore/ledgible/internal/service"
)

// MockClient is a canned transaction fetcher for tests that need a feed
// source without hitting the network.
type MockClient struct {
	Transactions []model.Transaction
	Accounts     []string
	Err          error

	// FetchWindows records the date range of every GetTransactions call.
	FetchWindows []FetchWindow
	AccountCalls int
}

// FetchWindow is the date range a single fetch asked for.
type FetchWindow struct {
	Start time.Time
	End   time.Time
}

var _ service.TransactionFetcher = (*MockClient)(nil)

// NewMockClient creates a mock feed that returns the given transactions.
func NewMockClient(transactions ...model.Transaction) *MockClient {
	return &MockClient{Transactions: transactions}
}

// GetTransactions returns the canned transactions, recording the window.
func (m *MockClient) GetTransactions(_ context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	m.FetchWindows = append(m.FetchWindows, FetchWindow{Start: startDate, End: endDate})
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Transactions, nil
}

// GetAccounts returns the canned account names.
func (m *MockClient) GetAccounts(_ context.Context) ([]string, error) {
	m.AccountCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Accounts, nil
}
