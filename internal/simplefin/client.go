// Package simplefin fetches transactions from the SimpleFIN bridge protocol.
package simplefin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ewhitmore/ledgible/internal/common"
	"github.com/ewhitmore/ledgible/internal/model"
)

// Client fetches transactions over a claimed SimpleFIN access URL.
type Client struct {
	accessURL  string
	httpClient *http.Client
}

type accountSet struct {
	Accounts []account `json:"accounts"`
}

type account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Currency     string        `json:"currency"`
	Balance      string        `json:"balance"`
	Transactions []transaction `json:"transactions"`
}

type transaction struct {
	ID          string `json:"id"`
	Posted      int64  `json:"posted"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Payee       string `json:"payee"`
	Pending     bool   `json:"pending"`
}

// NewClient creates a SimpleFIN client, claiming the token if no saved
// access URL exists.
func NewClient(token string) (*Client, error) {
	auth, err := LoadOrClaimAuth(token)
	if err != nil {
		return nil, fmt.Errorf("failed to load/claim auth: %w", err)
	}

	return &Client{
		accessURL: auth.AccessURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// claimToken exchanges a claim token for an access URL. SimpleFIN tokens
// are base64-encoded claim URLs.
func claimToken(token string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(token)
		if err != nil {
			return "", fmt.Errorf("failed to decode SimpleFIN token: %w", err)
		}
	}

	claimURL := string(decoded)
	if !strings.HasPrefix(claimURL, "http://") && !strings.HasPrefix(claimURL, "https://") {
		return "", fmt.Errorf("decoded token is not a valid URL: %s", claimURL)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequest(http.MethodPost, claimURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create claim request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to claim access URL: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to claim SimpleFIN access: %d - %s", resp.StatusCode, string(body))
	}

	accessURLBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read access URL: %w", err)
	}

	accessURL := strings.TrimSpace(string(accessURLBytes))
	if !strings.HasPrefix(accessURL, "http://") && !strings.HasPrefix(accessURL, "https://") {
		return "", fmt.Errorf("invalid access URL received: %s", accessURL)
	}

	return accessURL, nil
}

// GetTransactions fetches posted transactions between startDate and endDate.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	u, err := url.Parse(c.accessURL + "/accounts")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("start-date", strconv.FormatInt(startDate.Unix(), 10))
	// end-date is exclusive in SimpleFIN, so push it one day out.
	q.Set("end-date", strconv.FormatInt(endDate.AddDate(0, 0, 1).Unix(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	slog.Debug("requesting SimpleFIN transactions",
		"start_date", startDate.Format("2006-01-02"),
		"end_date", endDate.Format("2006-01-02"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrFeedConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkFeedStatus(resp); err != nil {
		return nil, err
	}

	var set accountSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var transactions []model.Transaction
	for _, acct := range set.Accounts {
		for _, tx := range acct.Transactions {
			if tx.Pending {
				continue
			}

			date := time.Unix(tx.Posted, 0)
			if date.Before(startDate) || date.After(endDate) {
				continue
			}

			amount, err := parseAmount(tx.Amount)
			if err != nil {
				return nil, fmt.Errorf("failed to parse amount %s: %w", tx.Amount, err)
			}

			txn := model.Transaction{
				ID:            fmt.Sprintf("%s_%s", acct.ID, tx.ID),
				Date:          date,
				Description:   pickDescription(tx),
				Amount:        amount,
				AccountNumber: acct.ID,
			}
			txn.Hash = txn.GenerateHash()

			transactions = append(transactions, txn)
		}
	}

	return transactions, nil
}

// GetAccounts returns the linked account names.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.accessURL+"/accounts", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrFeedConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkFeedStatus(resp); err != nil {
		return nil, err
	}

	var set accountSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var names []string
	for _, acct := range set.Accounts {
		if acct.Name != "" {
			names = append(names, fmt.Sprintf("%s (%s)", acct.Name, acct.ID))
		} else {
			names = append(names, acct.ID)
		}
	}

	return names, nil
}

// checkFeedStatus maps non-200 responses onto the shared feed errors.
func checkFeedStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", common.ErrFeedRateLimit, string(body))
	}
	return fmt.Errorf("%w: status %d - %s", common.ErrFeedConnection, resp.StatusCode, string(body))
}

// pickDescription prefers the raw description since rules match on the
// statement text banks actually emit; payee is the fallback.
func pickDescription(tx transaction) string {
	if desc := strings.TrimSpace(tx.Description); desc != "" {
		return desc
	}
	return strings.TrimSpace(tx.Payee)
}

// parseAmount converts a SimpleFIN decimal amount string to float64.
// The sign is preserved: debits stay negative.
func parseAmount(amountStr string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(amountStr), 64)
}
