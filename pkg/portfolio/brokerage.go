// Package portfolio retrieves a user's holdings from the brokerage API and
// prepares them as evidence for the portfolio-analysis agent.
package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the brokerage's portfolio-summary response: raw positions and
// social-copy relationships, each with its share of the portfolio.
type Summary struct {
	Positions []SummaryPosition `json:"positions"`
	Copies    []SummaryCopy     `json:"copies"`
}

// SummaryPosition is one raw holding as the brokerage reports it.
type SummaryPosition struct {
	Ticker string          `json:"ticker"`
	Name   string          `json:"name"`
	Weight decimal.Decimal `json:"weight"`
}

// SummaryCopy is one copied popular investor.
type SummaryCopy struct {
	Username string          `json:"username"`
	Weight   decimal.Decimal `json:"weight"`
}

// BrokerageClient fetches portfolio summaries.
type BrokerageClient interface {
	PortfolioSummary(ctx context.Context, username string) (*Summary, error)
}

// HTTPBrokerageClient calls the brokerage REST API.
type HTTPBrokerageClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPBrokerageClient returns a brokerage client for the given base URL.
func NewHTTPBrokerageClient(baseURL, apiKey string, timeout time.Duration) *HTTPBrokerageClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPBrokerageClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PortfolioSummary retrieves the current portfolio of the given username.
func (c *HTTPBrokerageClient) PortfolioSummary(ctx context.Context, username string) (*Summary, error) {
	endpoint := fmt.Sprintf("%s/api/portfolio/%s/summary", c.baseURL, url.PathEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build portfolio request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portfolio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brokerage returned status %d for user %q", resp.StatusCode, username)
	}

	var summary Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio summary: %w", err)
	}
	return &summary, nil
}
