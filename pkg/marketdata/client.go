// Package marketdata provides time-series candle retrieval and the bounded
// price tools exposed to the tool-calling market-data agent.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Granularity selects the candle interval.
type Granularity string

const (
	GranularityDay  Granularity = "day"
	GranularityWeek Granularity = "week"
)

// IsValid checks whether the granularity is a known value
func (g Granularity) IsValid() bool {
	return g == GranularityDay || g == GranularityWeek
}

// Candle is one OHLCV record. FromDate is the interval start.
type Candle struct {
	FromDate time.Time       `json:"fromDate"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
}

// CandleClient is the market-data boundary.
type CandleClient interface {
	Candles(ctx context.Context, instrumentID int64, granularity Granularity, count int) ([]Candle, error)
}

// HTTPCandleClient calls the market-data REST API.
type HTTPCandleClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPCandleClient returns a candle client for the given base URL.
func NewHTTPCandleClient(baseURL, apiKey string, timeout time.Duration) *HTTPCandleClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPCandleClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type candlesResponse struct {
	Candles []Candle `json:"candles"`
}

// Candles retrieves the most recent count candles for an instrument, newest
// last.
func (c *HTTPCandleClient) Candles(ctx context.Context, instrumentID int64, granularity Granularity, count int) ([]Candle, error) {
	if !granularity.IsValid() {
		return nil, fmt.Errorf("unknown candle granularity %q", granularity)
	}
	if count <= 0 {
		return nil, fmt.Errorf("candle count must be positive, got %d", count)
	}

	endpoint := fmt.Sprintf("%s/api/candles/%s/%d/%d", c.baseURL, granularity, instrumentID, count)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build candles request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("candles request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market data returned status %d for instrument %d", resp.StatusCode, instrumentID)
	}

	var payload candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode candles response: %w", err)
	}
	return payload.Candles, nil
}
