package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrokerage struct {
	summary *Summary
	err     error
}

func (f *fakeBrokerage) PortfolioSummary(context.Context, string) (*Summary, error) {
	return f.summary, f.err
}

type fakeMetadata struct {
	meta map[string]Metadata
	err  error
}

func (f *fakeMetadata) InstrumentMetadata(context.Context, []string) (map[string]Metadata, error) {
	return f.meta, f.err
}

func weight(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFetchFiltersSortsAndCaps(t *testing.T) {
	brokerage := &fakeBrokerage{summary: &Summary{
		Positions: []SummaryPosition{
			{Ticker: "AAPL", Name: "Apple Inc", Weight: weight("12.5")},
			{Ticker: "DUST", Name: "Dust Position", Weight: weight("0.3")},
			{Ticker: "MSFT", Name: "Microsoft", Weight: weight("22.1")},
			{Ticker: "NVDA", Name: "NVIDIA", Weight: weight("8.4")},
		},
		Copies: []SummaryCopy{{Username: "topinvestor", Weight: weight("5")}},
	}}
	metadata := &fakeMetadata{meta: map[string]Metadata{
		"AAPL": {Sector: "Technology", Industry: "Consumer Electronics", Country: "US"},
	}}
	fetcher := NewFetcher(brokerage, metadata, 0.5, 2)

	positions, copies, err := fetcher.Fetch(context.Background(), "user1")
	require.NoError(t, err)

	// Dust filtered out, sorted by weight descending, capped at 2.
	require.Len(t, positions, 2)
	assert.Equal(t, "MSFT", positions[0].Ticker)
	assert.Equal(t, "AAPL", positions[1].Ticker)
	assert.Equal(t, "Technology", positions[1].Sector)
	assert.Empty(t, positions[0].Sector, "missing metadata leaves fields empty")

	require.Len(t, copies, 1)
	assert.Equal(t, "topinvestor", copies[0].Username)
}

func TestFetchEmptyPortfolio(t *testing.T) {
	brokerage := &fakeBrokerage{summary: &Summary{}}
	fetcher := NewFetcher(brokerage, &fakeMetadata{}, 0.5, 20)

	positions, copies, err := fetcher.Fetch(context.Background(), "emptyuser")
	require.NoError(t, err)
	assert.Empty(t, positions)
	assert.Empty(t, copies)
}

func TestFetchBrokerageError(t *testing.T) {
	brokerage := &fakeBrokerage{err: errors.New("503 from upstream")}
	fetcher := NewFetcher(brokerage, &fakeMetadata{}, 0.5, 20)

	_, _, err := fetcher.Fetch(context.Background(), "user1")
	assert.ErrorContains(t, err, "portfolio fetch failed")
}

func TestFetchMetadataFailureIsNotFatal(t *testing.T) {
	brokerage := &fakeBrokerage{summary: &Summary{
		Positions: []SummaryPosition{{Ticker: "AAPL", Name: "Apple Inc", Weight: weight("10")}},
	}}
	metadata := &fakeMetadata{err: errors.New("view unavailable")}
	fetcher := NewFetcher(brokerage, metadata, 0.5, 20)

	positions, _, err := fetcher.Fetch(context.Background(), "user1")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Empty(t, positions[0].Sector)
}
