package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/marketmind/marketmind/pkg/models"
)

// Metadata is the catalog enrichment attached to one holding.
type Metadata struct {
	Sector   string
	Industry string
	Country  string
}

// MetadataProvider looks up catalog metadata for a set of tickers.
type MetadataProvider interface {
	InstrumentMetadata(ctx context.Context, tickers []string) (map[string]Metadata, error)
}

// PgMetadataProvider reads enrichment metadata from the fundamentals view.
type PgMetadataProvider struct {
	pool *pgxpool.Pool
}

// NewPgMetadataProvider returns a metadata provider over the given pool.
func NewPgMetadataProvider(pool *pgxpool.Pool) *PgMetadataProvider {
	return &PgMetadataProvider{pool: pool}
}

// InstrumentMetadata returns sector/industry/country per ticker. Tickers
// without a fundamentals row are simply absent from the result.
func (p *PgMetadataProvider) InstrumentMetadata(ctx context.Context, tickers []string) (map[string]Metadata, error) {
	if len(tickers) == 0 {
		return map[string]Metadata{}, nil
	}
	rows, err := p.pool.Query(ctx,
		`SELECT "Ticker", "Sector", "Industry", "Country" FROM "CompanyFundamentals" WHERE "Ticker" = ANY($1)`,
		tickers)
	if err != nil {
		return nil, fmt.Errorf("metadata lookup failed: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Metadata, len(tickers))
	for rows.Next() {
		var ticker string
		var meta Metadata
		if err := rows.Scan(&ticker, &meta.Sector, &meta.Industry, &meta.Country); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		out[ticker] = meta
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata row iteration failed: %w", err)
	}
	return out, nil
}

// Fetcher retrieves and prepares a user's portfolio for the analysis agent:
// brokerage positions enriched with catalog metadata, filtered to material
// weights, sorted by weight descending, and capped.
type Fetcher struct {
	brokerage BrokerageClient
	metadata  MetadataProvider
	minWeight decimal.Decimal
	maxCount  int
}

// NewFetcher returns a portfolio fetcher. minWeight is the smallest
// portfolio weight (percent) a position must have to be retained; maxCount
// caps the retained positions.
func NewFetcher(brokerage BrokerageClient, metadata MetadataProvider, minWeight float64, maxCount int) *Fetcher {
	return &Fetcher{
		brokerage: brokerage,
		metadata:  metadata,
		minWeight: decimal.NewFromFloat(minWeight),
		maxCount:  maxCount,
	}
}

// Fetch returns the user's material positions and copied investors. A user
// with no holdings yields empty slices, not an error.
func (f *Fetcher) Fetch(ctx context.Context, username string) ([]models.PortfolioPosition, []models.CopiedInvestor, error) {
	summary, err := f.brokerage.PortfolioSummary(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("portfolio fetch failed: %w", err)
	}

	material := make([]SummaryPosition, 0, len(summary.Positions))
	for _, pos := range summary.Positions {
		if pos.Weight.GreaterThan(f.minWeight) {
			material = append(material, pos)
		}
	}
	sort.SliceStable(material, func(i, j int) bool {
		return material[i].Weight.GreaterThan(material[j].Weight)
	})
	if f.maxCount > 0 && len(material) > f.maxCount {
		material = material[:f.maxCount]
	}

	tickers := make([]string, len(material))
	for i, pos := range material {
		tickers[i] = pos.Ticker
	}
	metadata, err := f.metadata.InstrumentMetadata(ctx, tickers)
	if err != nil {
		// Enrichment is best-effort; positions without metadata are still
		// usable evidence.
		slog.Warn("portfolio metadata enrichment failed", "user", username, "error", err)
		metadata = map[string]Metadata{}
	}

	positions := make([]models.PortfolioPosition, len(material))
	for i, pos := range material {
		meta := metadata[pos.Ticker]
		positions[i] = models.PortfolioPosition{
			Ticker:   pos.Ticker,
			Name:     pos.Name,
			Sector:   meta.Sector,
			Industry: meta.Industry,
			Country:  meta.Country,
			Weight:   pos.Weight,
		}
	}

	copies := make([]models.CopiedInvestor, len(summary.Copies))
	for i, c := range summary.Copies {
		copies[i] = models.CopiedInvestor{Username: c.Username, Weight: c.Weight}
	}
	return positions, copies, nil
}
