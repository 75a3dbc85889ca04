// Package catalog provides read access to the instrument catalog and the
// ticker resolution step that turns classification candidates into concrete
// instruments.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Instrument is one catalog row.
type Instrument struct {
	InstrumentID  int64
	Name          string
	Ticker        string
	AssetTypeCode int
}

// Searcher is the catalog boundary: full-text match on name and ticker,
// restricted to a set of asset-type codes.
type Searcher interface {
	Search(ctx context.Context, terms []string, assetTypeCodes []int, limit int) ([]Instrument, error)
}

// PgSearcher implements Searcher against the catalog schema in Postgres.
type PgSearcher struct {
	pool *pgxpool.Pool
}

// NewPgSearcher returns a catalog searcher over the given pool.
func NewPgSearcher(pool *pgxpool.Pool) *PgSearcher {
	return &PgSearcher{pool: pool}
}

// Search OR-matches every term against the instrument display name (full
// text) and the ticker column (prefix match), filtered by asset-type code.
func (s *PgSearcher) Search(ctx context.Context, terms []string, assetTypeCodes []int, limit int) ([]Instrument, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	args := []any{assetTypeCodes}
	conds := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		args = append(args, term)
		textArg := len(args)
		args = append(args, term+"%")
		tickerArg := len(args)
		conds = append(conds, fmt.Sprintf(
			`(to_tsvector('simple', "Name") @@ plainto_tsquery('simple', $%d) OR "Ticker" ILIKE $%d)`,
			textArg, tickerArg))
	}
	if len(conds) == 0 {
		return nil, nil
	}

	args = append(args, limit)
	query := fmt.Sprintf(
		`SELECT "InstrumentId", "Name", "Ticker", "AssetTypeCode" FROM "Instruments" WHERE "AssetTypeCode" = ANY($1) AND (%s) LIMIT $%d`,
		strings.Join(conds, " OR "), len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	defer rows.Close()

	var out []Instrument
	for rows.Next() {
		var inst Instrument
		if err := rows.Scan(&inst.InstrumentID, &inst.Name, &inst.Ticker, &inst.AssetTypeCode); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog row iteration failed: %w", err)
	}
	return out, nil
}
