package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/marketmind/marketmind/pkg/models"
)

// maxResolverMatches caps catalog results per turn.
const maxResolverMatches = 50

// TickerResolver turns a classification's candidate names and prior-turn
// tickers into TickerMatch instruments via the catalog.
type TickerResolver struct {
	searcher Searcher
	limit    int
}

// NewTickerResolver returns a resolver over the given catalog searcher.
// A non-positive limit falls back to the default cap.
func NewTickerResolver(searcher Searcher, limit int) *TickerResolver {
	if limit <= 0 {
		limit = maxResolverMatches
	}
	return &TickerResolver{searcher: searcher, limit: limit}
}

// Resolve looks up every candidate name and prior-turn ticker against the
// catalog, restricted to the asset types implied by the classification's
// topic flags. It short-circuits to an empty result when the classification
// has nothing to resolve; this avoids a catalog round trip, nothing more.
// Candidates without a catalog match are silently dropped.
func (r *TickerResolver) Resolve(ctx context.Context, c models.Classification) ([]models.TickerMatch, error) {
	if !c.HasResolvableCandidates() {
		return nil, nil
	}

	terms := make([]string, 0, len(c.CandidateNames)+len(c.PriorTurnTickers))
	terms = append(terms, c.CandidateNames...)
	terms = append(terms, c.PriorTurnTickers...)
	if len(terms) == 0 {
		// Trade intent without named candidates: nothing to search for.
		return nil, nil
	}

	codes := assetCodesFor(c)
	instruments, err := r.searcher.Search(ctx, terms, codes, r.limit)
	if err != nil {
		return nil, fmt.Errorf("ticker resolution failed: %w", err)
	}

	matches := make([]models.TickerMatch, 0, len(instruments))
	for _, inst := range instruments {
		assetType := models.AssetTypeFromCode(inst.AssetTypeCode)
		if assetType == "" {
			slog.Debug("dropping instrument with unknown asset-type code",
				"instrument_id", inst.InstrumentID, "code", inst.AssetTypeCode)
			continue
		}
		matches = append(matches, models.TickerMatch{
			Ticker:       inst.Ticker,
			Name:         inst.Name,
			InstrumentID: inst.InstrumentID,
			AssetType:    assetType,
		})
	}
	return matches, nil
}

// assetCodesFor derives the catalog asset-type filter from the topic flags.
// Broad intents (trading, prices, investors) open the filter to every type;
// topical flags each contribute their categories. An empty derivation also
// falls back to every type so a match is never lost to filtering.
func assetCodesFor(c models.Classification) []int {
	if c.HasTradeIntent || c.IsAboutAssetPricesOrPerformance || c.IsAboutPopularInvestors {
		return models.AllAssetCodes()
	}

	set := map[int]struct{}{}
	add := func(codes ...int) {
		for _, code := range codes {
			set[code] = struct{}{}
		}
	}
	if c.IsAboutStockFundamentals || c.IsAboutEarningsDates || c.IsAboutEarningsCallsOrRevenue ||
		c.IsAboutCorporateGuidance || c.IsAboutImportantCEOs {
		add(models.AssetCodeStock)
	}
	if c.IsAboutDividendDates {
		add(models.AssetCodeStock, models.AssetCodeEtf)
	}
	if c.IsAboutEtfs {
		add(models.AssetCodeEtf)
	}
	if c.IsAboutNews {
		add(models.AssetCodeStock, models.AssetCodeCrypto)
	}
	if c.IsAboutCrypto {
		add(models.AssetCodeCrypto)
	}
	if c.IsAboutMacroEconomy {
		add(models.AssetCodeIndex, models.AssetCodeCommodity, models.AssetCodeCurrency)
	}
	if c.IsAboutCommodities {
		add(models.AssetCodeCommodity)
	}
	if c.IsAboutCurrencies {
		add(models.AssetCodeCurrency)
	}
	if len(set) == 0 {
		return models.AllAssetCodes()
	}

	codes := make([]int, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}
