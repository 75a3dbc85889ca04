package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marketmind/marketmind/pkg/models"
)

func TestDomainEnabled(t *testing.T) {
	tests := []struct {
		name   string
		c      models.Classification
		domain models.Domain
		want   bool
	}{
		{"fundamentals gates stocks", models.Classification{IsAboutStockFundamentals: true}, models.DomainStocks, true},
		{"industry relevance gates stocks", models.Classification{IsAboutIndustryRelevance: true}, models.DomainStocks, true},
		{"etf flag gates etfs", models.Classification{IsAboutEtfs: true}, models.DomainEtfs, true},
		{"news flag gates news", models.Classification{IsAboutNews: true}, models.DomainNews, true},
		{"earnings dates gate earnings", models.Classification{IsAboutEarningsDates: true}, models.DomainEarnings, true},
		{"dividend dates gate dividends", models.Classification{IsAboutDividendDates: true}, models.DomainDividends, true},
		{"popular investors gate investors", models.Classification{IsAboutPopularInvestors: true}, models.DomainInvestors, true},
		{"smart portfolios gate investors", models.Classification{IsAboutSmartPortfolios: true}, models.DomainInvestors, true},
		{"price performance gates prices", models.Classification{IsAboutAssetPricesOrPerformance: true}, models.DomainPrices, true},
		{"unrelated flag leaves stocks off", models.Classification{IsAboutNews: true}, models.DomainStocks, false},
		{"empty classification enables nothing", models.Classification{}, models.DomainInvestors, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domainEnabled(tt.c, tt.domain))
		})
	}
}
