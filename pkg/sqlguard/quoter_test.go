package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare identifiers quoted",
			in:   `SELECT Ticker, MarketCap FROM CompanyFundamentals`,
			want: `SELECT "Ticker", "MarketCap" FROM "CompanyFundamentals"`,
		},
		{
			name: "keywords and functions untouched",
			in:   `SELECT AVG(MarketCap) FROM EtfFundamentals GROUP BY Sector ORDER BY AVG(MarketCap) DESC`,
			want: `SELECT AVG("MarketCap") FROM "EtfFundamentals" GROUP BY "Sector" ORDER BY AVG("MarketCap") DESC`,
		},
		{
			name: "keyword-like token inside literal left alone",
			in:   `SELECT name FROM Instruments WHERE name = 'select this'`,
			want: `SELECT "name" FROM "Instruments" WHERE "name" = 'select this'`,
		},
		{
			name: "wildcard literal left alone",
			in:   `SELECT ticker FROM Instruments WHERE name ILIKE '%apple%'`,
			want: `SELECT "ticker" FROM "Instruments" WHERE "name" ILIKE '%apple%'`,
		},
		{
			name: "numeric literals untouched",
			in:   `SELECT Ticker FROM RealtimePrices WHERE Price > 150 LIMIT 10`,
			want: `SELECT "Ticker" FROM "RealtimePrices" WHERE "Price" > 150 LIMIT 10`,
		},
		{
			name: "scientific notation tail not treated as identifier",
			in:   `SELECT Ticker FROM CompanyFundamentals WHERE MarketCap > 1e9`,
			want: `SELECT "Ticker" FROM "CompanyFundamentals" WHERE "MarketCap" > 1e9`,
		},
		{
			name: "window function untouched",
			in:   `SELECT Ticker, RANK() OVER (PARTITION BY Sector ORDER BY MarketCap DESC) FROM CompanyFundamentals`,
			want: `SELECT "Ticker", RANK() OVER (PARTITION BY "Sector" ORDER BY "MarketCap" DESC) FROM "CompanyFundamentals"`,
		},
		{
			name: "empty input",
			in:   ``,
			want: ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteIdentifiers(tt.in))
		})
	}
}

// Already-quoted, literal-free SQL must survive a second pass unchanged.
func TestQuoteIdentifiersIdempotent(t *testing.T) {
	inputs := []string{
		`SELECT "Ticker" FROM "CompanyFundamentals"`,
		`SELECT "Ticker", "MarketCap" FROM "CompanyFundamentals" WHERE "MarketCap" > 1000000 ORDER BY "MarketCap" DESC LIMIT 10`,
		`SELECT COUNT("Ticker") FROM "Instruments" GROUP BY "AssetTypeCode"`,
	}

	for _, in := range inputs {
		once := QuoteIdentifiers(in)
		twice := QuoteIdentifiers(once)
		assert.Equal(t, once, twice, "input: %s", in)
		assert.Equal(t, in, once, "already-quoted input should be unchanged: %s", in)
	}
}
