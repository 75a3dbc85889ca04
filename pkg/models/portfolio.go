package models

import "github.com/shopspring/decimal"

// PortfolioPosition is one holding of the user's portfolio, enriched with
// catalog metadata. Weight is the position's share of the portfolio in
// percent (0–100).
type PortfolioPosition struct {
	Ticker   string          `json:"ticker"`
	Name     string          `json:"name"`
	Sector   string          `json:"sector,omitempty"`
	Industry string          `json:"industry,omitempty"`
	Country  string          `json:"country,omitempty"`
	Weight   decimal.Decimal `json:"weight"`
}

// CopiedInvestor is a social-copy relationship in the user's portfolio:
// a popular investor whose trades the user mirrors, with the share of the
// portfolio allocated to the copy.
type CopiedInvestor struct {
	Username string          `json:"username"`
	Weight   decimal.Decimal `json:"weight"`
}
