// Package models contains the business domain types shared across the
// pipeline packages: the per-turn classification, resolved instruments,
// candidate queries, evidence rows, and the streamed final answer.
package models

// Classification is the output of the mandatory first model call of a turn.
// It is built once, immutable, and gates every downstream evidence agent.
type Classification struct {
	// Reasoning is the model's internal explanation; UserFacingReasoning is
	// a short status line suitable for showing to the user while evidence
	// is being gathered.
	Reasoning           string `json:"reasoning"`
	UserFacingReasoning string `json:"userFacingReasoning"`

	// Evidence-domain flags gating the query agents.
	IsAboutStockFundamentals        bool `json:"isAboutStockFundamentals"`
	IsAboutIndustryRelevance        bool `json:"isAboutIndustryRelevance"`
	IsAboutEtfs                     bool `json:"isAboutEtfs"`
	IsAboutNews                     bool `json:"isAboutNews"`
	IsAboutEarningsDates            bool `json:"isAboutEarningsDates"`
	IsAboutDividendDates            bool `json:"isAboutDividendDates"`
	IsAboutPopularInvestors         bool `json:"isAboutPopularInvestors"`
	IsAboutSmartPortfolios          bool `json:"isAboutSmartPortfolios"`
	IsAboutAssetPricesOrPerformance bool `json:"isAboutAssetPricesOrPerformance"`

	// Auxiliary-agent and filter flags.
	IsAboutUserPortfolio          bool `json:"isAboutUserPortfolio"`
	IsAboutEarningsCallsOrRevenue bool `json:"isAboutEarningsCallsOrRevenue"`
	IsAboutImportantCEOs          bool `json:"isAboutImportantCEOs"`
	IsAboutCorporateGuidance      bool `json:"isAboutCorporateGuidance"`
	IsAboutCrypto                 bool `json:"isAboutCrypto"`
	IsAboutMacroEconomy           bool `json:"isAboutMacroEconomy"`
	IsAboutCommodities            bool `json:"isAboutCommodities"`
	IsAboutCurrencies             bool `json:"isAboutCurrencies"`
	HasTradeIntent                bool `json:"hasTradeIntent"`

	// Instrument name/ticker fragments extracted from the current message,
	// and tickers carried over from earlier turns of the conversation.
	CandidateNames   []string `json:"candidateNames"`
	PriorTurnTickers []string `json:"priorTurnTickers"`
}

// HasResolvableCandidates reports whether ticker resolution has anything to
// work with. Resolution is skipped entirely when this is false.
func (c Classification) HasResolvableCandidates() bool {
	return len(c.CandidateNames) > 0 || len(c.PriorTurnTickers) > 0 || c.HasTradeIntent
}

// WantsWebSearch reports whether the web-search-grounded research agent
// should run for this turn. Fresh-information topics trigger it directly;
// crypto and macro questions trigger it only when the turn is not primarily
// about the user's own portfolio or popular investors.
func (c Classification) WantsWebSearch() bool {
	if c.IsAboutEarningsCallsOrRevenue || c.IsAboutImportantCEOs || c.IsAboutNews ||
		c.IsAboutEarningsDates || c.IsAboutCorporateGuidance {
		return true
	}
	if (c.IsAboutCrypto || c.IsAboutMacroEconomy) && !c.IsAboutUserPortfolio && !c.IsAboutPopularInvestors {
		return true
	}
	return false
}

// WantsMarketDataTools reports whether the tool-calling market-data agent
// should run for this turn.
func (c Classification) WantsMarketDataTools() bool {
	return c.IsAboutAssetPricesOrPerformance
}
