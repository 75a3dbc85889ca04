package models

// Domain names one evidence domain served by a query agent.
type Domain string

const (
	DomainStocks    Domain = "stocks"
	DomainEtfs      Domain = "etfs"
	DomainNews      Domain = "news"
	DomainEarnings  Domain = "earnings"
	DomainDividends Domain = "dividends"
	DomainInvestors Domain = "investors"
	DomainPrices    Domain = "prices"
)

// AllDomains returns every evidence domain in dispatch order.
func AllDomains() []Domain {
	return []Domain{DomainStocks, DomainEtfs, DomainNews, DomainEarnings, DomainDividends, DomainInvestors, DomainPrices}
}

// CandidateQuery is the output of one evidence-domain query agent: at most
// one read query against the evidence store, plus the agent's reasoning.
// A nil SQL pointer means the agent declined to produce a query, which is
// legitimate and not an error.
type CandidateQuery struct {
	Domain      Domain  `json:"domain"`
	Reasoning   string  `json:"reasoning"`
	ResultCount int     `json:"resultCount,omitempty"`
	SQL         *string `json:"sql"`
}

// ComparisonRow is one opaque key-value record of query evidence. Values are
// rendered as strings because the consumer is a language model, not code.
type ComparisonRow map[string]string

// ReasoningRow builds the synthetic leading row that attributes a result
// sequence to the sub-question it answers.
func ReasoningRow(reasoning string) ComparisonRow {
	return ComparisonRow{"reasoning": reasoning}
}

// EvidenceRowKind discriminates the two evidence variants handed to the
// synthesizer.
type EvidenceRowKind string

const (
	// EvidenceQueryRows carries rows returned by a guarded SQL execution.
	EvidenceQueryRows EvidenceRowKind = "query_rows"
	// EvidenceTickerFallback carries the raw ticker matches, substituted
	// when no query produced any rows.
	EvidenceTickerFallback EvidenceRowKind = "ticker_fallback"
)

// EvidenceRow is one unit of merged evidence. Exactly one of Rows or
// Tickers is populated, selected by Kind.
type EvidenceRow struct {
	Kind    EvidenceRowKind `json:"kind"`
	Domain  Domain          `json:"domain,omitempty"`
	Rows    []ComparisonRow `json:"rows,omitempty"`
	Tickers []TickerMatch   `json:"tickers,omitempty"`
}

// QueryEvidence wraps executed rows for one domain.
func QueryEvidence(domain Domain, rows []ComparisonRow) EvidenceRow {
	return EvidenceRow{Kind: EvidenceQueryRows, Domain: domain, Rows: rows}
}

// TickerFallbackEvidence wraps the resolved tickers as last-resort evidence.
func TickerFallbackEvidence(tickers []TickerMatch) EvidenceRow {
	return EvidenceRow{Kind: EvidenceTickerFallback, Tickers: tickers}
}
