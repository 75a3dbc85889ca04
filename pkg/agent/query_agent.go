package agent

import (
	"context"
	"fmt"

	"github.com/marketmind/marketmind/pkg/agent/prompt"
	"github.com/marketmind/marketmind/pkg/llm"
	"github.com/marketmind/marketmind/pkg/models"
	"github.com/marketmind/marketmind/pkg/trace"
)

// QueryAgent turns the user's question into at most one candidate read
// query for its evidence domain.
type QueryAgent struct {
	domain  models.Domain
	client  llm.Client
	builder *prompt.Builder
	model   string
}

// NewQueryAgent creates the query agent for one domain.
func NewQueryAgent(domain models.Domain, client llm.Client, builder *prompt.Builder, model string) *QueryAgent {
	return &QueryAgent{domain: domain, client: client, builder: builder, model: model}
}

// Domain returns the agent's evidence domain.
func (a *QueryAgent) Domain() models.Domain { return a.domain }

// Produce runs one structured-generation call and returns the agent's
// candidate query. A nil SQL in the result means the agent declined.
func (a *QueryAgent) Produce(ctx context.Context, turn *trace.Turn, message string, tickers []models.TickerMatch) (models.CandidateQuery, error) {
	span := turn.StartSpan("query_agent", map[string]any{"domain": string(a.domain), "model": a.model})

	messages, err := a.builder.BuildQueryAgentMessages(a.domain, message, tickers)
	if err != nil {
		span.End(map[string]any{"error": err.Error()})
		return models.CandidateQuery{}, err
	}

	var out struct {
		Reasoning   string  `json:"reasoning"`
		ResultCount int     `json:"resultCount"`
		SQL         *string `json:"sql"`
	}
	usage, err := llm.GenerateObject(ctx, a.client, &llm.GenerateInput{
		TurnID:         turn.ID(),
		Model:          a.model,
		Messages:       messages,
		ResponseSchema: candidateQuerySchema,
	}, &out)

	span.End(spanOutcome(usage, err, map[string]any{"declined": out.SQL == nil}))
	if err != nil {
		return models.CandidateQuery{}, fmt.Errorf("%s query agent failed: %w", a.domain, err)
	}

	return models.CandidateQuery{
		Domain:      a.domain,
		Reasoning:   out.Reasoning,
		ResultCount: out.ResultCount,
		SQL:         out.SQL,
	}, nil
}

// domainEnabled maps each evidence domain to its classification gate.
func domainEnabled(c models.Classification, d models.Domain) bool {
	switch d {
	case models.DomainStocks:
		// Industry-relevance questions are answered from the same view via
		// its Sector and Industry columns.
		return c.IsAboutStockFundamentals || c.IsAboutIndustryRelevance
	case models.DomainEtfs:
		return c.IsAboutEtfs
	case models.DomainNews:
		return c.IsAboutNews
	case models.DomainEarnings:
		return c.IsAboutEarningsDates
	case models.DomainDividends:
		return c.IsAboutDividendDates
	case models.DomainInvestors:
		// Smart portfolios are curated investor strategies held in the same
		// investor evidence view.
		return c.IsAboutPopularInvestors || c.IsAboutSmartPortfolios
	case models.DomainPrices:
		return c.IsAboutAssetPricesOrPerformance
	}
	return false
}
