package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marketmind/marketmind/pkg/llm"
	"github.com/marketmind/marketmind/pkg/models"
)

// Builder builds all prompt text for the pipeline's model calls.
// Stateless and safe for concurrent use: all state comes from parameters.
type Builder struct{}

// NewBuilder creates a prompt Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

type domainPrompt struct {
	focus    string
	contract string
}

var domainPrompts = map[models.Domain]domainPrompt{
	models.DomainStocks:    {stocksDomainFocus, stocksViewContract},
	models.DomainEtfs:      {etfsDomainFocus, etfsViewContract},
	models.DomainNews:      {newsDomainFocus, newsViewContract},
	models.DomainEarnings:  {earningsDomainFocus, earningsViewContract},
	models.DomainDividends: {dividendsDomainFocus, dividendsViewContract},
	models.DomainInvestors: {investorsDomainFocus, investorsViewContract},
	models.DomainPrices:    {pricesDomainFocus, pricesViewContract},
}

// BuildClassificationMessages builds the conversation for the mandatory
// classification call.
func (b *Builder) BuildClassificationMessages(message string, history []models.ChatMessage) []llm.Message {
	var user strings.Builder
	if tail := renderHistory(history); tail != "" {
		user.WriteString("## Recent conversation\n")
		user.WriteString(tail)
		user.WriteString("\n")
	}
	user.WriteString("## Latest user message\n")
	user.WriteString(message)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: classificationSystem},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

// BuildQueryAgentMessages builds the conversation for one evidence-domain
// query agent.
func (b *Builder) BuildQueryAgentMessages(domain models.Domain, message string, tickers []models.TickerMatch) ([]llm.Message, error) {
	dp, ok := domainPrompts[domain]
	if !ok {
		return nil, fmt.Errorf("no prompt defined for domain %q", domain)
	}

	var user strings.Builder
	user.WriteString("## User question\n")
	user.WriteString(message)
	if hints := renderTickers(tickers); hints != "" {
		user.WriteString("\n\n## Resolved instruments (disambiguation hints)\n")
		user.WriteString(hints)
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(queryAgentSystem, dp.focus, dp.contract)},
		{Role: llm.RoleUser, Content: user.String()},
	}, nil
}

// BuildPortfolioAnalysisMessages builds the conversation for the
// portfolio-analysis agent.
func (b *Builder) BuildPortfolioAnalysisMessages(message string, positions []models.PortfolioPosition, copies []models.CopiedInvestor) []llm.Message {
	var user strings.Builder
	user.WriteString("## User question\n")
	user.WriteString(message)
	user.WriteString("\n\n## Current portfolio\n")
	user.WriteString(renderPositions(positions))
	if len(copies) > 0 {
		user.WriteString("\n## Copied investors\n")
		for _, c := range copies {
			fmt.Fprintf(&user, "- %s (%s%% of portfolio)\n", c.Username, c.Weight.String())
		}
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: portfolioAnalysisSystem},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

// BuildWebSearchMessages builds the conversation for the search-grounded
// research agent.
func (b *Builder) BuildWebSearchMessages(message string, history []models.ChatMessage) []llm.Message {
	var user strings.Builder
	if tail := renderHistory(history); tail != "" {
		user.WriteString("## Recent conversation\n")
		user.WriteString(tail)
		user.WriteString("\n")
	}
	user.WriteString("## Research this question\n")
	user.WriteString(message)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: webSearchSystem},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

// BuildMarketDataMessages builds the opening conversation for the
// tool-calling market-data agent.
func (b *Builder) BuildMarketDataMessages(message string, tickers []models.TickerMatch) []llm.Message {
	table := renderTickers(tickers)
	if table == "" {
		table = "(no instruments resolved)"
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(marketDataSystem, table)},
		{Role: llm.RoleUser, Content: message},
	}
}

// SynthesisInput is the merged evidence bundle rendered into the synthesis
// prompt.
type SynthesisInput struct {
	Evidence          []models.EvidenceRow
	PortfolioAnalysis string
	WebResearch       string
	MarketData        string
	Positions         []models.PortfolioPosition
	FollowUpCount     int
	FirstTurn         bool
}

// BuildSynthesisMessages builds the conversation for the final-answer
// generation.
func (b *Builder) BuildSynthesisMessages(message string, history []models.ChatMessage, input SynthesisInput) []llm.Message {
	system := fmt.Sprintf(synthesisSystem, input.FollowUpCount)
	if input.FirstTurn {
		system += "\n" + synthesisTitleInstruction
	} else {
		system += "\n" + synthesisNoTitleInstruction
	}

	var user strings.Builder
	if tail := renderHistory(history); tail != "" {
		user.WriteString("## Recent conversation\n")
		user.WriteString(tail)
		user.WriteString("\n")
	}
	user.WriteString("## User question\n")
	user.WriteString(message)
	user.WriteString("\n\n## Evidence\n")
	user.WriteString(renderEvidence(input.Evidence))
	if input.MarketData != "" {
		user.WriteString("\n## Live market data (tool results)\n")
		user.WriteString(input.MarketData)
		user.WriteString("\n")
	}
	if input.WebResearch != "" {
		user.WriteString("\n## Web research\n")
		user.WriteString(input.WebResearch)
		user.WriteString("\n")
	}
	if input.PortfolioAnalysis != "" {
		user.WriteString("\n## Portfolio analysis\n")
		user.WriteString(input.PortfolioAnalysis)
		user.WriteString("\n")
	}
	if len(input.Positions) > 0 {
		user.WriteString("\n## User portfolio\n")
		user.WriteString(renderPositions(input.Positions))
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

func renderHistory(history []models.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	return b.String()
}

func renderTickers(tickers []models.TickerMatch) string {
	if len(tickers) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tm := range tickers {
		fmt.Fprintf(&b, "- %s (%s, %s, instrumentId=%d)\n", tm.Ticker, tm.Name, tm.AssetType, tm.InstrumentID)
	}
	return b.String()
}

func renderPositions(positions []models.PortfolioPosition) string {
	if len(positions) == 0 {
		return "(the portfolio is empty)\n"
	}
	var b strings.Builder
	for _, p := range positions {
		fmt.Fprintf(&b, "- %s %s: %s%%", p.Ticker, p.Name, p.Weight.String())
		if p.Sector != "" {
			fmt.Fprintf(&b, " (%s, %s, %s)", p.Sector, p.Industry, p.Country)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderEvidence(evidence []models.EvidenceRow) string {
	if len(evidence) == 0 {
		return "(no evidence was gathered)\n"
	}
	var b strings.Builder
	for _, ev := range evidence {
		switch ev.Kind {
		case models.EvidenceQueryRows:
			fmt.Fprintf(&b, "### %s\n", ev.Domain)
			for _, row := range ev.Rows {
				b.WriteString(renderRow(row))
			}
		case models.EvidenceTickerFallback:
			b.WriteString("### resolved instruments (no query evidence available)\n")
			b.WriteString(renderTickers(ev.Tickers))
		}
	}
	return b.String()
}

func renderRow(row models.ComparisonRow) string {
	if reasoning, ok := row["reasoning"]; ok && len(row) == 1 {
		return fmt.Sprintf("reasoning: %s\n", reasoning)
	}
	keys := sortedKeys(row)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, row[k]))
	}
	return strings.Join(parts, " ") + "\n"
}

func sortedKeys(row models.ComparisonRow) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
