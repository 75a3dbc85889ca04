package agent

import (
	"context"
	"fmt"

	"github.com/marketmind/marketmind/pkg/agent/prompt"
	"github.com/marketmind/marketmind/pkg/llm"
	"github.com/marketmind/marketmind/pkg/marketdata"
	"github.com/marketmind/marketmind/pkg/models"
	"github.com/marketmind/marketmind/pkg/trace"
)

// PortfolioAnalysisAgent produces a short factual analysis of the user's
// holdings relative to the question.
type PortfolioAnalysisAgent struct {
	client  llm.Client
	builder *prompt.Builder
	model   string
}

// NewPortfolioAnalysisAgent creates the portfolio-analysis agent.
func NewPortfolioAnalysisAgent(client llm.Client, builder *prompt.Builder, model string) *PortfolioAnalysisAgent {
	return &PortfolioAnalysisAgent{client: client, builder: builder, model: model}
}

// Analyze runs one structured-generation call over the user's positions.
// The agent runs even for an empty portfolio; the prompt instructs the model
// to say so rather than invent holdings.
func (a *PortfolioAnalysisAgent) Analyze(ctx context.Context, turn *trace.Turn, message string, positions []models.PortfolioPosition, copies []models.CopiedInvestor) (string, error) {
	span := turn.StartSpan("portfolio_analysis", map[string]any{"positions": len(positions), "model": a.model})

	var out struct {
		Analysis string `json:"analysis"`
	}
	usage, err := llm.GenerateObject(ctx, a.client, &llm.GenerateInput{
		TurnID:         turn.ID(),
		Model:          a.model,
		Messages:       a.builder.BuildPortfolioAnalysisMessages(message, positions, copies),
		ResponseSchema: portfolioAnalysisSchema,
	}, &out)

	span.End(spanOutcome(usage, err, nil))
	if err != nil {
		return "", fmt.Errorf("portfolio analysis failed: %w", err)
	}
	return out.Analysis, nil
}

// WebSearchAgent gathers current information through search-grounded
// free-text generation.
type WebSearchAgent struct {
	client  llm.Client
	builder *prompt.Builder
	model   string
}

// NewWebSearchAgent creates the research agent.
func NewWebSearchAgent(client llm.Client, builder *prompt.Builder, model string) *WebSearchAgent {
	return &WebSearchAgent{client: client, builder: builder, model: model}
}

// Research runs one search-grounded call and returns the research text.
func (a *WebSearchAgent) Research(ctx context.Context, turn *trace.Turn, message string, history []models.ChatMessage) (string, error) {
	span := turn.StartSpan("web_research", map[string]any{"model": a.model})

	resp, err := llm.Call(ctx, a.client, &llm.GenerateInput{
		TurnID:    turn.ID(),
		Model:     a.model,
		Messages:  a.builder.BuildWebSearchMessages(message, history),
		WebSearch: true,
	})

	var usage *llm.TokenUsage
	if resp != nil {
		usage = resp.Usage
	}
	span.End(spanOutcome(usage, err, nil))
	if err != nil {
		return "", fmt.Errorf("web research failed: %w", err)
	}
	return resp.Text, nil
}

// maxToolIterations bounds the market-data agent's tool loop.
const maxToolIterations = 8

// MarketDataAgent answers price and performance questions through the
// bounded market-data tools.
type MarketDataAgent struct {
	client  llm.Client
	builder *prompt.Builder
	tools   *marketdata.Toolset
	model   string
}

// NewMarketDataAgent creates the tool-calling market-data agent.
func NewMarketDataAgent(client llm.Client, builder *prompt.Builder, tools *marketdata.Toolset, model string) *MarketDataAgent {
	return &MarketDataAgent{client: client, builder: builder, tools: tools, model: model}
}

// Gather runs the tool-calling loop: the model requests tools, the agent
// executes them and feeds results back, until the model answers in plain
// text or the iteration budget runs out.
func (a *MarketDataAgent) Gather(ctx context.Context, turn *trace.Turn, message string, tickers []models.TickerMatch) (string, error) {
	span := turn.StartSpan("market_data", map[string]any{"model": a.model, "instruments": len(tickers)})
	defer func() { span.End(nil) }()

	messages := a.builder.BuildMarketDataMessages(message, tickers)
	definitions := a.tools.Definitions()

	var lastText string
	for i := 0; i < maxToolIterations; i++ {
		resp, err := llm.Call(ctx, a.client, &llm.GenerateInput{
			TurnID:   turn.ID(),
			Model:    a.model,
			Messages: messages,
			Tools:    definitions,
		})
		if err != nil {
			return "", fmt.Errorf("market data agent failed: %w", err)
		}
		lastText = resp.Text
		if len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			toolSpan := span.StartChild("tool", map[string]any{"name": call.Name, "arguments": call.Arguments})
			result := a.tools.Invoke(ctx, call)
			toolSpan.End(map[string]any{"result": result})
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}
	// Budget exhausted: return whatever text the model produced so far.
	return lastText, nil
}
