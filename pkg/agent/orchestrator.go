package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/marketmind/marketmind/pkg/agent/prompt"
	"github.com/marketmind/marketmind/pkg/events"
	"github.com/marketmind/marketmind/pkg/models"
	"github.com/marketmind/marketmind/pkg/trace"
)

// Timeouts are the per-stage wall-clock budgets of a turn. The source of
// truth is the config defaults; zero values disable the stage's timeout.
type Timeouts struct {
	Classification time.Duration
	Agent          time.Duration
	Execution      time.Duration
	Synthesis      time.Duration
}

// TickerResolver resolves classification candidates to catalog instruments.
type TickerResolver interface {
	Resolve(ctx context.Context, c models.Classification) ([]models.TickerMatch, error)
}

// PortfolioFetcher retrieves the user's prepared holdings.
type PortfolioFetcher interface {
	Fetch(ctx context.Context, username string) ([]models.PortfolioPosition, []models.CopiedInvestor, error)
}

// QueryProducer is one evidence-domain query agent.
type QueryProducer interface {
	Domain() models.Domain
	Produce(ctx context.Context, turn *trace.Turn, message string, tickers []models.TickerMatch) (models.CandidateQuery, error)
}

// PortfolioAnalyzer runs the portfolio-analysis model call.
type PortfolioAnalyzer interface {
	Analyze(ctx context.Context, turn *trace.Turn, message string, positions []models.PortfolioPosition, copies []models.CopiedInvestor) (string, error)
}

// Researcher runs the search-grounded research call.
type Researcher interface {
	Research(ctx context.Context, turn *trace.Turn, message string, history []models.ChatMessage) (string, error)
}

// MarketDataGatherer runs the tool-calling market-data loop.
type MarketDataGatherer interface {
	Gather(ctx context.Context, turn *trace.Turn, message string, tickers []models.TickerMatch) (string, error)
}

// Executor runs candidate queries against the evidence store.
type Executor interface {
	ExecuteAll(ctx context.Context, queries []models.CandidateQuery) []models.EvidenceRow
}

// AnswerStreamer streams the final structured answer.
type AnswerStreamer interface {
	Stream(ctx context.Context, turn *trace.Turn, input *StreamInput) (models.FinalAnswer, error)
}

// TurnClassifier is the mandatory classification call.
type TurnClassifier interface {
	Classify(ctx context.Context, turn *trace.Turn, req models.TurnRequest) (models.Classification, error)
}

// Orchestrator is the per-turn state machine: Classifying, ResolvingTickers,
// GatheringEvidence, ExecutingQueries, Synthesizing, then Done or Failed.
type Orchestrator struct {
	classifier     TurnClassifier
	resolver       TickerResolver
	queryAgents    []QueryProducer
	portfolioFetch PortfolioFetcher
	portfolioAgent PortfolioAnalyzer
	researcher     Researcher
	marketData     MarketDataGatherer
	executor       Executor
	synthesizer    AnswerStreamer
	builder        *prompt.Builder
	timeouts       Timeouts
	followUpCount  int
}

// OrchestratorDeps bundles the orchestrator's collaborators.
type OrchestratorDeps struct {
	Classifier     TurnClassifier
	Resolver       TickerResolver
	QueryAgents    []QueryProducer
	PortfolioFetch PortfolioFetcher
	PortfolioAgent PortfolioAnalyzer
	Researcher     Researcher
	MarketData     MarketDataGatherer
	Executor       Executor
	Synthesizer    AnswerStreamer
	Builder        *prompt.Builder
	Timeouts       Timeouts
	FollowUpCount  int
}

// NewOrchestrator wires the per-turn state machine.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		classifier:     deps.Classifier,
		resolver:       deps.Resolver,
		queryAgents:    deps.QueryAgents,
		portfolioFetch: deps.PortfolioFetch,
		portfolioAgent: deps.PortfolioAgent,
		researcher:     deps.Researcher,
		marketData:     deps.MarketData,
		executor:       deps.Executor,
		synthesizer:    deps.Synthesizer,
		builder:        deps.Builder,
		timeouts:       deps.Timeouts,
		followUpCount:  deps.FollowUpCount,
	}
}

// gatherOutcome is one evidence task's result. Exactly one of the value
// fields is set; err records an isolated failure.
type gatherOutcome struct {
	index     int
	name      string
	query     *models.CandidateQuery
	text      string
	positions []models.PortfolioPosition
	err       error
}

// Run drives one turn through every stage and returns the final answer.
// Only classification and synthesis failures are fatal; every other failure
// degrades the evidence set and the turn continues.
func (o *Orchestrator) Run(ctx context.Context, turn *trace.Turn, req models.TurnRequest, pub *events.Publisher) (models.FinalAnswer, error) {
	// Stage 1: classification. Fatal on failure.
	publishStatus(pub, events.StageClassifying, "")
	classifyCtx, cancel := withTimeout(ctx, o.timeouts.Classification)
	classification, err := o.classifier.Classify(classifyCtx, turn, req)
	cancel()
	if err != nil {
		return models.FinalAnswer{}, err
	}

	// Stage 2: ticker resolution. Degrades to an empty set on failure.
	publishStatus(pub, events.StageResolvingTickers, "")
	resolveCtx, cancel := withTimeout(ctx, o.timeouts.Agent)
	tickers, err := o.resolver.Resolve(resolveCtx, classification)
	cancel()
	if err != nil {
		slog.Warn("ticker resolution degraded to empty set", "turn_id", turn.ID(), "error", err)
		tickers = nil
	}

	// Stage 3: concurrent evidence gathering with per-task isolation.
	publishStatus(pub, events.StageGatheringEvidence, classification.UserFacingReasoning)
	outcomes := o.gather(ctx, turn, req, classification, tickers)

	var queries []models.CandidateQuery
	input := prompt.SynthesisInput{FollowUpCount: o.followUpCount, FirstTurn: req.FirstTurn}
	for _, out := range outcomes {
		if out.err != nil {
			slog.Warn("evidence task failed, continuing without it",
				"turn_id", turn.ID(), "task", out.name, "error", out.err)
			continue
		}
		switch {
		case out.query != nil:
			queries = append(queries, *out.query)
		case out.name == taskPortfolio:
			input.PortfolioAnalysis = out.text
			input.Positions = out.positions
		case out.name == taskWebSearch:
			input.WebResearch = out.text
		case out.name == taskMarketData:
			input.MarketData = out.text
		}
	}

	// Stage 4: guarded concurrent execution, merged in dispatch order.
	publishStatus(pub, events.StageExecutingQueries, "")
	execCtx, cancel := withTimeout(ctx, o.timeouts.Execution)
	evidence := o.executor.ExecuteAll(execCtx, queries)
	cancel()

	// Last-resort fallback: the synthesizer always receives something
	// concrete, even if only the resolved instruments.
	if len(evidence) == 0 && len(tickers) > 0 {
		evidence = []models.EvidenceRow{models.TickerFallbackEvidence(tickers)}
	}
	input.Evidence = evidence

	// Stage 5: streaming synthesis.
	publishStatus(pub, events.StageSynthesizing, "")
	synthCtx, cancel := withTimeout(ctx, o.timeouts.Synthesis)
	defer cancel()
	answer, err := o.synthesizer.Stream(synthCtx, turn, &StreamInput{
		Messages:  o.builder.BuildSynthesisMessages(req.Message, req.History, input),
		Publisher: pub,
	})
	if err != nil {
		return answer, fmt.Errorf("synthesis failed: %w", err)
	}
	return answer, nil
}

// Evidence task names.
const (
	taskPortfolio  = "portfolio"
	taskWebSearch  = "web_search"
	taskMarketData = "market_data"
)

// gather dispatches the evidence tasks selected by the classification and
// waits for all of them. Each task runs under its own timeout and panic
// guard; one task's failure never cancels its siblings. Results come back
// in dispatch order.
func (o *Orchestrator) gather(ctx context.Context, turn *trace.Turn, req models.TurnRequest, classification models.Classification, tickers []models.TickerMatch) []gatherOutcome {
	type task struct {
		name string
		run  func(ctx context.Context) gatherOutcome
	}
	var tasks []task

	for _, qa := range o.queryAgents {
		if !domainEnabled(classification, qa.Domain()) {
			continue
		}
		qa := qa
		tasks = append(tasks, task{name: string(qa.Domain()), run: func(ctx context.Context) gatherOutcome {
			q, err := qa.Produce(ctx, turn, req.Message, tickers)
			if err != nil {
				return gatherOutcome{name: string(qa.Domain()), err: err}
			}
			return gatherOutcome{name: string(qa.Domain()), query: &q}
		}})
	}

	if classification.IsAboutUserPortfolio {
		tasks = append(tasks, task{name: taskPortfolio, run: func(ctx context.Context) gatherOutcome {
			positions, copies, err := o.portfolioFetch.Fetch(ctx, req.Username)
			if err != nil {
				slog.Warn("portfolio fetch failed, analyzing empty portfolio", "turn_id", turn.ID(), "error", err)
				positions, copies = nil, nil
			}
			analysis, err := o.portfolioAgent.Analyze(ctx, turn, req.Message, positions, copies)
			if err != nil {
				return gatherOutcome{name: taskPortfolio, err: err}
			}
			return gatherOutcome{name: taskPortfolio, text: analysis, positions: positions}
		}})
	}

	if classification.WantsWebSearch() {
		tasks = append(tasks, task{name: taskWebSearch, run: func(ctx context.Context) gatherOutcome {
			text, err := o.researcher.Research(ctx, turn, req.Message, req.History)
			return gatherOutcome{name: taskWebSearch, text: text, err: err}
		}})
	}

	if classification.WantsMarketDataTools() {
		tasks = append(tasks, task{name: taskMarketData, run: func(ctx context.Context) gatherOutcome {
			text, err := o.marketData.Gather(ctx, turn, req.Message, tickers)
			return gatherOutcome{name: taskMarketData, text: text, err: err}
		}})
	}

	results := make(chan gatherOutcome, len(tasks))
	for i, t := range tasks {
		i, t := i, t
		go func() {
			taskCtx, cancel := withTimeout(ctx, o.timeouts.Agent)
			defer cancel()
			defer func() {
				if r := recover(); r != nil {
					results <- gatherOutcome{index: i, name: t.name, err: fmt.Errorf("evidence task panicked: %v", r)}
				}
			}()
			out := t.run(taskCtx)
			out.index = i
			results <- out
		}()
	}

	// Join barrier: every dispatched task reports, success or failure.
	outcomes := make([]gatherOutcome, len(tasks))
	for range tasks {
		out := <-results
		outcomes[out.index] = out
	}
	return outcomes
}

func publishStatus(pub *events.Publisher, stage, detail string) {
	if err := pub.StatusUpdate(stage, detail); err != nil {
		slog.Debug("failed to publish status update", "stage", stage, "error", err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
