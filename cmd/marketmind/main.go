// MarketMind chat backend: classifies financial questions, gathers
// evidence through model-driven agents, executes guarded read queries, and
// streams structured answers over SSE.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marketmind/marketmind/pkg/agent"
	"github.com/marketmind/marketmind/pkg/agent/prompt"
	"github.com/marketmind/marketmind/pkg/api"
	"github.com/marketmind/marketmind/pkg/catalog"
	"github.com/marketmind/marketmind/pkg/config"
	"github.com/marketmind/marketmind/pkg/database"
	"github.com/marketmind/marketmind/pkg/llm"
	"github.com/marketmind/marketmind/pkg/marketdata"
	"github.com/marketmind/marketmind/pkg/models"
	"github.com/marketmind/marketmind/pkg/portfolio"
	"github.com/marketmind/marketmind/pkg/trace"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// followUpCount is how many follow-up questions the synthesizer supplies.
const followUpCount = 3

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	slog.Info("Starting MarketMind", "http_port", httpPort, "config_dir", *configDir)

	ctx := context.Background()

	// 1. Configuration
	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Evidence store
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbClient.Close()
	slog.Info("Connected to evidence store")

	// 3. LLM client from the default provider
	provider, err := cfg.Providers().Get(cfg.Defaults.LLMProvider)
	if err != nil {
		slog.Error("Failed to resolve default LLM provider", "error", err)
		os.Exit(1)
	}
	llmClient := llm.NewHTTPClient(provider.BaseURL, provider.APIKey)
	defer func() {
		if err := llmClient.Close(); err != nil {
			slog.Error("Error closing LLM client", "error", err)
		}
	}()
	slog.Info("LLM client initialized", "model", provider.Model)

	// 4. Domain collaborators
	builder := prompt.NewBuilder()
	resolver := catalog.NewTickerResolver(
		catalog.NewPgSearcher(dbClient.Pool()), cfg.Defaults.MaxTickerMatches)
	fetcher := portfolio.NewFetcher(
		portfolio.NewHTTPBrokerageClient(cfg.Brokerage.BaseURL, cfg.Brokerage.APIKey, cfg.Brokerage.Timeout.Std()),
		portfolio.NewPgMetadataProvider(dbClient.Pool()),
		cfg.Defaults.MinPortfolioWeight,
		cfg.Defaults.MaxPortfolioPositions,
	)
	toolset := marketdata.NewToolset(
		marketdata.NewHTTPCandleClient(cfg.MarketData.BaseURL, cfg.MarketData.APIKey, cfg.MarketData.Timeout.Std()))

	// 5. Agents and the per-turn pipeline
	queryAgents := make([]agent.QueryProducer, 0, len(models.AllDomains()))
	for _, domain := range models.AllDomains() {
		queryAgents = append(queryAgents, agent.NewQueryAgent(domain, llmClient, builder, provider.Model))
	}
	orchestrator := agent.NewOrchestrator(agent.OrchestratorDeps{
		Classifier:     agent.NewClassifier(llmClient, builder, provider.Model),
		Resolver:       resolver,
		QueryAgents:    queryAgents,
		PortfolioFetch: fetcher,
		PortfolioAgent: agent.NewPortfolioAnalysisAgent(llmClient, builder, provider.Model),
		Researcher:     agent.NewWebSearchAgent(llmClient, builder, provider.Model),
		MarketData:     agent.NewMarketDataAgent(llmClient, builder, toolset, provider.Model),
		Executor:       agent.NewQueryExecutor(dbClient, int64(cfg.Defaults.MaxConcurrentQueries)),
		Synthesizer:    agent.NewSynthesizer(llmClient, provider.Model),
		Builder:        builder,
		Timeouts: agent.Timeouts{
			Classification: cfg.Defaults.ClassificationTimeout.Std(),
			Agent:          cfg.Defaults.AgentTimeout.Std(),
			Execution:      cfg.Defaults.ExecutionTimeout.Std(),
			Synthesis:      cfg.Defaults.SynthesisTimeout.Std(),
		},
		FollowUpCount: followUpCount,
	})
	pipeline := agent.NewTurnPipeline(orchestrator, trace.LogSink{})

	// 6. HTTP server
	server := api.NewServer(pipeline, dbClient)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", httpPort),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	slog.Info("Shutdown complete")
}
