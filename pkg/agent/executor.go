package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/marketmind/marketmind/pkg/models"
	"github.com/marketmind/marketmind/pkg/sqlguard"
)

// zeroMatchSentinel is the single row returned when a query succeeds but
// matches nothing. It is deliberately a string: the consumer is a language
// model reading evidence text, not code.
const zeroMatchSentinel = "the query ran successfully but matched no rows"

// RowQuerier executes one read query and renders the rows as strings.
type RowQuerier interface {
	QueryRows(ctx context.Context, sql string) ([]map[string]string, error)
}

// QueryExecutor runs candidate queries through the safety filter and the
// identifier quoter, then executes them concurrently against the evidence
// store. No query failure aborts the turn; failures become evidence text.
type QueryExecutor struct {
	db  RowQuerier
	sem *semaphore.Weighted
}

// NewQueryExecutor creates an executor. maxConcurrent bounds the queries in
// flight at once; values below 1 mean no bound beyond the connection pool.
func NewQueryExecutor(db RowQuerier, maxConcurrent int64) *QueryExecutor {
	var sem *semaphore.Weighted
	if maxConcurrent > 0 {
		sem = semaphore.NewWeighted(maxConcurrent)
	}
	return &QueryExecutor{db: db, sem: sem}
}

// ExecuteAll runs every candidate query concurrently and merges the results
// in dispatch order, not completion order. Queries that produced no rows
// (declined, rejected, or empty input) contribute no evidence entry.
func (e *QueryExecutor) ExecuteAll(ctx context.Context, queries []models.CandidateQuery) []models.EvidenceRow {
	results := make([][]models.ComparisonRow, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q models.CandidateQuery) {
			defer wg.Done()
			if e.sem != nil {
				if err := e.sem.Acquire(ctx, 1); err != nil {
					slog.Warn("query skipped, context done before execution", "domain", q.Domain, "error", err)
					// The sub-question still shows up in the evidence as an
					// attributed failure, same as an execution error.
					if q.SQL != nil {
						results[i] = []models.ComparisonRow{
							models.ReasoningRow(q.Reasoning),
							{"error": fmt.Sprintf("the query for this sub-question was not executed: %v", err)},
						}
					}
					return
				}
				defer e.sem.Release(1)
			}
			results[i] = e.Execute(ctx, q)
		}(i, q)
	}
	wg.Wait()

	evidence := make([]models.EvidenceRow, 0, len(queries))
	for i, rows := range results {
		if len(rows) == 0 {
			continue
		}
		evidence = append(evidence, models.QueryEvidence(queries[i].Domain, rows))
	}
	return evidence
}

// Execute runs one candidate query. The result is always prefixed with a
// synthetic reasoning row so the synthesizer can attribute the evidence to
// its sub-question. The database is never touched for a nil or dangerous
// SQL text.
func (e *QueryExecutor) Execute(ctx context.Context, q models.CandidateQuery) []models.ComparisonRow {
	if q.SQL == nil {
		slog.Info("no query to execute", "domain", q.Domain, "reasoning", q.Reasoning)
		return nil
	}
	if sqlguard.IsDangerous(*q.SQL) {
		slog.Warn("rejected dangerous query", "domain", q.Domain, "sql", *q.SQL)
		return nil
	}

	quoted := sqlguard.QuoteIdentifiers(*q.SQL)
	rows, err := e.db.QueryRows(ctx, quoted)
	if err != nil {
		slog.Warn("query execution failed", "domain", q.Domain, "error", err)
		return []models.ComparisonRow{
			models.ReasoningRow(q.Reasoning),
			{"error": fmt.Sprintf("the query for this sub-question failed: %v", err)},
		}
	}
	if len(rows) == 0 {
		return []models.ComparisonRow{
			models.ReasoningRow(q.Reasoning),
			{"result": zeroMatchSentinel},
		}
	}

	out := make([]models.ComparisonRow, 0, len(rows)+1)
	out = append(out, models.ReasoningRow(q.Reasoning))
	for _, row := range rows {
		out = append(out, models.ComparisonRow(row))
	}
	return out
}
