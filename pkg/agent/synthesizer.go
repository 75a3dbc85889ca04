package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/marketmind/marketmind/pkg/events"
	"github.com/marketmind/marketmind/pkg/llm"
	"github.com/marketmind/marketmind/pkg/models"
	"github.com/marketmind/marketmind/pkg/trace"
)

// StreamInput carries the prepared synthesis conversation and the fragment
// publisher for one turn.
type StreamInput struct {
	Messages  []llm.Message
	Publisher *events.Publisher
}

// Synthesizer streams the final structured answer. The model emits one JSON
// object token by token; the synthesizer completes each partial prefix into
// valid JSON, merges it into the accumulated answer, and publishes only the
// new answer text as deltas. The accumulated object grows monotonically and
// never contradicts an earlier delta.
type Synthesizer struct {
	client llm.Client
	model  string
}

// NewSynthesizer creates the final-answer synthesizer.
func NewSynthesizer(client llm.Client, model string) *Synthesizer {
	return &Synthesizer{client: client, model: model}
}

// Stream runs the schema-constrained streaming generation and returns the
// final merged answer. Structured metadata fragments (chart, tickers,
// follow-ups) are published once the stream completes.
func (s *Synthesizer) Stream(ctx context.Context, turn *trace.Turn, input *StreamInput) (models.FinalAnswer, error) {
	span := turn.StartSpan("synthesize", map[string]any{"model": s.model})

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stream, err := s.client.Generate(callCtx, &llm.GenerateInput{
		TurnID:         turn.ID(),
		Model:          s.model,
		Messages:       input.Messages,
		ResponseSchema: finalAnswerSchema,
	})
	if err != nil {
		span.End(map[string]any{"error": err.Error()})
		return models.FinalAnswer{}, fmt.Errorf("failed to start synthesis stream: %w", err)
	}

	var raw string
	var acc models.FinalAnswer
	var usage *llm.TokenUsage
	for chunk := range stream {
		switch c := chunk.(type) {
		case *llm.TextChunk:
			raw += c.Content
			acc = s.applyPartial(raw, acc, input.Publisher)
		case *llm.UsageChunk:
			usage = &llm.TokenUsage{InputTokens: c.InputTokens, OutputTokens: c.OutputTokens, TotalTokens: c.TotalTokens}
		case *llm.ErrorChunk:
			span.End(map[string]any{"error": c.Message})
			return acc, fmt.Errorf("synthesis stream failed: %s", c.Message)
		}
	}

	final, err := s.finalize(raw, acc)
	span.End(spanOutcome(usage, err, map[string]any{"answer_chars": len(final.Answer)}))
	if err != nil {
		return acc, err
	}

	s.publishMetadata(final, input.Publisher)
	return final, nil
}

// applyPartial completes the raw prefix into valid JSON, merges it, and
// publishes the grown answer text. Unparseable prefixes are skipped; the
// next chunk retries on the longer prefix.
func (s *Synthesizer) applyPartial(raw string, acc models.FinalAnswer, pub *events.Publisher) models.FinalAnswer {
	completed := llm.CompletePartial(llm.ExtractJSON(raw))
	if !gjson.Valid(completed) {
		return acc
	}
	var delta models.FinalAnswer
	if err := json.Unmarshal([]byte(completed), &delta); err != nil {
		return acc
	}
	merged := models.MergeAnswer(acc, delta)
	if len(merged.Answer) > len(acc.Answer) {
		// A write failure means the client is gone; keep merging so the
		// final answer is still complete for persistence.
		_ = pub.AnswerDelta(merged.Answer[len(acc.Answer):])
	}
	return merged
}

// finalize validates the complete stream output against the answer schema
// and merges it one last time.
func (s *Synthesizer) finalize(raw string, acc models.FinalAnswer) (models.FinalAnswer, error) {
	doc := llm.ExtractJSON(raw)
	if err := llm.ValidateAgainstSchema(finalAnswerSchema, doc); err != nil {
		return acc, fmt.Errorf("final answer failed schema validation: %w", err)
	}
	var final models.FinalAnswer
	if err := json.Unmarshal([]byte(doc), &final); err != nil {
		return acc, fmt.Errorf("failed to unmarshal final answer: %w", err)
	}
	return models.MergeAnswer(acc, final), nil
}

// publishMetadata emits the structured fragments attached to the answer.
func (s *Synthesizer) publishMetadata(final models.FinalAnswer, pub *events.Publisher) {
	if len(final.ChartPoints) > 0 {
		points := make([]events.ChartPoint, len(final.ChartPoints))
		for i, p := range final.ChartPoints {
			points[i] = events.ChartPoint{Label: p.Label, Value: p.Value}
		}
		_ = pub.ChartData(final.ChartType, points)
	}
	if len(final.TickersToDisplay) > 0 || len(final.UsernamesToDisplay) > 0 {
		_ = pub.TickerList(final.TickersToDisplay, final.UsernamesToDisplay)
	}
	if len(final.FollowUpQuestions) > 0 {
		_ = pub.FollowUpQuestions(final.FollowUpQuestions)
	}
}
