// Package agent implements the per-turn pipeline: classification, evidence
// gathering through domain query agents and auxiliary agents, guarded SQL
// execution, and streaming synthesis of the final answer.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/marketmind/marketmind/pkg/agent/prompt"
	"github.com/marketmind/marketmind/pkg/llm"
	"github.com/marketmind/marketmind/pkg/models"
	"github.com/marketmind/marketmind/pkg/trace"
)

// ErrClassification wraps any failure of the mandatory classification call.
var ErrClassification = errors.New("classification failed")

// Classifier performs the mandatory first model call of a turn.
type Classifier struct {
	client  llm.Client
	builder *prompt.Builder
	model   string
}

// NewClassifier creates a classifier bound to a model.
func NewClassifier(client llm.Client, builder *prompt.Builder, model string) *Classifier {
	return &Classifier{client: client, builder: builder, model: model}
}

// Classify runs the classification call. A failure here is fatal for the
// turn; no evidence gathering is possible without a classification.
func (c *Classifier) Classify(ctx context.Context, turn *trace.Turn, req models.TurnRequest) (models.Classification, error) {
	span := turn.StartSpan("classify", map[string]any{"model": c.model})

	var classification models.Classification
	usage, err := llm.GenerateObject(ctx, c.client, &llm.GenerateInput{
		TurnID:         turn.ID(),
		Model:          c.model,
		Messages:       c.builder.BuildClassificationMessages(req.Message, req.History),
		ResponseSchema: classificationSchema,
	}, &classification)

	span.End(spanOutcome(usage, err, map[string]any{"reasoning": classification.Reasoning}))
	if err != nil {
		return models.Classification{}, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	return classification, nil
}

// spanOutcome builds span-end metadata from a model call result.
func spanOutcome(usage *llm.TokenUsage, err error, extra map[string]any) map[string]any {
	meta := map[string]any{}
	for k, v := range extra {
		meta[k] = v
	}
	if usage != nil {
		meta["input_tokens"] = usage.InputTokens
		meta["output_tokens"] = usage.OutputTokens
	}
	if err != nil {
		meta["error"] = err.Error()
	}
	return meta
}
