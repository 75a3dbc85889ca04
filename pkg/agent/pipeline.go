package agent

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/marketmind/marketmind/pkg/events"
	"github.com/marketmind/marketmind/pkg/models"
	"github.com/marketmind/marketmind/pkg/trace"
)

// Error codes published in terminal error fragments.
const (
	ErrCodeClassification = "classification_failed"
	ErrCodeSynthesis      = "synthesis_failed"
	ErrCodeCancelled      = "turn_cancelled"
)

// TurnPipeline binds one transport request to one orchestrator run and
// relays the fragment stream. Each turn is an independent, stateless
// invocation; the pipeline holds no per-turn state between calls.
type TurnPipeline struct {
	orchestrator *Orchestrator
	sink         trace.Sink
}

// NewTurnPipeline creates the pipeline.
func NewTurnPipeline(orchestrator *Orchestrator, sink trace.Sink) *TurnPipeline {
	return &TurnPipeline{orchestrator: orchestrator, sink: sink}
}

// Run executes one chat turn, streaming fragments to the writer. The stream
// always ends with a terminal fragment: done on success, error otherwise.
// A cancelled context (client abort) stops fragment emission; in-flight
// external calls wind down on their own contexts.
func (p *TurnPipeline) Run(ctx context.Context, req models.TurnRequest, w events.FrameWriter) error {
	turnID := uuid.NewString()
	pub := events.NewPublisher(turnID, w)
	turn := trace.NewTurn(turnID, p.sink)
	defer turn.Close()

	log := slog.With("turn_id", turnID, "conversation_id", req.ConversationID)
	// The requested model is recorded for operators; turns run on the
	// configured default provider.
	log.Info("turn started", "model", req.Model)

	answer, err := p.orchestrator.Run(ctx, turn, req, pub)
	if err != nil {
		code := errorCode(ctx, err)
		log.Error("turn failed", "code", code, "error", err)
		if pubErr := pub.Error(code, clientMessage(code)); pubErr != nil {
			log.Debug("failed to publish error fragment", "error", pubErr)
		}
		return err
	}

	if pubErr := pub.Done(events.DonePayload{
		Answer:        answer.Answer,
		ResponseShape: string(answer.ResponseShape),
		Title:         answer.Title,
		Tickers:       answer.TickersToDisplay,
	}); pubErr != nil {
		log.Warn("failed to publish done fragment", "error", pubErr)
	}

	log.Info("turn completed", "shape", answer.ResponseShape, "answer_chars", len(answer.Answer))
	return nil
}

// errorCode maps a pipeline failure to its client-facing code.
func errorCode(ctx context.Context, err error) string {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return ErrCodeCancelled
	}
	if errors.Is(err, ErrClassification) {
		return ErrCodeClassification
	}
	return ErrCodeSynthesis
}

// clientMessage returns the user-safe message for an error code. Internal
// error text never reaches the client.
func clientMessage(code string) string {
	switch code {
	case ErrCodeClassification:
		return "I could not understand the question well enough to research it. Please rephrase."
	case ErrCodeCancelled:
		return "The request was cancelled."
	}
	return "Something went wrong while composing the answer. Please try again."
}
