package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/marketmind/marketmind/pkg/events"
	"github.com/marketmind/marketmind/pkg/models"
	"github.com/marketmind/marketmind/pkg/trace"
)

func TestPipelineEndsWithDone(t *testing.T) {
	f := newFixture(models.Classification{IsAboutStockFundamentals: true})
	title := "Apple check"
	f.streamer.answer = models.FinalAnswer{
		Answer:           "Apple looks steady.",
		ResponseShape:    models.ResponseShapeText,
		Title:            &title,
		TickersToDisplay: []string{"AAPL"},
	}
	pipeline := NewTurnPipeline(f.orchestrator(), trace.LogSink{})

	err := pipeline.Run(context.Background(), models.TurnRequest{ConversationID: "conv-1", Message: "apple?"}, f.capture)
	require.NoError(t, err)

	frames := f.capture.Frames()
	require.NotEmpty(t, frames)
	last := frames[len(frames)-1]
	assert.Equal(t, events.KindDone, last.Kind)
	assert.Equal(t, "Apple looks steady.", gjson.GetBytes(last.Data, "answer").String())
	assert.Equal(t, "Apple check", gjson.GetBytes(last.Data, "title").String())
}

func TestPipelineEndsWithErrorOnClassificationFailure(t *testing.T) {
	f := newFixture(models.Classification{})
	f.classifier.err = ErrClassification
	pipeline := NewTurnPipeline(f.orchestrator(), trace.LogSink{})

	err := pipeline.Run(context.Background(), models.TurnRequest{ConversationID: "conv-1", Message: "??"}, f.capture)
	require.Error(t, err)

	frames := f.capture.Frames()
	require.NotEmpty(t, frames)
	last := frames[len(frames)-1]
	assert.Equal(t, events.KindError, last.Kind)
	assert.Equal(t, ErrCodeClassification, gjson.GetBytes(last.Data, "code").String())
	// Internal error detail stays out of the client message.
	assert.NotContains(t, gjson.GetBytes(last.Data, "message").String(), "classification failed")
}
