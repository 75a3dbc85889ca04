package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/marketmind/marketmind/pkg/events"
	"github.com/marketmind/marketmind/pkg/llm"
	"github.com/marketmind/marketmind/pkg/models"
	"github.com/marketmind/marketmind/pkg/trace"
)

// streamClient replays a fixed chunk sequence for every Generate call.
type streamClient struct {
	chunks []llm.Chunk
	err    error

	lastInput *llm.GenerateInput
}

func (f *streamClient) Generate(_ context.Context, input *llm.GenerateInput) (<-chan llm.Chunk, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	out := make(chan llm.Chunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out, nil
}

func (f *streamClient) Close() error { return nil }

// textChunks slices a document into streaming chunks of the given size.
func textChunks(doc string, size int) []llm.Chunk {
	var chunks []llm.Chunk
	for i := 0; i < len(doc); i += size {
		end := i + size
		if end > len(doc) {
			end = len(doc)
		}
		chunks = append(chunks, &llm.TextChunk{Content: doc[i:end]})
	}
	return chunks
}

const answerDoc = `{"answer": "Apple closed at 233.1 yesterday, up 0.3% on the day.", "responseShape": "text", "title": "Apple price check", "followUpQuestions": ["How has AAPL done this month?"], "tickersToDisplay": ["AAPL"]}`

func newTestTurn() *trace.Turn {
	return trace.NewTurn("turn-test", trace.LogSink{})
}

func TestSynthesizerStreamsDeltasAndFinalAnswer(t *testing.T) {
	client := &streamClient{chunks: append(textChunks(answerDoc, 7), &llm.UsageChunk{InputTokens: 900, OutputTokens: 80, TotalTokens: 980})}
	synth := NewSynthesizer(client, "gpt-test")
	capture := &events.CapturePublisher{}
	turn := newTestTurn()
	defer turn.Close()

	final, err := synth.Stream(context.Background(), turn, &StreamInput{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "how did apple close?"}},
		Publisher: events.NewPublisher("turn-test", capture),
	})
	require.NoError(t, err)

	assert.Equal(t, "Apple closed at 233.1 yesterday, up 0.3% on the day.", final.Answer)
	assert.Equal(t, models.ResponseShapeText, final.ResponseShape)
	require.NotNil(t, final.Title)
	assert.Equal(t, "Apple price check", *final.Title)

	// The published deltas concatenate to exactly the final answer text.
	var rebuilt strings.Builder
	var kinds []string
	for _, frame := range capture.Frames() {
		kinds = append(kinds, frame.Kind)
		if frame.Kind == events.KindAnswerDelta {
			rebuilt.WriteString(gjson.GetBytes(frame.Data, "delta").String())
		}
	}
	assert.Equal(t, final.Answer, rebuilt.String())
	assert.Contains(t, kinds, events.KindTickerList)
	assert.Contains(t, kinds, events.KindFollowUpQuestions)
	assert.Equal(t, finalAnswerSchema, client.lastInput.ResponseSchema)
}

func TestSynthesizerRoundTripMatchesSingleShot(t *testing.T) {
	// Property: merge-applying the streamed partials in order yields the
	// same object as parsing the complete document once.
	var oneShot models.FinalAnswer
	require.NoError(t, json.Unmarshal([]byte(answerDoc), &oneShot))

	for _, chunkSize := range []int{1, 3, 11, len(answerDoc)} {
		client := &streamClient{chunks: textChunks(answerDoc, chunkSize)}
		synth := NewSynthesizer(client, "gpt-test")
		turn := newTestTurn()

		streamed, err := synth.Stream(context.Background(), turn, &StreamInput{
			Messages:  []llm.Message{{Role: llm.RoleUser, Content: "q"}},
			Publisher: events.NewPublisher("turn-test", &events.CapturePublisher{}),
		})
		turn.Close()
		require.NoError(t, err, "chunk size %d", chunkSize)
		assert.Equal(t, oneShot, streamed, "chunk size %d", chunkSize)
	}
}

func TestSynthesizerMidStreamError(t *testing.T) {
	chunks := append(textChunks(`{"answer": "Apple clo`, 5),
		&llm.ErrorChunk{Message: "provider overloaded", Retryable: true})
	client := &streamClient{chunks: chunks}
	synth := NewSynthesizer(client, "gpt-test")
	capture := &events.CapturePublisher{}
	turn := newTestTurn()
	defer turn.Close()

	partial, err := synth.Stream(context.Background(), turn, &StreamInput{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "q"}},
		Publisher: events.NewPublisher("turn-test", capture),
	})
	require.ErrorContains(t, err, "provider overloaded")
	// The partial answer accumulated so far is still returned.
	assert.Equal(t, "Apple clo", partial.Answer)
}

func TestSynthesizerRejectsSchemaViolation(t *testing.T) {
	client := &streamClient{chunks: textChunks(`{"answer": "ok", "responseShape": "hologram", "title": null}`, 9)}
	synth := NewSynthesizer(client, "gpt-test")
	turn := newTestTurn()
	defer turn.Close()

	_, err := synth.Stream(context.Background(), turn, &StreamInput{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "q"}},
		Publisher: events.NewPublisher("turn-test", &events.CapturePublisher{}),
	})
	assert.ErrorContains(t, err, "schema validation")
}
