package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestPublisherFragmentOrder(t *testing.T) {
	capture := &CapturePublisher{}
	pub := NewPublisher("turn-1", capture)

	require.NoError(t, pub.StatusUpdate(StageClassifying, ""))
	require.NoError(t, pub.AnswerDelta("Apple "))
	require.NoError(t, pub.AnswerDelta("is up today."))
	require.NoError(t, pub.TickerList([]string{"AAPL"}, nil))
	require.NoError(t, pub.Done(DonePayload{Answer: "Apple is up today.", ResponseShape: "text"}))

	assert.Equal(t, []string{
		KindStatusUpdate,
		KindAnswerDelta,
		KindAnswerDelta,
		KindTickerList,
		KindDone,
	}, capture.Kinds())
}

func TestPublisherDropsAfterTerminal(t *testing.T) {
	capture := &CapturePublisher{}
	pub := NewPublisher("turn-2", capture)

	require.NoError(t, pub.Error("synthesis_failed", "model unavailable"))
	assert.True(t, pub.Terminated())

	// Publishes after the terminal fragment are silently dropped.
	require.NoError(t, pub.AnswerDelta("late"))
	require.NoError(t, pub.Done(DonePayload{Answer: "late"}))

	kinds := capture.Kinds()
	require.Len(t, kinds, 1)
	assert.Equal(t, KindError, kinds[0])
}

func TestPublisherSkipsEmptyDelta(t *testing.T) {
	capture := &CapturePublisher{}
	pub := NewPublisher("turn-3", capture)

	require.NoError(t, pub.AnswerDelta(""))
	assert.Empty(t, capture.Frames())
}

func TestPublisherStatusDetail(t *testing.T) {
	capture := &CapturePublisher{}
	pub := NewPublisher("turn-5", capture)

	require.NoError(t, pub.StatusUpdate(StageGatheringEvidence, "Looking up Apple's latest fundamentals"))
	require.NoError(t, pub.StatusUpdate(StageSynthesizing, ""))

	frames := capture.Frames()
	require.Len(t, frames, 2)

	withDetail := string(frames[0].Data)
	assert.Equal(t, StageGatheringEvidence, gjson.Get(withDetail, "stage").String())
	assert.Equal(t, "Looking up Apple's latest fundamentals", gjson.Get(withDetail, "detail").String())

	// Empty detail is omitted from the payload entirely.
	assert.False(t, gjson.Get(string(frames[1].Data), "detail").Exists())
}

func TestPublisherPayloadFields(t *testing.T) {
	capture := &CapturePublisher{}
	pub := NewPublisher("turn-4", capture)

	require.NoError(t, pub.ChartData("line", []ChartPoint{{Label: "2026-08-01", Value: 231.5}}))
	require.NoError(t, pub.FollowUpQuestions([]string{"How did MSFT do?"}))

	frames := capture.Frames()
	require.Len(t, frames, 2)

	chart := string(frames[0].Data)
	assert.Equal(t, KindChartData, gjson.Get(chart, "kind").String())
	assert.Equal(t, "turn-4", gjson.Get(chart, "turn_id").String())
	assert.Equal(t, "line", gjson.Get(chart, "chart_type").String())
	assert.Equal(t, 231.5, gjson.Get(chart, "points.0.value").Float())

	followUps := string(frames[1].Data)
	assert.Equal(t, "How did MSFT do?", gjson.Get(followUps, "questions.0").String())
}
