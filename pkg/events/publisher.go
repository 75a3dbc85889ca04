package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// FrameWriter delivers one encoded fragment to the client. Implementations
// decide the wire format (SSE event, websocket message, buffered capture).
// WriteFrame is called from a single goroutine at a time.
type FrameWriter interface {
	WriteFrame(kind string, data []byte) error
}

// Publisher serializes turn fragments and hands them to a FrameWriter.
// After a terminal fragment (done or error) all further publishes are
// silently dropped, so downstream code may publish unconditionally in
// deferred cleanup paths.
type Publisher struct {
	turnID string
	writer FrameWriter

	mu       sync.Mutex
	terminal bool
}

// NewPublisher returns a Publisher for a single turn.
func NewPublisher(turnID string, w FrameWriter) *Publisher {
	return &Publisher{turnID: turnID, writer: w}
}

func (p *Publisher) publish(kind string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminal {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s fragment: %w", kind, err)
	}
	if kind == KindDone || kind == KindError {
		p.terminal = true
	}
	return p.writer.WriteFrame(kind, data)
}

// StatusUpdate publishes a stage transition. detail is an optional
// user-facing status line; empty means stage only.
func (p *Publisher) StatusUpdate(stage, detail string) error {
	return p.publish(KindStatusUpdate, StatusUpdatePayload{
		Kind:      KindStatusUpdate,
		TurnID:    p.turnID,
		Stage:     stage,
		Detail:    detail,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// AnswerDelta publishes one incremental answer chunk. Empty deltas are
// dropped without touching the writer.
func (p *Publisher) AnswerDelta(delta string) error {
	if delta == "" {
		return nil
	}
	return p.publish(KindAnswerDelta, AnswerDeltaPayload{
		Kind:   KindAnswerDelta,
		TurnID: p.turnID,
		Delta:  delta,
	})
}

// ChartData publishes the answer's chart.
func (p *Publisher) ChartData(chartType string, points []ChartPoint) error {
	return p.publish(KindChartData, ChartDataPayload{
		Kind:      KindChartData,
		TurnID:    p.turnID,
		ChartType: chartType,
		Points:    points,
	})
}

// TickerList publishes the tickers (and optionally investor usernames)
// referenced by the answer.
func (p *Publisher) TickerList(tickers, usernames []string) error {
	return p.publish(KindTickerList, TickerListPayload{
		Kind:      KindTickerList,
		TurnID:    p.turnID,
		Tickers:   tickers,
		Usernames: usernames,
	})
}

// FollowUpQuestions publishes suggested follow-up questions.
func (p *Publisher) FollowUpQuestions(questions []string) error {
	return p.publish(KindFollowUpQuestions, FollowUpQuestionsPayload{
		Kind:      KindFollowUpQuestions,
		TurnID:    p.turnID,
		Questions: questions,
	})
}

// Error publishes the terminal error fragment. Subsequent publishes on this
// Publisher become no-ops.
func (p *Publisher) Error(code, message string) error {
	return p.publish(KindError, ErrorPayload{
		Kind:    KindError,
		TurnID:  p.turnID,
		Code:    code,
		Message: message,
	})
}

// Done publishes the terminal done fragment. Subsequent publishes on this
// Publisher become no-ops.
func (p *Publisher) Done(payload DonePayload) error {
	payload.Kind = KindDone
	payload.TurnID = p.turnID
	return p.publish(KindDone, payload)
}

// Terminated reports whether a terminal fragment has been published.
func (p *Publisher) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminal
}

// CapturePublisher is a FrameWriter that records frames in order. It is the
// test double used across the agent packages.
type CapturePublisher struct {
	mu     sync.Mutex
	frames []CapturedFrame
}

// CapturedFrame is one recorded fragment.
type CapturedFrame struct {
	Kind string
	Data []byte
}

// WriteFrame implements FrameWriter.
func (c *CapturePublisher) WriteFrame(kind string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	c.frames = append(c.frames, CapturedFrame{Kind: kind, Data: cp})
	return nil
}

// Frames returns a snapshot of the recorded fragments.
func (c *CapturePublisher) Frames() []CapturedFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CapturedFrame, len(c.frames))
	copy(out, c.frames)
	return out
}

// Kinds returns just the fragment kinds, in publish order.
func (c *CapturePublisher) Kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]string, len(c.frames))
	for i, f := range c.frames {
		kinds[i] = f.Kind
	}
	return kinds
}
