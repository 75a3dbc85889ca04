// Package trace emits begin/end telemetry events for model calls and
// pipeline sub-spans. Tracing is fire-and-forget: a slow or broken sink
// drops events rather than blocking the pipeline. The tracing context is
// an explicit value created at turn start and closed at turn end, never a
// process-wide singleton, so concurrent turns cannot leak into each other.
package trace

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Phase marks whether an event opens or closes a span.
type Phase string

const (
	PhaseBegin Phase = "begin"
	PhaseEnd   Phase = "end"
)

// Event is one telemetry record.
type Event struct {
	TurnID   string
	SpanID   string
	ParentID string
	Name     string
	Phase    Phase
	At       time.Time
	Metadata map[string]any
}

// Sink receives telemetry events. Implementations must be cheap; the
// pipeline will not wait for them.
type Sink interface {
	Record(Event)
}

// Turn is the tracing context for one chat turn.
type Turn struct {
	id     string
	events chan Event
	done   chan struct{}
}

// NewTurn creates a tracing context delivering events to sink from a
// dedicated goroutine. Close must be called at turn end.
func NewTurn(turnID string, sink Sink) *Turn {
	t := &Turn{
		id:     turnID,
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		for ev := range t.events {
			sink.Record(ev)
		}
	}()
	return t
}

// ID returns the turn identifier.
func (t *Turn) ID() string { return t.id }

// Close stops the delivery goroutine after draining buffered events.
func (t *Turn) Close() {
	close(t.events)
	<-t.done
}

// record enqueues an event, dropping it if the buffer is full.
func (t *Turn) record(ev Event) {
	select {
	case t.events <- ev:
	default:
	}
}

// Span is one traced operation within a turn.
type Span struct {
	turn     *Turn
	id       string
	parentID string
	name     string
}

// StartSpan opens a span and emits its begin event.
func (t *Turn) StartSpan(name string, metadata map[string]any) *Span {
	s := &Span{
		turn: t,
		id:   uuid.NewString(),
		name: name,
	}
	t.record(Event{
		TurnID:   t.id,
		SpanID:   s.id,
		Name:     name,
		Phase:    PhaseBegin,
		At:       time.Now(),
		Metadata: metadata,
	})
	return s
}

// StartChild opens a nested span.
func (s *Span) StartChild(name string, metadata map[string]any) *Span {
	child := &Span{
		turn:     s.turn,
		id:       uuid.NewString(),
		parentID: s.id,
		name:     name,
	}
	s.turn.record(Event{
		TurnID:   s.turn.id,
		SpanID:   child.id,
		ParentID: s.id,
		Name:     name,
		Phase:    PhaseBegin,
		At:       time.Now(),
		Metadata: metadata,
	})
	return child
}

// End closes the span with optional output/usage metadata.
func (s *Span) End(metadata map[string]any) {
	s.turn.record(Event{
		TurnID:   s.turn.id,
		SpanID:   s.id,
		ParentID: s.parentID,
		Name:     s.name,
		Phase:    PhaseEnd,
		At:       time.Now(),
		Metadata: metadata,
	})
}

// LogSink writes events as structured debug logs. The default sink when no
// telemetry backend is configured.
type LogSink struct{}

// Record implements Sink.
func (LogSink) Record(ev Event) {
	slog.Debug("trace event",
		"turn_id", ev.TurnID,
		"span_id", ev.SpanID,
		"parent_id", ev.ParentID,
		"name", ev.Name,
		"phase", ev.Phase,
		"metadata", ev.Metadata)
}
