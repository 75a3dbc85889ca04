package trace

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink records events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestTurnSpanLifecycle(t *testing.T) {
	sink := &captureSink{}
	turn := NewTurn("turn-1", sink)

	span := turn.StartSpan("classification", map[string]any{"model": "gpt-4o"})
	child := span.StartChild("llm_call", nil)
	child.End(map[string]any{"total_tokens": 120})
	span.End(nil)
	turn.Close()

	events := sink.snapshot()
	require.Len(t, events, 4)

	assert.Equal(t, "classification", events[0].Name)
	assert.Equal(t, PhaseBegin, events[0].Phase)
	assert.Equal(t, "turn-1", events[0].TurnID)

	assert.Equal(t, "llm_call", events[1].Name)
	assert.Equal(t, events[0].SpanID, events[1].ParentID)

	assert.Equal(t, PhaseEnd, events[2].Phase)
	assert.Equal(t, "llm_call", events[2].Name)

	assert.Equal(t, PhaseEnd, events[3].Phase)
	assert.Equal(t, "classification", events[3].Name)
}

// A full buffer must drop events, never block the caller.
func TestTurnDropsWhenSinkStalls(t *testing.T) {
	block := make(chan struct{})
	turn := NewTurn("turn-2", blockingSink{block})

	for i := 0; i < 1000; i++ {
		turn.StartSpan("noisy", nil).End(nil)
	}
	close(block)
	turn.Close()
}

type blockingSink struct{ block chan struct{} }

func (s blockingSink) Record(Event) { <-s.block }
