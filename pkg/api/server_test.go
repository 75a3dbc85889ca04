package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketmind/marketmind/pkg/database"
	"github.com/marketmind/marketmind/pkg/events"
	"github.com/marketmind/marketmind/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakePipeline publishes a canned fragment sequence.
type fakePipeline struct {
	frames  []events.CapturedFrame
	err     error
	lastReq models.TurnRequest
}

func (f *fakePipeline) Run(_ context.Context, req models.TurnRequest, w events.FrameWriter) error {
	f.lastReq = req
	for _, frame := range f.frames {
		if err := w.WriteFrame(frame.Kind, frame.Data); err != nil {
			return err
		}
	}
	return f.err
}

type fakeHealth struct {
	status *database.HealthStatus
	err    error
}

func (f *fakeHealth) Health(context.Context) (*database.HealthStatus, error) {
	return f.status, f.err
}

func TestCreateTurnStreamsSSE(t *testing.T) {
	pipeline := &fakePipeline{frames: []events.CapturedFrame{
		{Kind: events.KindStatusUpdate, Data: []byte(`{"kind":"status_update","stage":"classifying"}`)},
		{Kind: events.KindAnswerDelta, Data: []byte(`{"kind":"answer_delta","delta":"Apple is up."}`)},
		{Kind: events.KindDone, Data: []byte(`{"kind":"done","answer":"Apple is up."}`)},
	}}
	server := NewServer(pipeline, &fakeHealth{})
	router := server.Router()

	body := `{"conversation_id": "conv-1", "message": "how is apple?", "model": "gpt-test", "history": [{"role": "user", "content": "hi"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/turns", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	out := rec.Body.String()
	assert.Contains(t, out, "event: status_update\n")
	assert.Contains(t, out, "event: answer_delta\n")
	assert.Contains(t, out, `data: {"kind":"done","answer":"Apple is up."}`)

	assert.Equal(t, "conv-1", pipeline.lastReq.ConversationID)
	require.Len(t, pipeline.lastReq.History, 1)
	assert.Equal(t, "hi", pipeline.lastReq.History[0].Content)
}

func TestCreateTurnRejectsBadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing message", `{"conversation_id": "conv-1"}`},
		{"missing conversation", `{"message": "hello"}`},
		{"bad history role", `{"conversation_id": "c", "message": "m", "history": [{"role": "system", "content": "x"}]}`},
		{"bad visibility", `{"conversation_id": "c", "message": "m", "visibility": "secret"}`},
		{"not json", `hello`},
	}

	server := NewServer(&fakePipeline{}, &fakeHealth{})
	router := server.Router()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/chat/turns", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateTurnPipelineErrorAfterStreamStart(t *testing.T) {
	// Once streaming has begun, errors surface as fragments, not as an
	// HTTP error status.
	pipeline := &fakePipeline{
		frames: []events.CapturedFrame{
			{Kind: events.KindError, Data: []byte(`{"kind":"error","code":"synthesis_failed"}`)},
		},
		err: errors.New("synthesis failed"),
	}
	server := NewServer(pipeline, &fakeHealth{})
	router := server.Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/turns",
		strings.NewReader(`{"conversation_id": "conv-1", "message": "q"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: error\n")
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := NewServer(&fakePipeline{}, &fakeHealth{status: &database.HealthStatus{Status: "healthy", MaxConns: 10}})
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"healthy"`)
	})

	t.Run("unhealthy", func(t *testing.T) {
		server := NewServer(&fakePipeline{}, &fakeHealth{
			status: &database.HealthStatus{Status: "unhealthy"},
			err:    errors.New("connection refused"),
		})
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")
	})
}
