package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// sseWriter frames fragments as server-sent events on the response stream.
// Writes are serialized; a failed write marks the client gone and all later
// writes become no-ops.
type sseWriter struct {
	mu      sync.Mutex
	writer  gin.ResponseWriter
	flusher http.Flusher
	gone    bool
}

func newSSEWriter(w gin.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	return &sseWriter{writer: w, flusher: flusher}, nil
}

// WriteFrame emits one SSE event: the fragment kind as the event name, the
// JSON payload as data.
func (w *sseWriter) WriteFrame(kind string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gone {
		return fmt.Errorf("client disconnected")
	}
	if _, err := fmt.Fprintf(w.writer, "event: %s\ndata: %s\n\n", kind, data); err != nil {
		w.gone = true
		return fmt.Errorf("failed to write sse frame: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// CreateTurn handles POST /api/chat/turns: binds the turn request and
// streams the turn's fragments as server-sent events. The connection stays
// open until the turn reaches a terminal fragment or the client aborts.
func (s *Server) CreateTurn(c *gin.Context) {
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	writer, err := newSSEWriter(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	writer.flusher.Flush()

	// The request context is cancelled when the client disconnects; the
	// pipeline stops emitting fragments and lets in-flight calls wind down.
	if err := s.pipeline.Run(c.Request.Context(), req.toModel(), writer); err != nil {
		slog.Debug("turn ended with error", "conversation_id", req.ConversationID, "error", err)
	}
}
