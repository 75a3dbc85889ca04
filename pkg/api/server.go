// Package api exposes the HTTP transport: the chat-turn SSE endpoint and
// the health check.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketmind/marketmind/pkg/database"
	"github.com/marketmind/marketmind/pkg/events"
	"github.com/marketmind/marketmind/pkg/models"
)

// TurnRunner executes one chat turn, streaming fragments to the writer.
type TurnRunner interface {
	Run(ctx context.Context, req models.TurnRequest, w events.FrameWriter) error
}

// HealthChecker reports evidence-store connectivity.
type HealthChecker interface {
	Health(ctx context.Context) (*database.HealthStatus, error)
}

// Server is the HTTP API server.
type Server struct {
	pipeline TurnRunner
	db       HealthChecker
}

// NewServer creates the API server.
func NewServer(pipeline TurnRunner, db HealthChecker) *Server {
	return &Server{pipeline: pipeline, db: db}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.Health)
	router.POST("/api/chat/turns", s.CreateTurn)
	return router
}

// Health handles GET /health with a bounded database ping.
func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := s.db.Health(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": status,
			"error":    err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": status,
	})
}
