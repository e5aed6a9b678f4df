// Package server exposes the REST API: item CRUD, stats and the
// conversation endpoints driving the slot-filling workflows.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/apperr"
	"github.com/xaenox/dayflow/internal/email"
	"github.com/xaenox/dayflow/internal/storage"
	"github.com/xaenox/dayflow/internal/workflow"
)

const Version = "0.3.0"

type Server struct {
	store    storage.Storage
	sessions *workflow.Manager
	pipeline *email.Pipeline // nil when no email source is configured
	logger   *zap.Logger
	now      func() time.Time
}

func New(store storage.Storage, sessions *workflow.Manager, pipeline *email.Pipeline, logger *zap.Logger, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	return &Server{store: store, sessions: sessions, pipeline: pipeline, logger: logger, now: now}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)

	router.GET("/items", s.handleListItems)
	router.POST("/items", s.handleCreateItem)
	router.GET("/items/:id", s.handleGetItem)
	router.PATCH("/items/:id", s.handleUpdateItem)
	router.DELETE("/items/:id", s.handleDeleteItem)

	router.GET("/stats/summary", s.handleStats)

	router.POST("/conversations", s.handleStartConversation)
	router.POST("/conversations/:id/messages", s.handleConversationMessage)

	router.POST("/emails/scan", s.handleEmailScan)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
}

// fail renders the structured error response for an apperr kind.
func (s *Server) fail(c *gin.Context, err error) {
	status := apperr.StatusOf(err)
	if status >= 500 {
		s.logger.Error("Request failed",
			zap.Error(err),
			zap.String("path", c.FullPath()))
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"kind":  string(apperr.KindOf(err)),
	})
}
