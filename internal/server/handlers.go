package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xaenox/dayflow/internal/apperr"
	"github.com/xaenox/dayflow/internal/models"
	"github.com/xaenox/dayflow/internal/workflow"
)

func (s *Server) handleListItems(c *gin.Context) {
	filter := models.ListFilter{
		Status:   models.Status(c.Query("status")),
		Source:   models.Source(c.Query("source")),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Search:   c.Query("search"),
	}
	for _, t := range c.QueryArray("type") {
		filter.Types = append(filter.Types, models.ItemType(t))
	}

	var err error
	if raw := c.Query("limit"); raw != "" {
		if filter.Limit, err = strconv.Atoi(raw); err != nil {
			s.fail(c, apperr.InvalidInput("limit", "limit must be an integer"))
			return
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if filter.Offset, err = strconv.Atoi(raw); err != nil {
			s.fail(c, apperr.InvalidInput("offset", "offset must be an integer"))
			return
		}
	}

	items, total, err := s.store.ListItems(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}

	today := s.now().Format("2006-01-02")
	for _, item := range items {
		s.deriveOverdue(item, today)
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// deriveOverdue reports stale upcoming items as overdue without persisting
// the transition; overdue is a read-side derivation.
func (s *Server) deriveOverdue(item *models.Item, today string) {
	if item.IsOverdue(today) {
		item.Status = models.StatusOverdue
	}
}

func (s *Server) handleGetItem(c *gin.Context) {
	item, err := s.store.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.deriveOverdue(item, s.now().Format("2006-01-02"))
	c.JSON(http.StatusOK, item)
}

func (s *Server) handleCreateItem(c *gin.Context) {
	var draft models.Item
	if err := c.ShouldBindJSON(&draft); err != nil {
		s.fail(c, apperr.InvalidInput("", "invalid item payload: "+err.Error()))
		return
	}

	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	if draft.Status == "" {
		draft.Status = models.StatusUpcoming
	}
	if draft.Source == "" {
		draft.Source = models.SourceManual
	}
	if draft.Date == "" {
		draft.Date = s.now().Format("2006-01-02")
	}

	if err := s.store.CreateItem(c.Request.Context(), &draft); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, &draft)
}

func (s *Server) handleUpdateItem(c *gin.Context) {
	var patch models.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.fail(c, apperr.InvalidInput("", "invalid patch payload: "+err.Error()))
		return
	}

	item, err := s.store.UpdateItem(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	if err := s.store.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.ItemStats(c.Request.Context(), s.now().Format("2006-01-02"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type startConversationRequest struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type conversationMessageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleStartConversation(c *gin.Context) {
	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.InvalidInput("", "invalid conversation payload: "+err.Error()))
		return
	}

	result, err := s.sessions.Start(c.Request.Context(), workflow.Kind(req.Kind), req.Message)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.persistResult(c, result); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Server) handleConversationMessage(c *gin.Context) {
	var req conversationMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.InvalidInput("", "invalid message payload: "+err.Error()))
		return
	}

	result, err := s.sessions.Message(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.persistResult(c, result); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// persistResult stores the item produced by a completed dialog.
func (s *Server) persistResult(c *gin.Context, result *workflow.Result) error {
	if result.Item == nil {
		return nil
	}
	return s.store.CreateItem(c.Request.Context(), result.Item)
}

func (s *Server) handleEmailScan(c *gin.Context) {
	if s.pipeline == nil {
		s.fail(c, apperr.InvalidInput("", "email source not configured"))
		return
	}

	// max falls back to the pipeline's configured batch size
	max := 0
	if raw := c.Query("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.fail(c, apperr.InvalidInput("max", "max must be a positive integer"))
			return
		}
		max = n
	}

	report, err := s.pipeline.Run(c.Request.Context(), max)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
