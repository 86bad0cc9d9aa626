package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/takrit/linerelay/internal/models"
	"github.com/takrit/linerelay/internal/services"
)

// HistoryHandler exposes the persisted chat log for operators. These routes
// are debug surface, not end-user API.
type HistoryHandler struct {
	svc services.HistoryService
}

func NewHistoryHandler(svc services.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

func (h *HistoryHandler) Get(c *gin.Context) {
	sessionID := c.Param("session_id")

	msgs, err := h.svc.Messages(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"messages":   msgs,
	})
}

func (h *HistoryHandler) Clear(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := h.svc.Clear(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
