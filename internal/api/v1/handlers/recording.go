package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voicepipe/internal/api/errors"
	"voicepipe/internal/api/middleware"
	"voicepipe/internal/api/v1/services"
)

// RecordingHandler exposes read views of pipeline state.
type RecordingHandler struct {
	service services.RecordingService
}

// NewRecordingHandler creates a recording handler.
func NewRecordingHandler(service services.RecordingService) *RecordingHandler {
	return &RecordingHandler{service: service}
}

// Get handles GET /api/v1/recordings/:id. Callers only see their own
// recordings.
func (h *RecordingHandler) Get(c *gin.Context) {
	user := middleware.AuthenticatedUser(c)
	if user == nil {
		middleware.HandleError(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}

	rec, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if rec.UserID != user.ID {
		middleware.HandleError(c, errors.NewNotFoundError("recording"))
		return
	}

	c.JSON(http.StatusOK, rec)
}

// SyncLogs handles GET /api/v1/recordings/:id/sync-logs.
func (h *RecordingHandler) SyncLogs(c *gin.Context) {
	user := middleware.AuthenticatedUser(c)
	if user == nil {
		middleware.HandleError(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}

	rec, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if rec.UserID != user.ID {
		middleware.HandleError(c, errors.NewNotFoundError("recording"))
		return
	}

	logs, err := h.service.SyncLogs(c.Request.Context(), rec.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
