package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"voicepipe/internal/api/errors"
	"voicepipe/internal/api/middleware"
	"voicepipe/internal/api/v1/dto"
	"voicepipe/internal/api/v1/services"
)

// SyncHandler exposes the CRM sync stage and its audit trail.
type SyncHandler struct {
	service    services.SyncService
	recordings services.RecordingService
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(service services.SyncService, recordings services.RecordingService) *SyncHandler {
	return &SyncHandler{service: service, recordings: recordings}
}

// Sync handles POST /api/v1/sync/salesforce. The CRM credential belongs to
// the authenticated caller; the request only names what to sync.
func (h *SyncHandler) Sync(c *gin.Context) {
	var req dto.SyncRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	user := middleware.AuthenticatedUser(c)
	if user == nil {
		middleware.HandleError(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}

	resp, err := h.service.Sync(c.Request.Context(), user, &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logs handles GET /api/v1/sync/logs?limit=N.
func (h *SyncHandler) Logs(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			middleware.HandleError(c, errors.NewBadRequestError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	logs, err := h.recordings.AllSyncLogs(c.Request.Context(), limit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
