package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voicepipe/internal/api/middleware"
	"voicepipe/internal/api/v1/dto"
	"voicepipe/internal/api/v1/services"
)

// AnalysisHandler exposes the analysis stage.
type AnalysisHandler struct {
	service services.AnalysisService
}

// NewAnalysisHandler creates an analysis handler.
func NewAnalysisHandler(service services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// Analyze handles POST /api/v1/analyze.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp, err := h.service.Analyze(c.Request.Context(), &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
