package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voicepipe/internal/api/errors"
	"voicepipe/internal/api/middleware"
	"voicepipe/internal/api/v1/dto"
	"voicepipe/internal/api/v1/services"
)

// OAuthHandler exposes CRM connection management. All routes require the
// authenticated caller; the connection is always theirs.
type OAuthHandler struct {
	service services.OAuthService
}

// NewOAuthHandler creates an OAuth handler.
func NewOAuthHandler(service services.OAuthService) *OAuthHandler {
	return &OAuthHandler{service: service}
}

func (h *OAuthHandler) caller(c *gin.Context) (*gin.Context, bool) {
	if middleware.AuthenticatedUser(c) == nil {
		middleware.HandleError(c, errors.NewUnauthorizedError("Authentication required"))
		return c, false
	}
	return c, true
}

// Authorize handles POST /api/v1/oauth/:provider/authorize.
func (h *OAuthHandler) Authorize(c *gin.Context) {
	if _, ok := h.caller(c); !ok {
		return
	}

	var req dto.AuthorizeRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp, err := h.service.Authorize(c.Request.Context(), middleware.AuthenticatedUser(c), c.Param("provider"), &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Exchange handles POST /api/v1/oauth/:provider/exchange.
func (h *OAuthHandler) Exchange(c *gin.Context) {
	if _, ok := h.caller(c); !ok {
		return
	}

	var req dto.ExchangeRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp, err := h.service.Exchange(c.Request.Context(), middleware.AuthenticatedUser(c), c.Param("provider"), &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /api/v1/oauth/:provider/refresh.
func (h *OAuthHandler) Refresh(c *gin.Context) {
	if _, ok := h.caller(c); !ok {
		return
	}

	if err := h.service.Refresh(c.Request.Context(), middleware.AuthenticatedUser(c), c.Param("provider")); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Disconnect handles DELETE /api/v1/oauth/:provider.
func (h *OAuthHandler) Disconnect(c *gin.Context) {
	if _, ok := h.caller(c); !ok {
		return
	}

	if err := h.service.Disconnect(c.Request.Context(), middleware.AuthenticatedUser(c), c.Param("provider")); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Connection handles GET /api/v1/oauth/:provider.
func (h *OAuthHandler) Connection(c *gin.Context) {
	if _, ok := h.caller(c); !ok {
		return
	}

	c.JSON(http.StatusOK, h.service.Connection(middleware.AuthenticatedUser(c), c.Param("provider")))
}
