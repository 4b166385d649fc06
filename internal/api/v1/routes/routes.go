// Package routes mounts the v1 API.
package routes

import (
	"github.com/gin-gonic/gin"

	"voicepipe/internal/api/middleware"
	"voicepipe/internal/api/v1/handlers"
	"voicepipe/internal/api/v1/services"
)

// ServiceContainer bundles everything the v1 routes need.
type ServiceContainer struct {
	Transcription services.TranscriptionService
	Analysis      services.AnalysisService
	Sync          services.SyncService
	OAuth         services.OAuthService
	Recordings    services.RecordingService
	Users         middleware.UserResolver
}

// Register mounts the v1 routes under /api/v1. Every route requires a
// bearer credential.
func Register(router *gin.Engine, c *ServiceContainer) {
	transcription := handlers.NewTranscriptionHandler(c.Transcription)
	analysis := handlers.NewAnalysisHandler(c.Analysis)
	sync := handlers.NewSyncHandler(c.Sync, c.Recordings)
	oauth := handlers.NewOAuthHandler(c.OAuth)
	recordings := handlers.NewRecordingHandler(c.Recordings)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.BearerAuth(c.Users))
	{
		v1.POST("/transcribe", transcription.Transcribe)
		v1.POST("/analyze", analysis.Analyze)
		v1.POST("/sync/salesforce", sync.Sync)
		v1.GET("/sync/logs", sync.Logs)

		v1.GET("/recordings/:id", recordings.Get)
		v1.GET("/recordings/:id/sync-logs", recordings.SyncLogs)

		v1.POST("/oauth/:provider/authorize", oauth.Authorize)
		v1.POST("/oauth/:provider/exchange", oauth.Exchange)
		v1.POST("/oauth/:provider/refresh", oauth.Refresh)
		v1.GET("/oauth/:provider", oauth.Connection)
		v1.DELETE("/oauth/:provider", oauth.Disconnect)
	}
}
