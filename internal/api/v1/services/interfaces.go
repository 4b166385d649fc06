// Package services wires the pipeline stages behind the HTTP handlers.
package services

import (
	"context"

	"voicepipe/internal/api/v1/dto"
	"voicepipe/internal/app/model"
)

// TranscriptionService turns an uploaded audio file into a transcript.
type TranscriptionService interface {
	Transcribe(ctx context.Context, req *dto.TranscribeRequest) (*dto.TranscribeResponse, error)
}

// AnalysisService extracts structured CRM data from a transcript.
type AnalysisService interface {
	Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error)
}

// SyncService pushes an analysis into the connected CRM.
type SyncService interface {
	Sync(ctx context.Context, user *model.User, req *dto.SyncRequest) (*dto.SyncResponse, error)
}

// OAuthService manages CRM connections for a user.
type OAuthService interface {
	Authorize(ctx context.Context, user *model.User, provider string, req *dto.AuthorizeRequest) (*dto.AuthorizeResponse, error)
	Exchange(ctx context.Context, user *model.User, provider string, req *dto.ExchangeRequest) (*dto.ExchangeResponse, error)
	Refresh(ctx context.Context, user *model.User, provider string) error
	Disconnect(ctx context.Context, user *model.User, provider string) error
	Connection(user *model.User, provider string) *dto.ConnectionResponse
}

// RecordingService serves read views of recordings and their sync history.
type RecordingService interface {
	Get(ctx context.Context, id string) (*dto.RecordingResponse, error)
	SyncLogs(ctx context.Context, recordingID string) ([]dto.SyncLogResponse, error)
	AllSyncLogs(ctx context.Context, limit int) ([]dto.SyncLogResponse, error)
}
