package services

import (
	"context"
	"errors"
	"time"

	apiErrors "voicepipe/internal/api/errors"
	"voicepipe/internal/api/v1/dto"
	"voicepipe/internal/app/model"
	"voicepipe/internal/app/repository"
)

// RecordingServiceImpl serves read views over the pipeline's state.
type RecordingServiceImpl struct {
	store repository.Store
}

// NewRecordingService creates a recording read service.
func NewRecordingService(store repository.Store) *RecordingServiceImpl {
	return &RecordingServiceImpl{store: store}
}

// Get returns one recording's current pipeline state.
func (s *RecordingServiceImpl) Get(ctx context.Context, id string) (*dto.RecordingResponse, error) {
	rec, err := s.store.Recordings().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apiErrors.NewNotFoundError("recording")
		}
		return nil, apiErrors.NewInternalError("failed to load recording")
	}
	return &dto.RecordingResponse{
		ID:            rec.ID,
		UserID:        rec.UserID,
		AudioFilePath: rec.StoragePath,
		Status:        rec.Status,
		ErrorMessage:  rec.ErrorMessage,
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     rec.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// SyncLogs returns the full sync audit trail for one recording, newest
// first.
func (s *RecordingServiceImpl) SyncLogs(ctx context.Context, recordingID string) ([]dto.SyncLogResponse, error) {
	logs, err := s.store.SyncLogs().ListByRecording(ctx, recordingID)
	if err != nil {
		return nil, apiErrors.NewInternalError("failed to load sync logs")
	}
	return toSyncLogResponses(logs), nil
}

// AllSyncLogs returns the most recent sync attempts across all recordings.
func (s *RecordingServiceImpl) AllSyncLogs(ctx context.Context, limit int) ([]dto.SyncLogResponse, error) {
	logs, err := s.store.SyncLogs().ListAll(ctx)
	if err != nil {
		return nil, apiErrors.NewInternalError("failed to load sync logs")
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return toSyncLogResponses(logs), nil
}

func toSyncLogResponses(logs []model.SyncLog) []dto.SyncLogResponse {
	out := make([]dto.SyncLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.SyncLogResponse{
			ID:             l.ID,
			RecordingID:    l.RecordingID,
			Provider:       l.Provider,
			Status:         l.Status,
			ContactsSynced: l.ContactsSynced,
			TasksSynced:    l.TasksSynced,
			RemoteIDs:      l.RemoteIDs,
			ErrorMessage:   l.ErrorMessage,
			CreatedAt:      l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
