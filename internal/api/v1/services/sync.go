package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apiErrors "voicepipe/internal/api/errors"
	"voicepipe/internal/api/v1/dto"
	"voicepipe/internal/app/crm"
	"voicepipe/internal/app/metrics"
	"voicepipe/internal/app/model"
	"voicepipe/internal/app/repository"
)

// SyncServiceImpl runs the CRM sync stage: push contacts and follow-up
// tasks from an analysis into the user's connected CRM and append exactly
// one audit row per attempt.
type SyncServiceImpl struct {
	store    repository.Store
	registry *crm.Registry
	logger   *slog.Logger
}

// NewSyncService creates a sync service over the registered CRM providers.
func NewSyncService(store repository.Store, registry *crm.Registry, logger *slog.Logger) *SyncServiceImpl {
	return &SyncServiceImpl{store: store, registry: registry, logger: logger}
}

// Sync pushes one analysis to the CRM. Item-level failures are collected
// and the attempt is classified as completed, partial, failed or skipped;
// a credential-level failure fails the whole attempt before any item is
// tried. Every invocation writes exactly one sync log row.
func (s *SyncServiceImpl) Sync(ctx context.Context, user *model.User, req *dto.SyncRequest) (*dto.SyncResponse, error) {
	start := time.Now()
	var stageErr error
	defer func() { metrics.ObserveStage("sync", start, stageErr) }()

	analysis, err := s.store.Analyses().GetByID(ctx, req.AnalysisID)
	if err != nil {
		stageErr = err
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apiErrors.NewNotFoundError("analysis")
		}
		return nil, apiErrors.NewInternalError("failed to load analysis")
	}
	if analysis.RecordingID != req.RecordingID {
		stageErr = errors.New("analysis does not belong to recording")
		return nil, apiErrors.NewBadRequestError("analysis does not belong to the given recording")
	}

	if !user.CRM.Connected {
		s.logger.Info("sync skipped, no CRM connected", "recording_id", req.RecordingID, "user_id", user.ID)
		s.appendLog(ctx, user, req, analysis, model.SyncSkipped, 0, 0, nil, "no CRM connection configured")
		return &dto.SyncResponse{Success: true, Status: model.SyncSkipped}, nil
	}

	provider, err := s.registry.Get(user.CRM.Provider)
	if err != nil {
		stageErr = err
		msg := fmt.Sprintf("CRM provider %q is not supported", user.CRM.Provider)
		s.appendLog(ctx, user, req, analysis, model.SyncFailed, 0, 0, nil, msg)
		metrics.ObserveSyncOutcome(string(model.SyncFailed))
		return nil, apiErrors.NewBadRequestError(msg)
	}

	if err := provider.Validate(user.CRM); err != nil {
		stageErr = err
		msg := "CRM credential is not usable: " + err.Error()
		s.appendLog(ctx, user, req, analysis, model.SyncFailed, 0, 0, nil, msg)
		metrics.ObserveSyncOutcome(string(model.SyncFailed))
		return nil, apiErrors.NewUnauthorizedError(msg)
	}

	var (
		remoteIDs      []string
		itemErrors     []string
		contactsSynced int
		tasksSynced    int
		firstContactID string
	)

	for _, contact := range analysis.Contacts {
		result, err := provider.UpsertContact(ctx, user.CRM, contact)
		if err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("contact %q: %v", contact.Name, err))
			continue
		}
		contactsSynced++
		remoteIDs = append(remoteIDs, result.RemoteID)
		if firstContactID == "" {
			firstContactID = result.RemoteID
		}
	}

	for _, item := range analysis.ActionItems {
		taskID, err := provider.CreateTask(ctx, user.CRM, item, firstContactID)
		if err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("task %q: %v", item.Task, err))
			continue
		}
		tasksSynced++
		remoteIDs = append(remoteIDs, taskID)
	}

	status := model.ClassifySync(contactsSynced+tasksSynced, len(itemErrors))
	s.appendLog(ctx, user, req, analysis, status, contactsSynced, tasksSynced, remoteIDs, strings.Join(itemErrors, "; "))
	metrics.ObserveSyncOutcome(string(status))

	// Only a fully clean attempt advances the recording; partial syncs stay
	// at analyzed so a retry is still possible.
	if status == model.SyncCompleted {
		if err := s.store.Recordings().UpdateStatus(ctx, req.RecordingID, model.StatusSynced, ""); err != nil {
			s.logger.Error("failed to mark recording synced", "recording_id", req.RecordingID, "error", err)
		}
	}

	if status == model.SyncFailed {
		stageErr = fmt.Errorf("all %d items failed", len(itemErrors))
	}

	s.logger.Info("sync attempt finished",
		"recording_id", req.RecordingID,
		"provider", provider.Name(),
		"status", status,
		"contacts_synced", contactsSynced,
		"tasks_synced", tasksSynced,
		"errors", len(itemErrors))

	return &dto.SyncResponse{
		Success: status != model.SyncFailed,
		Status:  status,
		Synced:  dto.SyncCounts{Contacts: contactsSynced, Tasks: tasksSynced},
		Errors:  itemErrors,
	}, nil
}

// appendLog writes the single audit row for this attempt. Audit failures
// are logged, never propagated: the CRM writes already happened.
func (s *SyncServiceImpl) appendLog(
	ctx context.Context,
	user *model.User,
	req *dto.SyncRequest,
	analysis *model.AnalysisResult,
	status model.SyncStatus,
	contactsSynced, tasksSynced int,
	remoteIDs []string,
	errorMessage string,
) {
	log := &model.SyncLog{
		ID:             uuid.New().String(),
		RecordingID:    req.RecordingID,
		AnalysisID:     analysis.ID,
		UserID:         user.ID,
		Provider:       user.CRM.Provider,
		Status:         status,
		ContactsSynced: contactsSynced,
		TasksSynced:    tasksSynced,
		RemoteIDs:      remoteIDs,
		ErrorMessage:   errorMessage,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.SyncLogs().Insert(ctx, log); err != nil {
		s.logger.Error("failed to append sync log", "recording_id", req.RecordingID, "error", err)
	}
}
