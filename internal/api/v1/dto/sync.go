package dto

import (
	"voicepipe/internal/api/errors"
	"voicepipe/internal/app/model"
)

// SyncRequest invokes the CRM sync stage for one analysis.
type SyncRequest struct {
	AnalysisID  string `json:"analysisId" binding:"required"`
	RecordingID string `json:"recordingId" binding:"required"`
}

// Validate performs domain-specific validation.
func (r *SyncRequest) Validate() error {
	validationErrors := make(map[string]string)

	if r.AnalysisID == "" {
		validationErrors["analysisId"] = "analysis id is required"
	}
	if r.RecordingID == "" {
		validationErrors["recordingId"] = "recording id is required"
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Invalid sync request", validationErrors)
	}
	return nil
}

// SyncCounts summarizes items written to the CRM.
type SyncCounts struct {
	Contacts int `json:"contacts"`
	Tasks    int `json:"tasks"`
}

// SyncResponse reports the outcome of one sync attempt.
type SyncResponse struct {
	Success bool             `json:"success"`
	Status  model.SyncStatus `json:"status"`
	Synced  SyncCounts       `json:"synced"`
	Errors  []string         `json:"errors,omitempty"`
}

// SyncLogResponse is one row of the sync audit trail.
type SyncLogResponse struct {
	ID             string           `json:"id"`
	RecordingID    string           `json:"recordingId"`
	Provider       string           `json:"provider"`
	Status         model.SyncStatus `json:"status"`
	ContactsSynced int              `json:"contactsSynced"`
	TasksSynced    int              `json:"tasksSynced"`
	RemoteIDs      []string         `json:"remoteIds,omitempty"`
	ErrorMessage   string           `json:"errorMessage,omitempty"`
	CreatedAt      string           `json:"createdAt"`
}
