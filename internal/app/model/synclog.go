package model

import "time"

// SyncStatus classifies the outcome of one CRM sync attempt.
type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncSkipped   SyncStatus = "skipped"
	SyncPartial   SyncStatus = "partial"
	SyncCompleted SyncStatus = "completed"
	SyncFailed    SyncStatus = "failed"
)

// ClassifySync maps success/failure counts onto an outcome. Completed means
// zero failures, failed means zero successes with work attempted, anything
// in between is partial. Nothing attempted at all is skipped.
func ClassifySync(succeeded, failed int) SyncStatus {
	switch {
	case succeeded == 0 && failed == 0:
		return SyncSkipped
	case failed == 0:
		return SyncCompleted
	case succeeded == 0:
		return SyncFailed
	default:
		return SyncPartial
	}
}

// SyncLog is one row per sync attempt. Rows are append-only: a retry writes
// a new row rather than updating an old one, so the table is a full audit
// trail.
type SyncLog struct {
	ID             string     `json:"id"`
	RecordingID    string     `json:"recording_id"`
	AnalysisID     string     `json:"analysis_id"`
	UserID         string     `json:"user_id"`
	Provider       string     `json:"provider"`
	Status         SyncStatus `json:"status"`
	ContactsSynced int        `json:"contacts_synced"`
	TasksSynced    int        `json:"tasks_synced"`
	RemoteIDs      []string   `json:"remote_ids,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
