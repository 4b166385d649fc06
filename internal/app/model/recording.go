package model

import "time"

// RecordingStatus tracks a recording through the pipeline.
type RecordingStatus string

const (
	// StatusCompleted means the upload finished; nothing has processed it yet.
	StatusCompleted    RecordingStatus = "completed"
	StatusTranscribing RecordingStatus = "transcribing"
	StatusTranscribed  RecordingStatus = "transcribed"
	StatusAnalyzing    RecordingStatus = "analyzing"
	StatusAnalyzed     RecordingStatus = "analyzed"
	StatusSynced       RecordingStatus = "synced"
	StatusFailed       RecordingStatus = "failed"
)

// statusRank orders the forward walk through the pipeline. Failed is
// terminal and reachable from anywhere.
var statusRank = map[RecordingStatus]int{
	StatusCompleted:    0,
	StatusTranscribing: 1,
	StatusTranscribed:  2,
	StatusAnalyzing:    3,
	StatusAnalyzed:     4,
	StatusSynced:       5,
}

// ValidStatus reports whether s is a known recording status.
func ValidStatus(s RecordingStatus) bool {
	if s == StatusFailed {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether a recording may move from one status to
// another. Statuses only ever advance; the single exception is a jump to
// failed from any non-terminal state.
func CanTransition(from, to RecordingStatus) bool {
	if from == StatusFailed {
		return false
	}
	if to == StatusFailed {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// Recording is one captured audio clip. The pipeline only ever advances its
// status; rows are never deleted here (soft delete belongs to the owning
// backend).
type Recording struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	StoragePath  string          `json:"storage_path"`
	Duration     float64         `json:"duration"`
	FileSize     int64           `json:"file_size"`
	MimeType     string          `json:"mime_type"`
	Status       RecordingStatus `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
