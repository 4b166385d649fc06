package repository

import (
	"context"
	"errors"

	"voicepipe/internal/app/model"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrStatusConflict is returned when a status update would move a recording
// backwards through the pipeline.
var ErrStatusConflict = errors.New("status transition not allowed")

// RecordingDAO reads and advances recording rows. The pipeline never
// deletes them.
type RecordingDAO interface {
	Insert(ctx context.Context, r *model.Recording) error
	GetByID(ctx context.Context, id string) (*model.Recording, error)
	// UpdateStatus advances the status and stores an optional error message.
	// Implementations enforce monotonicity: regressions other than a jump to
	// failed return ErrStatusConflict.
	UpdateStatus(ctx context.Context, id string, status model.RecordingStatus, errorMessage string) error
}

// TranscriptDAO stores speech-to-text output, one active transcript per
// recording.
type TranscriptDAO interface {
	Insert(ctx context.Context, t *model.Transcript) error
	GetByID(ctx context.Context, id string) (*model.Transcript, error)
	GetByRecordingID(ctx context.Context, recordingID string) (*model.Transcript, error)
}

// AnalysisDAO stores extraction results, one per transcript.
type AnalysisDAO interface {
	Insert(ctx context.Context, a *model.AnalysisResult) error
	GetByID(ctx context.Context, id string) (*model.AnalysisResult, error)
}

// SyncLogDAO appends sync attempt outcomes. Rows are never updated in
// place; every retry is a new row.
type SyncLogDAO interface {
	Insert(ctx context.Context, l *model.SyncLog) error
	ListByRecording(ctx context.Context, recordingID string) ([]model.SyncLog, error)
	ListAll(ctx context.Context) ([]model.SyncLog, error)
}

// UserDAO resolves users and manages the CRM credential embedded in their
// profile.
type UserDAO interface {
	Insert(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByAPIToken(ctx context.Context, token string) (*model.User, error)
	// SaveCRMCredential writes the whole credential atomically; there are no
	// partial credential writes.
	SaveCRMCredential(ctx context.Context, userID string, cred model.CRMCredential) error
	ClearCRMCredential(ctx context.Context, userID string) error
}

// Store bundles the DAOs behind one backend connection.
type Store interface {
	Recordings() RecordingDAO
	Transcripts() TranscriptDAO
	Analyses() AnalysisDAO
	SyncLogs() SyncLogDAO
	Users() UserDAO
	Close() error
}
