package services

import (
	"context"
	"fmt"
	"log/slog"

	"voicepipe/internal/api/v1/dto"
	"voicepipe/internal/app/events"
	"voicepipe/internal/app/repository"
)

// Dispatcher routes stage-completion events to the next stage. It is the
// only coupling between stages: the publisher side knows nothing about it.
type Dispatcher struct {
	store    repository.Store
	analysis AnalysisService
	sync     SyncService
	logger   *slog.Logger
}

// NewDispatcher creates the stage router. The stage services are attached
// with Bind after construction: they publish through a transport that needs
// the dispatcher to exist first.
func NewDispatcher(store repository.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, logger: logger}
}

// Bind attaches the downstream stages. Must be called before any event is
// delivered.
func (d *Dispatcher) Bind(analysis AnalysisService, sync SyncService) {
	d.analysis = analysis
	d.sync = sync
}

// Handle runs the stage a completed event calls for. Stage errors are
// returned so a durable transport can count the delivery as failed, but
// they never propagate to the stage that published.
func (d *Dispatcher) Handle(ctx context.Context, e events.Event) error {
	switch e.Type {
	case events.RecordingTranscribed:
		d.logger.Info("dispatching analysis", "recording_id", e.RecordingID, "transcript_id", e.TranscriptID)
		_, err := d.analysis.Analyze(ctx, &dto.AnalyzeRequest{
			TranscriptionID: e.TranscriptID,
			RecordingID:     e.RecordingID,
		})
		return err

	case events.RecordingAnalyzed:
		d.logger.Info("dispatching sync", "recording_id", e.RecordingID, "analysis_id", e.AnalysisID)
		rec, err := d.store.Recordings().GetByID(ctx, e.RecordingID)
		if err != nil {
			return fmt.Errorf("load recording for sync: %w", err)
		}
		user, err := d.store.Users().GetByID(ctx, rec.UserID)
		if err != nil {
			return fmt.Errorf("load owner for sync: %w", err)
		}
		_, err = d.sync.Sync(ctx, user, &dto.SyncRequest{
			AnalysisID:  e.AnalysisID,
			RecordingID: e.RecordingID,
		})
		return err

	default:
		d.logger.Warn("unknown event type", "type", e.Type, "recording_id", e.RecordingID)
		return nil
	}
}
