// Package events carries stage-completion events between pipeline stages.
// Publishing decouples a stage's response time from whatever runs next: the
// publisher does not wait for, or learn about, the downstream stage's
// outcome. Progress is observable only through the recording's status.
package events

import (
	"context"
	"time"
)

// Type names one pipeline event.
type Type string

const (
	// RecordingTranscribed fires when a transcript was persisted; it
	// triggers the analysis stage.
	RecordingTranscribed Type = "recording.transcribed"
	// RecordingAnalyzed fires when an analysis result cleared the auto-sync
	// gate; it triggers the CRM sync stage.
	RecordingAnalyzed Type = "recording.analyzed"
)

// Event is one stage-completion notification.
type Event struct {
	Type         Type      `json:"type"`
	RecordingID  string    `json:"recording_id"`
	TranscriptID string    `json:"transcript_id,omitempty"`
	AnalysisID   string    `json:"analysis_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher hands an event to the transport. Implementations must not
// block on downstream processing.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Handler processes one delivered event.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }
