package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    RecordingStatus
		to      RecordingStatus
		allowed bool
	}{
		{"forward_one_step", StatusCompleted, StatusTranscribing, true},
		{"forward_skip_steps", StatusCompleted, StatusAnalyzed, true},
		{"forward_to_synced", StatusAnalyzed, StatusSynced, true},
		{"backward_one_step", StatusTranscribed, StatusTranscribing, false},
		{"backward_from_synced", StatusSynced, StatusCompleted, false},
		{"same_status", StatusAnalyzing, StatusAnalyzing, false},
		{"to_failed_from_start", StatusCompleted, StatusFailed, true},
		{"to_failed_mid_pipeline", StatusAnalyzing, StatusFailed, true},
		{"failed_is_terminal", StatusFailed, StatusTranscribing, false},
		{"failed_to_failed", StatusFailed, StatusFailed, false},
		{"unknown_from", RecordingStatus("bogus"), StatusTranscribing, false},
		{"unknown_to", StatusCompleted, RecordingStatus("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

// Every ordered pair of pipeline statuses must be either a strict advance
// or rejected; the walk can never cycle.
func TestStatusOrderIsStrict(t *testing.T) {
	forward := []RecordingStatus{
		StatusCompleted, StatusTranscribing, StatusTranscribed,
		StatusAnalyzing, StatusAnalyzed, StatusSynced,
	}
	for i, from := range forward {
		for j, to := range forward {
			got := CanTransition(from, to)
			assert.Equal(t, j > i, got, "%s -> %s", from, to)
		}
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusFailed))
	assert.True(t, ValidStatus(StatusSynced))
	assert.False(t, ValidStatus(RecordingStatus("archived")))
}
