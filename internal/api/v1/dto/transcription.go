package dto

import (
	"voicepipe/internal/api/errors"
)

// TranscribeRequest invokes the transcription stage for one recording.
type TranscribeRequest struct {
	RecordingID   string `json:"recordingId" binding:"required"`
	AudioFilePath string `json:"audioFilePath" binding:"required"`
	Language      string `json:"language,omitempty"`
}

// Validate performs domain-specific validation.
func (r *TranscribeRequest) Validate() error {
	validationErrors := make(map[string]string)

	if r.RecordingID == "" {
		validationErrors["recordingId"] = "recording id is required"
	}
	if r.AudioFilePath == "" {
		validationErrors["audioFilePath"] = "audio file path is required"
	}
	if len(r.Language) > 8 {
		validationErrors["language"] = "language hint is too long"
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Invalid transcription request", validationErrors)
	}
	return nil
}

// TranscribeResponse reports the persisted transcript.
type TranscribeResponse struct {
	TranscriptionID string  `json:"transcriptionId"`
	Text            string  `json:"text"`
	Confidence      float64 `json:"confidence"`
	WordCount       int     `json:"wordCount"`
	ProcessingTime  int64   `json:"processingTime"`
}
