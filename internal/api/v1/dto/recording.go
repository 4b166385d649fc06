package dto

import "voicepipe/internal/app/model"

// RecordingResponse is the read view of one recording.
type RecordingResponse struct {
	ID            string                `json:"id"`
	UserID        string                `json:"userId"`
	AudioFilePath string                `json:"audioFilePath"`
	Status        model.RecordingStatus `json:"status"`
	ErrorMessage  string                `json:"errorMessage,omitempty"`
	CreatedAt     string                `json:"createdAt"`
	UpdatedAt     string                `json:"updatedAt"`
}
