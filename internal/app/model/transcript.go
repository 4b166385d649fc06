package model

import "time"

// Transcript is the speech-to-text output for one recording. Created exactly
// once by the transcription stage and immutable thereafter.
type Transcript struct {
	ID               string    `json:"id"`
	RecordingID      string    `json:"recording_id"`
	Text             string    `json:"text"`
	Language         string    `json:"language"`
	Confidence       float64   `json:"confidence"`
	WordCount        int       `json:"word_count"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CostEstimate     float64   `json:"cost_estimate"`
	CreatedAt        time.Time `json:"created_at"`
}
