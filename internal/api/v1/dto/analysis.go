package dto

import (
	"voicepipe/internal/api/errors"
	"voicepipe/internal/app/model"
)

// AnalyzeRequest invokes the analysis stage for one transcript.
type AnalyzeRequest struct {
	TranscriptionID string `json:"transcriptionId" binding:"required"`
	RecordingID     string `json:"recordingId" binding:"required"`
}

// Validate performs domain-specific validation.
func (r *AnalyzeRequest) Validate() error {
	validationErrors := make(map[string]string)

	if r.TranscriptionID == "" {
		validationErrors["transcriptionId"] = "transcription id is required"
	}
	if r.RecordingID == "" {
		validationErrors["recordingId"] = "recording id is required"
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Invalid analysis request", validationErrors)
	}
	return nil
}

// AnalyzeResponse carries the full extraction result.
type AnalyzeResponse struct {
	AnalysisID       string              `json:"analysisId"`
	Contacts         []model.Contact     `json:"contacts"`
	Companies        []string            `json:"companies"`
	ActionItems      []model.ActionItem  `json:"actionItems"`
	OverallSentiment model.Sentiment     `json:"overallSentiment"`
	SentimentScore   float64             `json:"sentimentScore"`
	Summary          string              `json:"summary"`
	KeyPoints        []string            `json:"keyPoints"`
	NextSteps        string              `json:"nextSteps"`
	BuyingSignals    []model.BuyingSignal `json:"buyingSignals"`
	ConfidenceScore  float64             `json:"confidenceScore"`
	ProcessingTime   int64               `json:"processingTime"`
}
