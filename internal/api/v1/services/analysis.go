package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apiErrors "voicepipe/internal/api/errors"
	"voicepipe/internal/api/v1/dto"
	"voicepipe/internal/app/api/extract"
	"voicepipe/internal/app/events"
	"voicepipe/internal/app/metrics"
	"voicepipe/internal/app/model"
	"voicepipe/internal/app/repository"
)

// AnalysisServiceImpl runs the analysis stage: feed a transcript to the
// extraction model, parse the structured answer, persist it and fire the
// auto-sync event when the result clears the confidence gate.
type AnalysisServiceImpl struct {
	store     repository.Store
	extractor extract.Client
	strict    bool
	publisher events.Publisher
	logger    *slog.Logger
}

// NewAnalysisService creates an analysis service. strict selects the
// fail-fast extraction parser.
func NewAnalysisService(
	store repository.Store,
	extractor extract.Client,
	strict bool,
	publisher events.Publisher,
	logger *slog.Logger,
) *AnalysisServiceImpl {
	return &AnalysisServiceImpl{
		store:     store,
		extractor: extractor,
		strict:    strict,
		publisher: publisher,
		logger:    logger,
	}
}

// Analyze processes one transcript. An empty transcript is rejected before
// the status walk begins; later failures mark the recording failed.
func (s *AnalysisServiceImpl) Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	start := time.Now()
	var stageErr error
	defer func() { metrics.ObserveStage("analysis", start, stageErr) }()

	transcript, err := s.store.Transcripts().GetByID(ctx, req.TranscriptionID)
	if err != nil {
		stageErr = err
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apiErrors.NewNotFoundError("transcript")
		}
		return nil, apiErrors.NewInternalError("failed to load transcript")
	}
	if transcript.RecordingID != req.RecordingID {
		stageErr = errors.New("transcript does not belong to recording")
		return nil, apiErrors.NewBadRequestError("transcript does not belong to the given recording")
	}
	if transcript.Text == "" {
		stageErr = errors.New("empty transcript")
		return nil, apiErrors.NewBadRequestError("transcript is empty; nothing to analyze")
	}

	if err := s.store.Recordings().UpdateStatus(ctx, req.RecordingID, model.StatusAnalyzing, ""); err != nil {
		stageErr = err
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apiErrors.NewBadRequestError("recording cannot be analyzed in its current status")
		}
		return nil, apiErrors.NewInternalError("failed to update recording status")
	}

	raw, err := s.extractor.Extract(ctx, transcript.Text)
	if err != nil {
		stageErr = err
		return nil, s.fail(ctx, req.RecordingID, "entity extraction failed", err)
	}

	extraction, err := extract.Parse(raw.JSON, s.strict)
	if err != nil {
		stageErr = err
		var schemaErr *extract.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, s.fail(ctx, req.RecordingID, "extraction response failed schema validation", err)
		}
		return nil, s.fail(ctx, req.RecordingID, "extraction response was not valid JSON", err)
	}

	result := &model.AnalysisResult{
		ID:               uuid.New().String(),
		TranscriptID:     transcript.ID,
		RecordingID:      req.RecordingID,
		Contacts:         extraction.Contacts,
		Companies:        extraction.Companies,
		ActionItems:      extraction.ActionItems,
		BuyingSignals:    extraction.BuyingSignals,
		OverallSentiment: extraction.OverallSentiment,
		SentimentScore:   extraction.SentimentScore,
		Summary:          extraction.Summary,
		KeyPoints:        extraction.KeyPoints,
		NextSteps:        extraction.NextSteps,
		ConfidenceScore:  extraction.ConfidenceScore,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		CostEstimate:     extract.CostEstimate(raw.PromptTokens, raw.CompletionTokens),
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.store.Analyses().Insert(ctx, result); err != nil {
		stageErr = err
		return nil, s.fail(ctx, req.RecordingID, "failed to persist analysis", err)
	}

	if err := s.store.Recordings().UpdateStatus(ctx, req.RecordingID, model.StatusAnalyzed, ""); err != nil {
		stageErr = err
		return nil, apiErrors.NewInternalError("failed to update recording status")
	}

	s.logger.Info("analysis complete",
		"recording_id", req.RecordingID,
		"analysis_id", result.ID,
		"contacts", len(result.Contacts),
		"confidence", result.ConfidenceScore)

	// Only confident results with at least one contact reach the CRM
	// without a human looking at them first.
	if result.ShouldAutoSync() {
		if err := s.publisher.Publish(ctx, events.Event{
			Type:        events.RecordingAnalyzed,
			RecordingID: req.RecordingID,
			AnalysisID:  result.ID,
			Timestamp:   time.Now().UTC(),
		}); err != nil {
			s.logger.Error("failed to publish analyzed event", "recording_id", req.RecordingID, "error", err)
		}
	} else {
		s.logger.Info("auto-sync gate held",
			"recording_id", req.RecordingID,
			"confidence", result.ConfidenceScore,
			"contacts", len(result.Contacts))
	}

	return &dto.AnalyzeResponse{
		AnalysisID:       result.ID,
		Contacts:         result.Contacts,
		Companies:        result.Companies,
		ActionItems:      result.ActionItems,
		OverallSentiment: result.OverallSentiment,
		SentimentScore:   result.SentimentScore,
		Summary:          result.Summary,
		KeyPoints:        result.KeyPoints,
		NextSteps:        result.NextSteps,
		BuyingSignals:    result.BuyingSignals,
		ConfidenceScore:  result.ConfidenceScore,
		ProcessingTime:   result.ProcessingTimeMs,
	}, nil
}

func (s *AnalysisServiceImpl) fail(ctx context.Context, recordingID, message string, cause error) error {
	s.logger.Error("analysis failed", "recording_id", recordingID, "reason", message, "error", cause)
	if err := s.store.Recordings().UpdateStatus(ctx, recordingID, model.StatusFailed, message); err != nil {
		s.logger.Error("failed to mark recording failed", "recording_id", recordingID, "error", err)
	}
	return apiErrors.NewInternalError(message)
}
