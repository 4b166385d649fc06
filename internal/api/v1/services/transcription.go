package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	apiErrors "voicepipe/internal/api/errors"
	"voicepipe/internal/api/v1/dto"
	"voicepipe/internal/app/api/speech"
	"voicepipe/internal/app/events"
	"voicepipe/internal/app/metrics"
	"voicepipe/internal/app/model"
	"voicepipe/internal/app/repository"
	"voicepipe/internal/app/storage"
)

// TranscriptionServiceImpl runs the transcription stage: fetch audio from
// blob storage, submit it to the speech provider, persist the transcript
// and announce completion.
type TranscriptionServiceImpl struct {
	store     repository.Store
	blobs     storage.BlobStore
	speech    speech.Client
	scorer    speech.ConfidenceScorer
	publisher events.Publisher
	logger    *slog.Logger
}

// NewTranscriptionService creates a transcription service. A nil scorer
// falls back to the word-count heuristic.
func NewTranscriptionService(
	store repository.Store,
	blobs storage.BlobStore,
	speechClient speech.Client,
	scorer speech.ConfidenceScorer,
	publisher events.Publisher,
	logger *slog.Logger,
) *TranscriptionServiceImpl {
	if scorer == nil {
		scorer = speech.WordCountScorer
	}
	return &TranscriptionServiceImpl{
		store:     store,
		blobs:     blobs,
		speech:    speechClient,
		scorer:    scorer,
		publisher: publisher,
		logger:    logger,
	}
}

// Transcribe processes one recording end to end. Any failure after the
// status walk began marks the recording failed with a diagnostic message.
func (s *TranscriptionServiceImpl) Transcribe(ctx context.Context, req *dto.TranscribeRequest) (*dto.TranscribeResponse, error) {
	start := time.Now()
	var stageErr error
	defer func() { metrics.ObserveStage("transcription", start, stageErr) }()

	rec, err := s.store.Recordings().GetByID(ctx, req.RecordingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			stageErr = err
			return nil, apiErrors.NewNotFoundError("recording")
		}
		stageErr = err
		return nil, apiErrors.NewInternalError("failed to load recording")
	}

	if err := s.store.Recordings().UpdateStatus(ctx, rec.ID, model.StatusTranscribing, ""); err != nil {
		stageErr = err
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apiErrors.NewBadRequestError(
				fmt.Sprintf("recording is in status %q and cannot be transcribed", rec.Status))
		}
		return nil, apiErrors.NewInternalError("failed to update recording status")
	}

	size, err := s.blobs.Stat(ctx, req.AudioFilePath)
	if err != nil {
		stageErr = err
		return nil, s.fail(ctx, rec.ID, "audio file not accessible", err)
	}
	if size > speech.MaxAudioBytes {
		stageErr = fmt.Errorf("audio file too large: %d bytes", size)
		return nil, s.fail(ctx, rec.ID,
			fmt.Sprintf("audio file exceeds %d MB limit", speech.MaxAudioBytes>>20), stageErr)
	}

	tmpDir, err := os.MkdirTemp("", "voicepipe-audio-")
	if err != nil {
		stageErr = err
		return nil, s.fail(ctx, rec.ID, "failed to stage audio locally", err)
	}
	defer os.RemoveAll(tmpDir)

	localPath := filepath.Join(tmpDir, filepath.Base(req.AudioFilePath))
	if err := s.blobs.Download(ctx, req.AudioFilePath, localPath); err != nil {
		stageErr = err
		return nil, s.fail(ctx, rec.ID, "failed to download audio", err)
	}

	result, err := s.speech.Transcribe(ctx, localPath, req.Language)
	if err != nil {
		stageErr = err
		return nil, s.fail(ctx, rec.ID, "speech-to-text failed", err)
	}

	wordCount := len(strings.Fields(result.Text))
	transcript := &model.Transcript{
		ID:               uuid.New().String(),
		RecordingID:      rec.ID,
		Text:             result.Text,
		Language:         result.Language,
		Confidence:       s.scorer(wordCount),
		WordCount:        wordCount,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		CostEstimate:     speech.CostEstimate(result.Duration),
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.store.Transcripts().Insert(ctx, transcript); err != nil {
		stageErr = err
		return nil, s.fail(ctx, rec.ID, "failed to persist transcript", err)
	}

	if err := s.store.Recordings().UpdateStatus(ctx, rec.ID, model.StatusTranscribed, ""); err != nil {
		stageErr = err
		return nil, apiErrors.NewInternalError("failed to update recording status")
	}

	s.logger.Info("transcription complete",
		"recording_id", rec.ID,
		"transcript_id", transcript.ID,
		"word_count", wordCount,
		"duration_s", result.Duration)

	// Completion is announced fire-and-forget: a transport failure must not
	// fail a stage that already persisted its output.
	if err := s.publisher.Publish(ctx, events.Event{
		Type:         events.RecordingTranscribed,
		RecordingID:  rec.ID,
		TranscriptID: transcript.ID,
		Timestamp:    time.Now().UTC(),
	}); err != nil {
		s.logger.Error("failed to publish transcribed event", "recording_id", rec.ID, "error", err)
	}

	return &dto.TranscribeResponse{
		TranscriptionID: transcript.ID,
		Text:            transcript.Text,
		Confidence:      transcript.Confidence,
		WordCount:       transcript.WordCount,
		ProcessingTime:  transcript.ProcessingTimeMs,
	}, nil
}

// fail marks the recording failed and returns the client-facing error. The
// status write is best-effort: the original failure wins.
func (s *TranscriptionServiceImpl) fail(ctx context.Context, recordingID, message string, cause error) error {
	s.logger.Error("transcription failed", "recording_id", recordingID, "reason", message, "error", cause)
	if err := s.store.Recordings().UpdateStatus(ctx, recordingID, model.StatusFailed, message); err != nil {
		s.logger.Error("failed to mark recording failed", "recording_id", recordingID, "error", err)
	}
	return apiErrors.NewInternalError(message)
}
