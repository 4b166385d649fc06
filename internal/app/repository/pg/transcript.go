package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voicepipe/internal/app/model"
	"voicepipe/internal/app/repository"
)

type transcriptDAO DB

func (s *transcriptDAO) Insert(ctx context.Context, t *model.Transcript) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcripts (id, recording_id, text, language, confidence, word_count, processing_time_ms, cost_estimate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.RecordingID, t.Text, t.Language, t.Confidence, t.WordCount,
		t.ProcessingTimeMs, t.CostEstimate, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

func (s *transcriptDAO) GetByID(ctx context.Context, id string) (*model.Transcript, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *transcriptDAO) GetByRecordingID(ctx context.Context, recordingID string) (*model.Transcript, error) {
	return s.get(ctx, `WHERE recording_id = $1 ORDER BY created_at DESC LIMIT 1`, recordingID)
}

func (s *transcriptDAO) get(ctx context.Context, where string, arg any) (*model.Transcript, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, recording_id, text, language, confidence, word_count, processing_time_ms, cost_estimate, created_at
		FROM transcripts `+where, arg)

	var t model.Transcript
	err := row.Scan(&t.ID, &t.RecordingID, &t.Text, &t.Language, &t.Confidence,
		&t.WordCount, &t.ProcessingTimeMs, &t.CostEstimate, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	return &t, nil
}
