package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voicepipe/internal/app/model"
	"voicepipe/internal/app/repository"
)

type analysisDAO DB

func (s *analysisDAO) Insert(ctx context.Context, a *model.AnalysisResult) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	contacts, err := marshalJSON(a.Contacts)
	if err != nil {
		return err
	}
	companies, err := marshalJSON(a.Companies)
	if err != nil {
		return err
	}
	actionItems, err := marshalJSON(a.ActionItems)
	if err != nil {
		return err
	}
	buyingSignals, err := marshalJSON(a.BuyingSignals)
	if err != nil {
		return err
	}
	keyPoints, err := marshalJSON(a.KeyPoints)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (id, transcript_id, recording_id, contacts, companies, action_items, buying_signals,
			overall_sentiment, sentiment_score, summary, key_points, next_steps, confidence_score, processing_time_ms, cost_estimate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TranscriptID, a.RecordingID, contacts, companies, actionItems, buyingSignals,
		string(a.OverallSentiment), a.SentimentScore, a.Summary, keyPoints, a.NextSteps,
		a.ConfidenceScore, a.ProcessingTimeMs, a.CostEstimate, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis result: %w", err)
	}
	return nil
}

func (s *analysisDAO) GetByID(ctx context.Context, id string) (*model.AnalysisResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, transcript_id, recording_id, contacts, companies, action_items, buying_signals,
			overall_sentiment, sentiment_score, summary, key_points, next_steps, confidence_score, processing_time_ms, cost_estimate, created_at
		FROM analysis_results WHERE id = ?`, id)

	var a model.AnalysisResult
	var contacts, companies, actionItems, buyingSignals, keyPoints, sentiment string
	err := row.Scan(&a.ID, &a.TranscriptID, &a.RecordingID, &contacts, &companies, &actionItems,
		&buyingSignals, &sentiment, &a.SentimentScore, &a.Summary, &keyPoints, &a.NextSteps,
		&a.ConfidenceScore, &a.ProcessingTimeMs, &a.CostEstimate, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis result: %w", err)
	}

	a.OverallSentiment = model.Sentiment(sentiment)
	if err := unmarshalJSON(contacts, &a.Contacts); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(companies, &a.Companies); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(actionItems, &a.ActionItems); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(buyingSignals, &a.BuyingSignals); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(keyPoints, &a.KeyPoints); err != nil {
		return nil, err
	}
	return &a, nil
}
