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

type recordingDAO DB

func (s *recordingDAO) Insert(ctx context.Context, r *model.Recording) error {
	if r.Status == "" {
		r.Status = model.StatusCompleted
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	metadata, err := marshalJSON(r.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recordings (id, user_id, storage_path, duration, file_size, mime_type, status, error_message, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.StoragePath, r.Duration, r.FileSize, r.MimeType,
		string(r.Status), r.ErrorMessage, metadata, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert recording: %w", err)
	}
	return nil
}

func (s *recordingDAO) GetByID(ctx context.Context, id string) (*model.Recording, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, storage_path, duration, file_size, mime_type, status, error_message, metadata, created_at, updated_at
		FROM recordings WHERE id = ?`, id)

	var r model.Recording
	var status, metadata string
	err := row.Scan(&r.ID, &r.UserID, &r.StoragePath, &r.Duration, &r.FileSize,
		&r.MimeType, &status, &r.ErrorMessage, &metadata, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recording: %w", err)
	}

	r.Status = model.RecordingStatus(status)
	if err := unmarshalJSON(metadata, &r.Metadata); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateStatus moves the recording forward. The read and write run in one
// transaction so concurrent stage invocations cannot interleave a
// regression.
func (s *recordingDAO) UpdateStatus(ctx context.Context, id string, status model.RecordingStatus, errorMessage string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM recordings WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read current status: %w", err)
	}

	if !model.CanTransition(model.RecordingStatus(current), status) {
		return fmt.Errorf("%w: %s -> %s", repository.ErrStatusConflict, current, status)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE recordings SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), errorMessage, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	return tx.Commit()
}
