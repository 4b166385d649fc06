package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"voicepipe/internal/app/model"
)

type syncLogDAO DB

func (s *syncLogDAO) Insert(ctx context.Context, l *model.SyncLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	remoteIDs, err := marshalJSON(l.RemoteIDs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_logs (id, recording_id, analysis_id, user_id, provider, status, contacts_synced, tasks_synced, remote_ids, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.RecordingID, l.AnalysisID, l.UserID, l.Provider, string(l.Status),
		l.ContactsSynced, l.TasksSynced, remoteIDs, l.ErrorMessage, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sync log: %w", err)
	}
	return nil
}

func (s *syncLogDAO) ListByRecording(ctx context.Context, recordingID string) ([]model.SyncLog, error) {
	rows, err := s.db.QueryContext(ctx, selectSyncLogs+` WHERE recording_id = ? ORDER BY created_at DESC`, recordingID)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	return scanSyncLogs(rows)
}

func (s *syncLogDAO) ListAll(ctx context.Context) ([]model.SyncLog, error) {
	rows, err := s.db.QueryContext(ctx, selectSyncLogs+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	return scanSyncLogs(rows)
}

const selectSyncLogs = `
	SELECT id, recording_id, analysis_id, user_id, provider, status, contacts_synced, tasks_synced, remote_ids, error_message, created_at
	FROM sync_logs`

func scanSyncLogs(rows *sql.Rows) ([]model.SyncLog, error) {
	defer rows.Close()

	var logs []model.SyncLog
	for rows.Next() {
		var l model.SyncLog
		var status, remoteIDs string
		if err := rows.Scan(&l.ID, &l.RecordingID, &l.AnalysisID, &l.UserID, &l.Provider,
			&status, &l.ContactsSynced, &l.TasksSynced, &remoteIDs, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		l.Status = model.SyncStatus(status)
		if err := unmarshalJSON(remoteIDs, &l.RemoteIDs); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync logs: %w", err)
	}
	return logs, nil
}
