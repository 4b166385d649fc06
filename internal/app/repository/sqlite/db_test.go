package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicepipe/internal/app/model"
	"voicepipe/internal/app/repository"
)

func newTestStore(t *testing.T) *DB {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedRecording(t *testing.T, store *DB) *model.Recording {
	t.Helper()
	rec := &model.Recording{
		ID:          "rec-1",
		UserID:      "user-1",
		StoragePath: "recordings/rec-1.m4a",
		Duration:    30,
		FileSize:    1024,
		MimeType:    "audio/mp4",
		Metadata:    map[string]any{"source": "mobile"},
	}
	require.NoError(t, store.Recordings().Insert(context.Background(), rec))
	return rec
}

func TestRecordingInsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecording(t, store)

	got, err := store.Recordings().GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, "mobile", got.Metadata["source"])

	_, err = store.Recordings().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecordingStatusWalk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecording(t, store)
	dao := store.Recordings()

	for _, status := range []model.RecordingStatus{
		model.StatusTranscribing, model.StatusTranscribed,
		model.StatusAnalyzing, model.StatusAnalyzed, model.StatusSynced,
	} {
		require.NoError(t, dao.UpdateStatus(ctx, "rec-1", status, ""))
	}

	got, err := dao.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSynced, got.Status)
}

// A stage retry or a racing duplicate invocation must never move a
// recording backwards.
func TestRecordingStatusNeverRegresses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecording(t, store)
	dao := store.Recordings()

	require.NoError(t, dao.UpdateStatus(ctx, "rec-1", model.StatusAnalyzed, ""))

	err := dao.UpdateStatus(ctx, "rec-1", model.StatusTranscribing, "")
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	got, err := dao.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAnalyzed, got.Status)
}

func TestRecordingFailedIsTerminal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecording(t, store)
	dao := store.Recordings()

	require.NoError(t, dao.UpdateStatus(ctx, "rec-1", model.StatusFailed, "speech-to-text failed"))

	err := dao.UpdateStatus(ctx, "rec-1", model.StatusTranscribing, "")
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	got, err := dao.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, "speech-to-text failed", got.ErrorMessage)
}

func TestTranscriptRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecording(t, store)

	tr := &model.Transcript{
		ID:          "tr-1",
		RecordingID: "rec-1",
		Text:        "hello world",
		Language:    "en",
		Confidence:  0.8,
		WordCount:   2,
	}
	require.NoError(t, store.Transcripts().Insert(ctx, tr))

	got, err := store.Transcripts().GetByID(ctx, "tr-1")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Text)

	byRec, err := store.Transcripts().GetByRecordingID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "tr-1", byRec.ID)
}

func TestAnalysisRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecording(t, store)

	result := &model.AnalysisResult{
		ID:           "an-1",
		TranscriptID: "tr-1",
		RecordingID:  "rec-1",
		Contacts: []model.Contact{
			{Name: "Jane Doe", Email: "jane@acme.test", Confidence: 0.9},
		},
		Companies:        []string{"Acme"},
		ActionItems:      []model.ActionItem{{Task: "Send quote", Priority: model.PriorityHigh, Confidence: 0.8}},
		BuyingSignals:    []model.BuyingSignal{},
		OverallSentiment: model.SentimentPositive,
		SentimentScore:   0.5,
		Summary:          "Renewal call",
		KeyPoints:        []string{"Renewal due"},
		NextSteps:        "Send quote",
		ConfidenceScore:  0.85,
	}
	require.NoError(t, store.Analyses().Insert(ctx, result))

	got, err := store.Analyses().GetByID(ctx, "an-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Contacts[0].Name)
	assert.Equal(t, []string{"Acme"}, got.Companies)
	assert.Equal(t, model.PriorityHigh, got.ActionItems[0].Priority)
	assert.Equal(t, []string{"Renewal due"}, got.KeyPoints)
	assert.Equal(t, 0.85, got.ConfidenceScore)
}

// Sync logs are append-only: a retry adds a row, the old row survives.
func TestSyncLogAppendOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecording(t, store)
	dao := store.SyncLogs()

	first := &model.SyncLog{
		ID: "log-1", RecordingID: "rec-1", AnalysisID: "an-1", UserID: "user-1",
		Provider: "salesforce", Status: model.SyncPartial,
		ContactsSynced: 1, TasksSynced: 0,
		RemoteIDs:    []string{"003A"},
		ErrorMessage: `task "Send quote": timeout`,
		CreatedAt:    time.Now().UTC().Add(-time.Minute),
	}
	second := &model.SyncLog{
		ID: "log-2", RecordingID: "rec-1", AnalysisID: "an-1", UserID: "user-1",
		Provider: "salesforce", Status: model.SyncCompleted,
		ContactsSynced: 1, TasksSynced: 1,
		RemoteIDs: []string{"003A", "00TB"},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, dao.Insert(ctx, first))
	require.NoError(t, dao.Insert(ctx, second))

	logs, err := dao.ListByRecording(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// newest first
	assert.Equal(t, "log-2", logs[0].ID)
	assert.Equal(t, model.SyncCompleted, logs[0].Status)
	assert.Equal(t, "log-1", logs[1].ID)
	assert.Equal(t, []string{"003A"}, logs[1].RemoteIDs)

	all, err := dao.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUserCredentialLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	dao := store.Users()

	user := &model.User{ID: "user-1", Email: "rep@x.test", Name: "Rep", APIToken: "tok-abc"}
	require.NoError(t, dao.Insert(ctx, user))

	byToken, err := dao.GetByAPIToken(ctx, "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", byToken.ID)
	assert.False(t, byToken.CRM.Connected)

	_, err = dao.GetByAPIToken(ctx, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	cred := model.CRMCredential{
		Provider: "salesforce", Connected: true,
		AccessToken: "00Dacc", RefreshToken: "ref", InstanceURL: "https://na1.test",
	}
	require.NoError(t, dao.SaveCRMCredential(ctx, "user-1", cred))

	got, err := dao.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, got.CRM.Connected)
	assert.Equal(t, "00Dacc", got.CRM.AccessToken)
	assert.Equal(t, "https://na1.test", got.CRM.InstanceURL)

	require.NoError(t, dao.ClearCRMCredential(ctx, "user-1"))
	got, err = dao.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, got.CRM.Connected)
	assert.Empty(t, got.CRM.AccessToken)
	assert.Empty(t, got.CRM.RefreshToken)

	assert.ErrorIs(t, dao.SaveCRMCredential(ctx, "missing", cred), repository.ErrNotFound)
}
