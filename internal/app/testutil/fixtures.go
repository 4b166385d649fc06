package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"voicepipe/internal/app/model"
	"voicepipe/internal/app/repository"
	"voicepipe/internal/app/repository/sqlite"
)

// NewStore opens an in-memory store that is torn down with the test.
func NewStore(t *testing.T) repository.Store {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// SilentLogger discards everything; tests assert on behavior, not logs.
func SilentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SeedUser inserts a user with an API token and no CRM connection.
func SeedUser(t *testing.T, store repository.Store) *model.User {
	t.Helper()
	user := &model.User{
		ID:       uuid.New().String(),
		Email:    "rep@example.test",
		Name:     "Test Rep",
		APIToken: "tok-" + uuid.New().String(),
	}
	require.NoError(t, store.Users().Insert(context.Background(), user))
	return user
}

// ConnectCRM stores a usable salesforce credential on the user.
func ConnectCRM(t *testing.T, store repository.Store, user *model.User) {
	t.Helper()
	cred := model.CRMCredential{
		Provider:     "salesforce",
		Connected:    true,
		AccessToken:  "00Daccess-token-value",
		RefreshToken: "refresh-token-value",
		InstanceURL:  "https://example.my.salesforce.test",
	}
	require.NoError(t, store.Users().SaveCRMCredential(context.Background(), user.ID, cred))
	user.CRM = cred
}

// SeedRecording inserts a freshly uploaded recording for user.
func SeedRecording(t *testing.T, store repository.Store, user *model.User) *model.Recording {
	t.Helper()
	rec := &model.Recording{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		StoragePath: "recordings/" + uuid.New().String() + ".m4a",
		Duration:    42.5,
		FileSize:    1 << 20,
		MimeType:    "audio/mp4",
		Status:      model.StatusCompleted,
	}
	require.NoError(t, store.Recordings().Insert(context.Background(), rec))
	return rec
}

// SeedTranscript inserts a transcript and advances the recording to
// transcribed.
func SeedTranscript(t *testing.T, store repository.Store, rec *model.Recording) *model.Transcript {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Recordings().UpdateStatus(ctx, rec.ID, model.StatusTranscribing, ""))
	tr := &model.Transcript{
		ID:          uuid.New().String(),
		RecordingID: rec.ID,
		Text:        "Spoke with Jane Doe from Acme about the renewal",
		Language:    "en",
		Confidence:  0.85,
		WordCount:   9,
	}
	require.NoError(t, store.Transcripts().Insert(ctx, tr))
	require.NoError(t, store.Recordings().UpdateStatus(ctx, rec.ID, model.StatusTranscribed, ""))
	return tr
}

// SeedAnalysis inserts an analysis result and advances the recording to
// analyzed. The result clears the auto-sync gate.
func SeedAnalysis(t *testing.T, store repository.Store, rec *model.Recording, tr *model.Transcript) *model.AnalysisResult {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Recordings().UpdateStatus(ctx, rec.ID, model.StatusAnalyzing, ""))
	result := &model.AnalysisResult{
		ID:           uuid.New().String(),
		TranscriptID: tr.ID,
		RecordingID:  rec.ID,
		Contacts: []model.Contact{
			{Name: "Jane Doe", Company: "Acme", Email: "jane@acme.test", Confidence: 0.9},
		},
		Companies: []string{"Acme"},
		ActionItems: []model.ActionItem{
			{Task: "Send renewal quote", Priority: model.PriorityHigh, Confidence: 0.85},
		},
		OverallSentiment: model.SentimentPositive,
		SentimentScore:   0.6,
		Summary:          "Renewal discussion with Acme",
		KeyPoints:        []string{"Renewal due next month"},
		NextSteps:        "Send the quote by Friday",
		ConfidenceScore:  0.9,
	}
	require.NoError(t, store.Analyses().Insert(ctx, result))
	require.NoError(t, store.Recordings().UpdateStatus(ctx, rec.ID, model.StatusAnalyzed, ""))
	return result
}
