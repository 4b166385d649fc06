package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiErrors "voicepipe/internal/api/errors"
	"voicepipe/internal/api/v1/dto"
	"voicepipe/internal/app/crm"
	"voicepipe/internal/app/model"
	"voicepipe/internal/app/repository"
	"voicepipe/internal/app/testutil"
)

type syncFixture struct {
	store    repository.Store
	user     *model.User
	rec      *model.Recording
	analysis *model.AnalysisResult
	provider *testutil.MockCRMProvider
	svc      *SyncServiceImpl
}

func newSyncFixture(t *testing.T, connected bool) *syncFixture {
	t.Helper()
	store := testutil.NewStore(t)
	user := testutil.SeedUser(t, store)
	if connected {
		testutil.ConnectCRM(t, store, user)
	}
	rec := testutil.SeedRecording(t, store, user)
	tr := testutil.SeedTranscript(t, store, rec)
	analysis := testutil.SeedAnalysis(t, store, rec, tr)

	provider := testutil.NewMockCRMProvider()
	registry := crm.NewRegistry()
	registry.Register(provider)

	return &syncFixture{
		store:    store,
		user:     user,
		rec:      rec,
		analysis: analysis,
		provider: provider,
		svc:      NewSyncService(store, registry, testutil.SilentLogger()),
	}
}

func (f *syncFixture) request() *dto.SyncRequest {
	return &dto.SyncRequest{AnalysisID: f.analysis.ID, RecordingID: f.rec.ID}
}

func (f *syncFixture) logs(t *testing.T) []model.SyncLog {
	t.Helper()
	logs, err := f.store.SyncLogs().ListByRecording(context.Background(), f.rec.ID)
	require.NoError(t, err)
	return logs
}

func TestSync(t *testing.T) {
	ctx := context.Background()

	t.Run("completed_sync_advances_recording", func(t *testing.T) {
		f := newSyncFixture(t, true)

		resp, err := f.svc.Sync(ctx, f.user, f.request())
		require.NoError(t, err)

		assert.True(t, resp.Success)
		assert.Equal(t, model.SyncCompleted, resp.Status)
		assert.Equal(t, 1, resp.Synced.Contacts)
		assert.Equal(t, 1, resp.Synced.Tasks)
		assert.Empty(t, resp.Errors)

		got, err := f.store.Recordings().GetByID(ctx, f.rec.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusSynced, got.Status)

		logs := f.logs(t)
		require.Len(t, logs, 1)
		assert.Equal(t, model.SyncCompleted, logs[0].Status)
		assert.Equal(t, "salesforce", logs[0].Provider)
		assert.Len(t, logs[0].RemoteIDs, 2)
	})

	t.Run("not_connected_is_skipped", func(t *testing.T) {
		f := newSyncFixture(t, false)

		resp, err := f.svc.Sync(ctx, f.user, f.request())
		require.NoError(t, err)

		assert.True(t, resp.Success)
		assert.Equal(t, model.SyncSkipped, resp.Status)
		assert.Zero(t, resp.Synced.Contacts)

		// an audit row is still written
		logs := f.logs(t)
		require.Len(t, logs, 1)
		assert.Equal(t, model.SyncSkipped, logs[0].Status)

		// recording stays at analyzed
		got, err := f.store.Recordings().GetByID(ctx, f.rec.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusAnalyzed, got.Status)
	})

	t.Run("item_failures_classify_partial", func(t *testing.T) {
		f := newSyncFixture(t, true)
		f.analysis.Contacts = append(f.analysis.Contacts, model.Contact{Name: "Bob Smith", Confidence: 0.8})

		// refresh the stored analysis with the second contact
		f.analysis.ID = "an-two-contacts"
		require.NoError(t, f.store.Analyses().Insert(ctx, f.analysis))
		f.provider.UpsertErrs = map[string]error{"Bob Smith": errors.New("duplicate detected")}

		resp, err := f.svc.Sync(ctx, f.user, f.request())
		require.NoError(t, err)

		assert.True(t, resp.Success)
		assert.Equal(t, model.SyncPartial, resp.Status)
		assert.Equal(t, 1, resp.Synced.Contacts)
		assert.Equal(t, 1, resp.Synced.Tasks)
		require.Len(t, resp.Errors, 1)
		assert.Contains(t, resp.Errors[0], "Bob Smith")

		// partial does not advance the recording; a retry stays possible
		got, err := f.store.Recordings().GetByID(ctx, f.rec.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusAnalyzed, got.Status)

		logs := f.logs(t)
		require.Len(t, logs, 1)
		assert.Equal(t, model.SyncPartial, logs[0].Status)
		assert.Contains(t, logs[0].ErrorMessage, "duplicate detected")
	})

	t.Run("all_items_fail", func(t *testing.T) {
		f := newSyncFixture(t, true)
		f.provider.UpsertErrs = map[string]error{"Jane Doe": errors.New("boom")}
		f.provider.TaskErrs = map[string]error{"Send renewal quote": errors.New("boom")}

		resp, err := f.svc.Sync(ctx, f.user, f.request())
		require.NoError(t, err)

		assert.False(t, resp.Success)
		assert.Equal(t, model.SyncFailed, resp.Status)
		assert.Len(t, resp.Errors, 2)

		logs := f.logs(t)
		require.Len(t, logs, 1)
		assert.Equal(t, model.SyncFailed, logs[0].Status)
	})

	t.Run("credential_failure_fails_before_items", func(t *testing.T) {
		f := newSyncFixture(t, true)
		f.provider.ValidateErr = errors.New("token expired")

		_, err := f.svc.Sync(ctx, f.user, f.request())
		require.Error(t, err)
		var apiErr *apiErrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, apiErrors.KindUnauthorized, apiErr.Kind)

		// nothing was attempted
		assert.Empty(t, f.provider.Upserts)
		assert.Empty(t, f.provider.Tasks)

		logs := f.logs(t)
		require.Len(t, logs, 1)
		assert.Equal(t, model.SyncFailed, logs[0].Status)
		assert.Contains(t, logs[0].ErrorMessage, "token expired")
	})

	t.Run("unsupported_provider", func(t *testing.T) {
		f := newSyncFixture(t, true)
		cred := f.user.CRM
		cred.Provider = "hubspot"
		require.NoError(t, f.store.Users().SaveCRMCredential(ctx, f.user.ID, cred))
		f.user.CRM = cred

		_, err := f.svc.Sync(ctx, f.user, f.request())
		require.Error(t, err)
		var apiErr *apiErrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, apiErrors.KindBadRequest, apiErr.Kind)
	})

	t.Run("retry_appends_second_log", func(t *testing.T) {
		f := newSyncFixture(t, true)

		_, err := f.svc.Sync(ctx, f.user, f.request())
		require.NoError(t, err)
		_, err = f.svc.Sync(ctx, f.user, f.request())
		require.NoError(t, err)

		assert.Len(t, f.logs(t), 2)
	})

	t.Run("tasks_carry_action_item_text", func(t *testing.T) {
		f := newSyncFixture(t, true)

		_, err := f.svc.Sync(ctx, f.user, f.request())
		require.NoError(t, err)

		require.Len(t, f.provider.Tasks, 1)
		assert.Equal(t, "Send renewal quote", f.provider.Tasks[0].Task)
	})

	t.Run("analysis_recording_mismatch", func(t *testing.T) {
		f := newSyncFixture(t, true)
		other := testutil.SeedRecording(t, f.store, f.user)

		_, err := f.svc.Sync(ctx, f.user, &dto.SyncRequest{AnalysisID: f.analysis.ID, RecordingID: other.ID})
		require.Error(t, err)
		var apiErr *apiErrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, apiErrors.KindBadRequest, apiErr.Kind)
	})
}
