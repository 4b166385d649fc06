package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicepipe/internal/api/middleware"
	"voicepipe/internal/api/v1/services"
	"voicepipe/internal/app/crm"
	"voicepipe/internal/app/model"
	"voicepipe/internal/app/oauth"
	"voicepipe/internal/app/repository"
	"voicepipe/internal/app/testutil"
)

type apiFixture struct {
	router *gin.Engine
	store  repository.Store
	user   *model.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := testutil.NewStore(t)
	user := testutil.SeedUser(t, store)
	logger := testutil.SilentLogger()

	registry := crm.NewRegistry()
	registry.Register(testutil.NewMockCRMProvider())

	publisher := testutil.NewCapturePublisher()
	flows := map[string]*oauth.Flow{
		"salesforce": oauth.NewFlow(oauth.Endpoints{
			AuthorizeURL: "https://login.crm.test/authorize",
			TokenURL:     "https://login.crm.test/token",
			UserInfoURL:  "https://login.crm.test/userinfo",
		}, "client-id", "client-secret", []string{"api"}, oauth.NewMemorySessionStore(), logger),
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger))

	Register(router, &ServiceContainer{
		Transcription: services.NewTranscriptionService(store, testutil.NewMockBlobStore(), testutil.NewMockSpeechClient(), nil, publisher, logger),
		Analysis:      services.NewAnalysisService(store, testutil.NewMockExtractClient(), false, publisher, logger),
		Sync:          services.NewSyncService(store, registry, logger),
		OAuth:         services.NewOAuthService(store.Users(), flows, logger),
		Recordings:    services.NewRecordingService(store),
		Users:         store.Users(),
	})

	return &apiFixture{router: router, store: store, user: user}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestBearerAuth(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("missing_header", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/sync/logs", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Missing Authorization header", body["error"])
	})

	t.Run("unknown_token", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/sync/logs", nil, "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid_token", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/sync/logs", nil, f.user.APIToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestTranscribeEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	rec := testutil.SeedRecording(t, f.store, f.user)

	t.Run("happy_path", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/transcribe", map[string]string{
			"recordingId":   rec.ID,
			"audioFilePath": rec.StoragePath,
		}, f.user.APIToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decodeBody(t, w)
		assert.Equal(t, "Spoke with Jane Doe from Acme about the renewal", body["text"])
		assert.NotEmpty(t, body["transcriptionId"])
	})

	t.Run("missing_fields", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/transcribe", map[string]string{"recordingId": rec.ID}, f.user.APIToken)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("unknown_recording", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/transcribe", map[string]string{
			"recordingId":   "nope",
			"audioFilePath": "recordings/nope.m4a",
		}, f.user.APIToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRecordingOwnership(t *testing.T) {
	f := newAPIFixture(t)
	rec := testutil.SeedRecording(t, f.store, f.user)
	stranger := testutil.SeedUser(t, f.store)

	t.Run("owner_sees_recording", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/recordings/"+rec.ID, nil, f.user.APIToken)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, rec.ID, body["id"])
		assert.Equal(t, string(model.StatusCompleted), body["status"])
	})

	t.Run("stranger_gets_not_found", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/recordings/"+rec.ID, nil, stranger.APIToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("stranger_cannot_read_sync_logs", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/recordings/"+rec.ID+"/sync-logs", nil, stranger.APIToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSyncEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	testutil.ConnectCRM(t, f.store, f.user)
	rec := testutil.SeedRecording(t, f.store, f.user)
	tr := testutil.SeedTranscript(t, f.store, rec)
	analysis := testutil.SeedAnalysis(t, f.store, rec, tr)

	w := f.do(t, http.MethodPost, "/api/v1/sync/salesforce", map[string]string{
		"analysisId":  analysis.ID,
		"recordingId": rec.ID,
	}, f.user.APIToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, string(model.SyncCompleted), body["status"])

	// audit trail is visible through both log endpoints
	w = f.do(t, http.MethodGet, "/api/v1/recordings/"+rec.ID+"/sync-logs", nil, f.user.APIToken)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decodeBody(t, w)["logs"].([]any)
	assert.Len(t, logs, 1)

	w = f.do(t, http.MethodGet, "/api/v1/sync/logs?limit=5", nil, f.user.APIToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/sync/logs?limit=0", nil, f.user.APIToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOAuthEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("authorize_returns_redirect", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/oauth/salesforce/authorize", map[string]string{
			"redirectUri": "https://app.example/callback",
		}, f.user.APIToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decodeBody(t, w)
		authorizeURL, _ := body["authorizeUrl"].(string)
		assert.Contains(t, authorizeURL, "code_challenge_method=S256")
		assert.NotEmpty(t, body["state"])
		// the verifier stays server-side
		assert.NotContains(t, authorizeURL, "code_verifier")
	})

	t.Run("unsupported_provider", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/oauth/pipedrive/authorize", map[string]string{
			"redirectUri": "https://app.example/callback",
		}, f.user.APIToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("connection_status", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/oauth/salesforce", nil, f.user.APIToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["connected"])

		testutil.ConnectCRM(t, f.store, f.user)
		w = f.do(t, http.MethodGet, "/api/v1/oauth/salesforce", nil, f.user.APIToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeBody(t, w)["connected"])
	})

	t.Run("disconnect", func(t *testing.T) {
		testutil.ConnectCRM(t, f.store, f.user)
		w := f.do(t, http.MethodDelete, "/api/v1/oauth/salesforce", nil, f.user.APIToken)
		require.Equal(t, http.StatusNoContent, w.Code)

		ctx := context.Background()
		got, err := f.store.Users().GetByID(ctx, f.user.ID)
		require.NoError(t, err)
		assert.False(t, got.CRM.Connected)
	})
}

func TestErrorEnvelope(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/recordings/missing", nil, f.user.APIToken)
	require.Equal(t, http.StatusNotFound, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "recording not found", body["error"])
	assert.Equal(t, "not_found", body["kind"])
	assert.NotEmpty(t, body["request_id"])
}
