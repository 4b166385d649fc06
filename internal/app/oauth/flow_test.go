package oauth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlow(t *testing.T, endpoints Endpoints) *Flow {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFlow(endpoints, "client-id", "client-secret", []string{"api", "refresh_token"}, NewMemorySessionStore(), logger)
}

func TestBegin(t *testing.T) {
	f := newTestFlow(t, Endpoints{AuthorizeURL: "https://login.example.test/authorize"})

	result, err := f.Begin(context.Background(), "user-1:salesforce", "https://app.example.test/callback")
	require.NoError(t, err)

	parsed, err := url.Parse(result.AuthorizeURL)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://app.example.test/callback", q.Get("redirect_uri"))
	assert.Equal(t, "api refresh_token", q.Get("scope"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, result.State, q.Get("state"))

	state, err := DecodeState(result.State)
	require.NoError(t, err)
	assert.Len(t, state.Verifier, VerifierLength)
	assert.Equal(t, Challenge(state.Verifier), q.Get("code_challenge"))
}

func TestValidateCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("happy_path", func(t *testing.T) {
		f := newTestFlow(t, Endpoints{AuthorizeURL: "https://login.example.test/authorize"})
		begin, err := f.Begin(ctx, "key", "https://app.example.test/cb")
		require.NoError(t, err)

		state, err := f.ValidateCallback(ctx, "key", begin.State)
		require.NoError(t, err)
		assert.NotEmpty(t, state.Verifier)
	})

	t.Run("expired_state", func(t *testing.T) {
		f := newTestFlow(t, Endpoints{AuthorizeURL: "https://login.example.test/authorize"})
		begin, err := f.Begin(ctx, "key", "https://app.example.test/cb")
		require.NoError(t, err)

		f.SetNow(func() time.Time { return time.Now().Add(StateTTL + time.Minute) })
		_, err = f.ValidateCallback(ctx, "key", begin.State)
		assert.ErrorIs(t, err, ErrStateExpired)
	})

	t.Run("nonce_from_another_session", func(t *testing.T) {
		f := newTestFlow(t, Endpoints{AuthorizeURL: "https://login.example.test/authorize"})
		// Two attempts under the same key: the second overwrites the session,
		// so the first state's nonce no longer matches.
		first, err := f.Begin(ctx, "key", "https://app.example.test/cb")
		require.NoError(t, err)
		_, err = f.Begin(ctx, "key", "https://app.example.test/cb")
		require.NoError(t, err)

		_, err = f.ValidateCallback(ctx, "key", first.State)
		assert.ErrorIs(t, err, ErrNonceMismatch)
	})

	t.Run("tampered_verifier", func(t *testing.T) {
		f := newTestFlow(t, Endpoints{AuthorizeURL: "https://login.example.test/authorize"})
		begin, err := f.Begin(ctx, "key", "https://app.example.test/cb")
		require.NoError(t, err)

		state, err := DecodeState(begin.State)
		require.NoError(t, err)
		tampered, err := NewVerifier()
		require.NoError(t, err)
		state.Verifier = tampered

		_, err = f.ValidateCallback(ctx, "key", state.Encode())
		assert.ErrorIs(t, err, ErrChallengeMismatch)
	})

	t.Run("undecodable_state_with_session_fallback", func(t *testing.T) {
		f := newTestFlow(t, Endpoints{AuthorizeURL: "https://login.example.test/authorize"})
		_, err := f.Begin(ctx, "key", "https://app.example.test/cb")
		require.NoError(t, err)

		state, err := f.ValidateCallback(ctx, "key", "corrupted-blob")
		require.NoError(t, err)
		assert.NotEmpty(t, state.Verifier)
	})

	t.Run("undecodable_state_without_session", func(t *testing.T) {
		f := newTestFlow(t, Endpoints{AuthorizeURL: "https://login.example.test/authorize"})
		_, err := f.ValidateCallback(ctx, "unknown", "corrupted-blob")
		assert.ErrorIs(t, err, ErrStateInvalid)
	})
}

func TestExchange(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "00Dxxaccess",
			"refresh_token": "refreshxx",
			"instance_url":  "https://na1.example.test",
			"token_type":    "Bearer",
		})
	}))
	defer srv.Close()

	f := newTestFlow(t, Endpoints{TokenURL: srv.URL})
	f.SetHTTPClient(srv.Client())

	token, err := f.Exchange(context.Background(), "auth-code", "the-verifier", "https://app.example.test/cb")
	require.NoError(t, err)

	assert.Equal(t, "00Dxxaccess", token.AccessToken)
	assert.Equal(t, "refreshxx", token.RefreshToken)
	assert.Equal(t, "https://na1.example.test", token.InstanceURL)

	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Equal(t, "auth-code", gotForm.Get("code"))
	assert.Equal(t, "the-verifier", gotForm.Get("code_verifier"))
	assert.Equal(t, "client-id", gotForm.Get("client_id"))
	assert.Equal(t, "client-secret", gotForm.Get("client_secret"))
}

func TestExchangePropagatesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"invalid_grant","error_description":"expired authorization code"}`)
	}))
	defer srv.Close()

	f := newTestFlow(t, Endpoints{TokenURL: srv.URL})
	f.SetHTTPClient(srv.Client())

	_, err := f.Exchange(context.Background(), "stale-code", "verifier", "https://app.example.test/cb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh-access"})
	}))
	defer srv.Close()

	f := newTestFlow(t, Endpoints{TokenURL: srv.URL})
	f.SetHTTPClient(srv.Client())

	token, err := f.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", token.AccessToken)
}

func TestFetchIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer the-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{
			"name":            "Jane Rep",
			"email":           "jane@org.test",
			"organization_id": "00D000000000001",
		})
	}))
	defer srv.Close()

	f := newTestFlow(t, Endpoints{UserInfoURL: srv.URL})
	f.SetHTTPClient(srv.Client())

	identity, err := f.FetchIdentity(context.Background(), "the-token")
	require.NoError(t, err)
	assert.Equal(t, "Jane Rep", identity.Name)
	assert.Equal(t, "jane@org.test", identity.Email)
	assert.Equal(t, "00D000000000001", identity.Organization)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", Session{Nonce: "n", Verifier: "v"}))

	sess, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "n", sess.Nonce)

	require.NoError(t, store.Delete(ctx, "k"))
	sess, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, sess)
}
