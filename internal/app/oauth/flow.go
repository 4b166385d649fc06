// Package oauth implements the PKCE authorization-code flow used to obtain
// CRM credentials. The exchange always runs server-side: the client secret
// never reaches a browser, and the token endpoint has no cross-origin
// restrictions to fight here.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Endpoints are the provider's OAuth URLs.
type Endpoints struct {
	AuthorizeURL string
	TokenURL     string
	UserInfoURL  string
}

// Token is the token endpoint's answer.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	InstanceURL  string `json:"instance_url"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// Identity is the authenticated identity behind a fresh token.
type Identity struct {
	Name         string
	Email        string
	Organization string
}

// BeginResult is handed back to the client to start the redirect.
type BeginResult struct {
	AuthorizeURL string
	State        string
}

// Flow drives one provider's authorization-code exchange.
type Flow struct {
	endpoints  Endpoints
	clientID   string
	secret     string
	scopes     []string
	sessions   SessionStore
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewFlow wires a flow with injected credentials and session storage.
func NewFlow(endpoints Endpoints, clientID, clientSecret string, scopes []string, sessions SessionStore, logger *slog.Logger) *Flow {
	return &Flow{
		endpoints:  endpoints,
		clientID:   clientID,
		secret:     clientSecret,
		scopes:     scopes,
		sessions:   sessions,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
}

// Begin generates the verifier, challenge and state blob, stores the
// session fallback copy, and builds the provider authorize URL.
func (f *Flow) Begin(ctx context.Context, sessionKey, redirectURI string) (*BeginResult, error) {
	verifier, err := NewVerifier()
	if err != nil {
		return nil, err
	}

	nonce := uuid.New().String()
	state := NewState(nonce, verifier, f.now())

	if err := f.sessions.Save(ctx, sessionKey, Session{Nonce: nonce, Verifier: verifier}); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", f.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state.Encode())
	q.Set("scope", strings.Join(f.scopes, " "))
	q.Set("code_challenge", state.Challenge)
	q.Set("code_challenge_method", "S256")

	return &BeginResult{
		AuthorizeURL: f.endpoints.AuthorizeURL + "?" + q.Encode(),
		State:        state.Encode(),
	}, nil
}

// ValidateCallback checks the returned state before any code is spent.
// Decode failures fall back to the session copy; expiry, nonce and
// challenge checks all fail closed.
func (f *Flow) ValidateCallback(ctx context.Context, sessionKey, rawState string) (*State, error) {
	session, sessionErr := f.sessions.Get(ctx, sessionKey)

	state, err := DecodeState(rawState)
	if err != nil {
		// Fallback decode path: rebuild the state from the session copy.
		// The session TTL enforces expiry for this path.
		if sessionErr != nil || session == nil {
			return nil, err
		}
		f.logger.Warn("state blob undecodable, using session fallback", "session_key", sessionKey)
		rebuilt := NewState(session.Nonce, session.Verifier, f.now())
		state = &rebuilt
	}

	if state.Expired(f.now()) {
		return nil, ErrStateExpired
	}

	// Anti-CSRF: the nonce must match the copy this server wrote at Begin.
	if sessionErr != nil || session == nil || session.Nonce != state.Nonce {
		return nil, ErrNonceMismatch
	}

	if err := state.VerifyIntegrity(); err != nil {
		return nil, err
	}

	return state, nil
}

// Exchange trades the authorization code plus verifier for tokens.
// Non-2xx responses propagate the provider's error body for diagnostics.
func (f *Flow) Exchange(ctx context.Context, code, verifier, redirectURI string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", f.clientID)
	form.Set("client_secret", f.secret)
	form.Set("redirect_uri", redirectURI)
	form.Set("code_verifier", verifier)

	return f.postToken(ctx, form)
}

// Refresh trades a refresh token for a new access token. It is stateless;
// a failure means the caller must force reconnection.
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", f.clientID)
	form.Set("client_secret", f.secret)

	return f.postToken(ctx, form)
}

func (f *Flow) postToken(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoints.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}
	return &token, nil
}

// FetchIdentity resolves the authenticated identity behind a token.
func (f *Flow) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoints.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("userinfo endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		OrganizationID string `json:"organization_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}

	return &Identity{
		Name:         payload.Name,
		Email:        payload.Email,
		Organization: payload.OrganizationID,
	}, nil
}

// ForgetSession drops the session fallback copy once a flow completed.
func (f *Flow) ForgetSession(ctx context.Context, sessionKey string) error {
	return f.sessions.Delete(ctx, sessionKey)
}

// SetHTTPClient overrides the HTTP client, used by tests.
func (f *Flow) SetHTTPClient(c *http.Client) { f.httpClient = c }

// SetNow overrides the clock, used by tests.
func (f *Flow) SetNow(now func() time.Time) { f.now = now }
