package services

import (
	"context"
	"errors"
	"log/slog"

	apiErrors "voicepipe/internal/api/errors"
	"voicepipe/internal/api/v1/dto"
	"voicepipe/internal/app/model"
	"voicepipe/internal/app/oauth"
	"voicepipe/internal/app/repository"
)

// OAuthServiceImpl drives CRM connections. Each supported provider has its
// own PKCE flow; credentials are written atomically and tokens never leave
// the server.
type OAuthServiceImpl struct {
	users  repository.UserDAO
	flows  map[string]*oauth.Flow
	logger *slog.Logger
}

// NewOAuthService creates an OAuth service over the given per-provider
// flows.
func NewOAuthService(users repository.UserDAO, flows map[string]*oauth.Flow, logger *slog.Logger) *OAuthServiceImpl {
	return &OAuthServiceImpl{users: users, flows: flows, logger: logger}
}

func (s *OAuthServiceImpl) flow(provider string) (*oauth.Flow, error) {
	f, ok := s.flows[provider]
	if !ok {
		return nil, apiErrors.NewBadRequestError("OAuth provider " + provider + " is not supported")
	}
	return f, nil
}

// sessionKey scopes the server-side flow session to one user and provider,
// so concurrent connection attempts by different users cannot collide.
func sessionKey(user *model.User, provider string) string {
	return user.ID + ":" + provider
}

// Authorize begins a connection attempt and returns the provider redirect
// URL plus the state blob the client must echo back.
func (s *OAuthServiceImpl) Authorize(ctx context.Context, user *model.User, provider string, req *dto.AuthorizeRequest) (*dto.AuthorizeResponse, error) {
	f, err := s.flow(provider)
	if err != nil {
		return nil, err
	}

	begin, err := f.Begin(ctx, sessionKey(user, provider), req.RedirectURI)
	if err != nil {
		s.logger.Error("failed to begin OAuth flow", "provider", provider, "user_id", user.ID, "error", err)
		return nil, apiErrors.NewInternalError("failed to start authorization")
	}

	s.logger.Info("authorization started", "provider", provider, "user_id", user.ID)
	return &dto.AuthorizeResponse{AuthorizeURL: begin.AuthorizeURL, State: begin.State}, nil
}

// Exchange completes a connection attempt. Every integrity check runs
// before the code is spent, and the credential is written in one atomic
// save only after tokens and identity were both obtained. On any failure
// nothing is persisted.
func (s *OAuthServiceImpl) Exchange(ctx context.Context, user *model.User, provider string, req *dto.ExchangeRequest) (*dto.ExchangeResponse, error) {
	f, err := s.flow(provider)
	if err != nil {
		return nil, err
	}

	if req.Error != "" {
		msg := req.Error
		if req.ErrorDescription != "" {
			msg += ": " + req.ErrorDescription
		}
		s.logger.Warn("provider rejected authorization", "provider", provider, "user_id", user.ID, "error", req.Error)
		return nil, apiErrors.NewUnauthorizedError("authorization was rejected by the provider: " + msg)
	}

	state, err := f.ValidateCallback(ctx, sessionKey(user, provider), req.State)
	if err != nil {
		s.logger.Warn("callback validation failed", "provider", provider, "user_id", user.ID, "error", err)
		return nil, mapStateError(err)
	}

	// A verifier echoed by the client must agree with the server's copy.
	if req.CodeVerifier != "" && req.CodeVerifier != state.Verifier {
		s.logger.Warn("client verifier does not match state", "provider", provider, "user_id", user.ID)
		return nil, apiErrors.NewUnauthorizedError("authorization state failed verification")
	}

	token, err := f.Exchange(ctx, req.Code, state.Verifier, req.RedirectURI)
	if err != nil {
		s.logger.Error("token exchange failed", "provider", provider, "user_id", user.ID, "error", err)
		return nil, apiErrors.NewUnauthorizedError("token exchange was rejected by the provider")
	}

	identity, err := f.FetchIdentity(ctx, token.AccessToken)
	if err != nil {
		s.logger.Error("identity lookup failed", "provider", provider, "user_id", user.ID, "error", err)
		return nil, apiErrors.NewServiceUnavailableError("could not resolve the connected identity")
	}

	cred := model.CRMCredential{
		Provider:     provider,
		Connected:    true,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		InstanceURL:  token.InstanceURL,
	}
	if err := s.users.SaveCRMCredential(ctx, user.ID, cred); err != nil {
		s.logger.Error("failed to save credential", "provider", provider, "user_id", user.ID, "error", err)
		return nil, apiErrors.NewInternalError("failed to save the connection")
	}

	if err := f.ForgetSession(ctx, sessionKey(user, provider)); err != nil {
		s.logger.Warn("failed to drop flow session", "provider", provider, "user_id", user.ID, "error", err)
	}

	s.logger.Info("CRM connected", "provider", provider, "user_id", user.ID, "email", identity.Email)
	return &dto.ExchangeResponse{
		Success: true,
		User: &dto.ExchangeUser{
			Name:         identity.Name,
			Email:        identity.Email,
			Organization: identity.Organization,
		},
	}, nil
}

// Refresh replaces the stored access token using the refresh token. A new
// refresh token from the provider supersedes the old one; absence keeps it.
func (s *OAuthServiceImpl) Refresh(ctx context.Context, user *model.User, provider string) error {
	f, err := s.flow(provider)
	if err != nil {
		return err
	}

	if !user.CRM.Connected || user.CRM.Provider != provider {
		return apiErrors.NewBadRequestError("no " + provider + " connection to refresh")
	}
	if user.CRM.RefreshToken == "" {
		return apiErrors.NewUnauthorizedError("connection has no refresh token; reconnect required")
	}

	token, err := f.Refresh(ctx, user.CRM.RefreshToken)
	if err != nil {
		s.logger.Error("token refresh failed", "provider", provider, "user_id", user.ID, "error", err)
		return apiErrors.NewUnauthorizedError("token refresh was rejected; reconnect required")
	}

	cred := user.CRM
	cred.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		cred.RefreshToken = token.RefreshToken
	}
	if token.InstanceURL != "" {
		cred.InstanceURL = token.InstanceURL
	}
	if err := s.users.SaveCRMCredential(ctx, user.ID, cred); err != nil {
		s.logger.Error("failed to save refreshed credential", "provider", provider, "user_id", user.ID, "error", err)
		return apiErrors.NewInternalError("failed to save the refreshed connection")
	}

	s.logger.Info("token refreshed", "provider", provider, "user_id", user.ID)
	return nil
}

// Disconnect drops the stored credential.
func (s *OAuthServiceImpl) Disconnect(ctx context.Context, user *model.User, provider string) error {
	if _, err := s.flow(provider); err != nil {
		return err
	}
	if err := s.users.ClearCRMCredential(ctx, user.ID); err != nil {
		s.logger.Error("failed to clear credential", "provider", provider, "user_id", user.ID, "error", err)
		return apiErrors.NewInternalError("failed to disconnect")
	}
	s.logger.Info("CRM disconnected", "provider", provider, "user_id", user.ID)
	return nil
}

// Connection reports the stored connection state without touching tokens.
func (s *OAuthServiceImpl) Connection(user *model.User, provider string) *dto.ConnectionResponse {
	return &dto.ConnectionResponse{
		Provider:  provider,
		Connected: user.CRM.Connected && user.CRM.Provider == provider,
	}
}

// mapStateError turns flow sentinel errors into client-facing errors
// without leaking internals. All integrity failures fail closed.
func mapStateError(err error) error {
	switch {
	case errors.Is(err, oauth.ErrStateExpired):
		return apiErrors.NewUnauthorizedError("authorization attempt expired; start over")
	case errors.Is(err, oauth.ErrStateInvalid),
		errors.Is(err, oauth.ErrNonceMismatch),
		errors.Is(err, oauth.ErrChallengeMismatch):
		return apiErrors.NewUnauthorizedError("authorization state failed verification")
	default:
		return apiErrors.NewInternalError("failed to validate authorization state")
	}
}
