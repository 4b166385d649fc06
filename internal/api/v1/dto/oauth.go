package dto

import (
	"voicepipe/internal/api/errors"
)

// AuthorizeRequest starts an OAuth authorization flow.
type AuthorizeRequest struct {
	RedirectURI string `json:"redirectUri" binding:"required"`
}

// Validate performs domain-specific validation.
func (r *AuthorizeRequest) Validate() error {
	if r.RedirectURI == "" {
		return errors.NewValidationError("Invalid authorize request", map[string]string{
			"redirectUri": "redirect uri is required",
		})
	}
	return nil
}

// AuthorizeResponse carries the provider authorize URL and the opaque
// state blob the client must echo back after the redirect.
type AuthorizeResponse struct {
	AuthorizeURL string `json:"authorizeUrl"`
	State        string `json:"state"`
}

// ExchangeRequest completes an OAuth flow with the code returned by the
// provider redirect. Error and ErrorDescription carry a provider-side
// rejection forwarded from the callback query string.
type ExchangeRequest struct {
	Code             string `json:"code"`
	State            string `json:"state"`
	CodeVerifier     string `json:"codeVerifier,omitempty"`
	RedirectURI      string `json:"redirectUri"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"errorDescription,omitempty"`
}

// Validate performs domain-specific validation. A provider rejection is
// a valid exchange payload on its own; otherwise code, state and the
// redirect uri are all required.
func (r *ExchangeRequest) Validate() error {
	if r.Error != "" {
		return nil
	}

	validationErrors := make(map[string]string)
	if r.Code == "" {
		validationErrors["code"] = "authorization code is required"
	}
	if r.State == "" {
		validationErrors["state"] = "state is required"
	}
	if r.RedirectURI == "" {
		validationErrors["redirectUri"] = "redirect uri is required"
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Invalid exchange request", validationErrors)
	}
	return nil
}

// ExchangeUser is the connected identity returned to the client.
type ExchangeUser struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization,omitempty"`
}

// ExchangeResponse reports a completed connection. Tokens never appear
// here.
type ExchangeResponse struct {
	Success bool          `json:"success"`
	User    *ExchangeUser `json:"user,omitempty"`
}

// ConnectionResponse reports the stored connection state for a provider.
type ConnectionResponse struct {
	Provider  string `json:"provider"`
	Connected bool   `json:"connected"`
}
