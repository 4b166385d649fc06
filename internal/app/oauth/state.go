package oauth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StateTTL bounds the lifetime of one authorization attempt.
const StateTTL = 10 * time.Minute

// Integrity failures are a security boundary: callers must fail closed,
// never fall through to the token endpoint.
var (
	ErrStateInvalid      = errors.New("authorization state is not decodable")
	ErrStateExpired      = errors.New("authorization state has expired")
	ErrNonceMismatch     = errors.New("authorization state nonce does not match session")
	ErrChallengeMismatch = errors.New("code verifier does not match embedded challenge")
)

// State is the opaque blob round-tripped through the provider's `state`
// parameter. Carrying the verifier here is what lets it survive the
// cross-origin redirect: browser-local storage is not guaranteed to survive
// that redirect, while the provider is required to echo `state` back
// unchanged.
type State struct {
	Nonce     string `json:"nonce"`
	Verifier  string `json:"verifier"`
	Challenge string `json:"challenge"`
	Timestamp int64  `json:"timestamp"`
}

// NewState bundles a fresh nonce and verifier with the current time.
func NewState(nonce, verifier string, now time.Time) State {
	return State{
		Nonce:     nonce,
		Verifier:  verifier,
		Challenge: Challenge(verifier),
		Timestamp: now.Unix(),
	}
}

// Encode serializes the state as base64url JSON.
func (s State) Encode() string {
	b, _ := json.Marshal(s)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeState parses an encoded state blob.
func DecodeState(raw string) (*State, error) {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		// Some user agents re-pad the parameter.
		b, err = base64.URLEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStateInvalid, err)
		}
	}

	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateInvalid, err)
	}
	if s.Nonce == "" || s.Verifier == "" || s.Challenge == "" {
		return nil, ErrStateInvalid
	}
	return &s, nil
}

// Expired reports whether the authorization attempt is older than StateTTL.
func (s *State) Expired(now time.Time) bool {
	return now.Sub(time.Unix(s.Timestamp, 0)) > StateTTL
}

// VerifyIntegrity recomputes the challenge from the embedded verifier and
// compares it against the embedded challenge. A mismatch means the verifier
// was corrupted (or tampered with) in transit and the authorization code
// must not be spent.
func (s *State) VerifyIntegrity() error {
	if Challenge(s.Verifier) != s.Challenge {
		return ErrChallengeMismatch
	}
	return nil
}
