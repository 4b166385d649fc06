package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// VerifierLength is the PKCE code verifier length in characters.
const VerifierLength = 128

// verifierAlphabet deliberately contains only characters that never require
// percent-encoding. RFC 7636 also allows ".", "_" and "~", but some URL
// encoders in the redirect path encode those and corrupt the verifier in
// transit, so they are excluded.
const verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-"

// NewVerifier generates a cryptographically random PKCE code verifier.
func NewVerifier() (string, error) {
	buf := make([]byte, VerifierLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}

	out := make([]byte, VerifierLength)
	for i, b := range buf {
		out[i] = verifierAlphabet[int(b)%len(verifierAlphabet)]
	}
	return string(out), nil
}

// Challenge computes the S256 code challenge for a verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
