// Package speech wraps the speech-to-text provider behind a small client
// interface so the transcription stage can be tested without network access.
package speech

import "context"

// MaxAudioBytes is the provider's audio size ceiling. Files above it are
// rejected before any upload is attempted.
const MaxAudioBytes = 25 << 20

// Result is the provider's answer for one audio file.
type Result struct {
	Text     string
	Language string
	// Duration is the audio length in seconds as measured by the provider.
	Duration float64
}

// Client submits audio and returns its transcript.
type Client interface {
	Transcribe(ctx context.Context, filePath, language string) (*Result, error)
}
