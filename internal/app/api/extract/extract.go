// Package extract wraps the text-generation provider used to pull
// structured CRM entities out of a transcript.
package extract

import "context"

// Raw is the provider's unparsed answer plus token accounting.
type Raw struct {
	JSON             string
	PromptTokens     int
	CompletionTokens int
}

// Client runs the extraction prompt against a text-generation provider and
// returns the raw JSON payload. Parsing is a separate, testable step.
type Client interface {
	Extract(ctx context.Context, transcript string) (*Raw, error)
}
