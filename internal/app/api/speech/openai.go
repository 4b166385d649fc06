package speech

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// WhisperCostPerMinute is the provider's published audio pricing, used for
// the per-transcript cost estimate.
const WhisperCostPerMinute = 0.006

// OpenAIClient transcribes audio through the OpenAI audio API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a speech client with an injected API key. An empty
// model selects whisper-1.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Transcribe submits the audio file and returns the transcript. The verbose
// response format carries the provider-measured duration.
func (c *OpenAIClient) Transcribe(ctx context.Context, filePath, language string) (*Result, error) {
	req := openai.AudioRequest{
		Model:    c.model,
		FilePath: filePath,
		Language: language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	resp, err := c.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create transcription: %w", err)
	}

	return &Result{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}

// CostEstimate converts audio duration to a provider cost in dollars.
func CostEstimate(durationSeconds float64) float64 {
	return durationSeconds / 60.0 * WhisperCostPerMinute
}
