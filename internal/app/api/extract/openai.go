package extract

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Published per-token pricing for the default extraction model, used for
// cost estimates only.
const (
	promptCostPerToken     = 0.15 / 1_000_000
	completionCostPerToken = 0.60 / 1_000_000
)

// OpenAIClient runs extraction through the chat completion API in
// JSON-object mode at low temperature.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an extraction client with an injected API key. An
// empty model selects gpt-4o-mini.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Extract submits the transcript and returns the provider's JSON answer.
func (c *OpenAIClient) Extract(ctx context.Context, transcript string) (*Raw, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(transcript)},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction returned no choices")
	}

	return &Raw{
		JSON:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// CostEstimate converts token usage to a provider cost in dollars.
func CostEstimate(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)*promptCostPerToken + float64(completionTokens)*completionCostPerToken
}
