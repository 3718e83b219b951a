package providers

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/azure/sov-mentions-bot/internal/models"
)

const (
	DefaultOpenAIModel = "gpt-4o"

	maxAnswerTokens = 1024
)

// OpenAI asks the OpenAI chat API directly. It only covers the openai provider
// and is used when DataForSEO is not configured.
type OpenAI struct {
	client *openai.Client
	model  string
}

var _ Fetcher = (*OpenAI)(nil)

// NewOpenAI creates a fetcher for apiKey
func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), model), nil
}

// NewOpenAIWithConfig creates a fetcher from a client configuration
func NewOpenAIWithConfig(cfg openai.ClientConfig, model string) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) GetName() string {
	return "openai"
}

func (o *OpenAI) FetchResponses(ctx context.Context, query string) ([]models.ProviderResponse, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: maxAnswerTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	model := resp.Model
	if model == "" {
		model = o.model
	}

	return clean(o.GetName(), []rawResponse{{
		provider: string(models.ProviderOpenAI),
		model:    model,
		text:     resp.Choices[0].Message.Content,
		status:   string(resp.Choices[0].FinishReason),
	}}), nil
}

// Ping lists models to verify the key
func (o *OpenAI) Ping(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return fmt.Errorf("failed to list OpenAI models: %w", err)
	}
	return nil
}
