package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIVerifier implements the Verifier interface for OpenAI chat models
type OpenAIVerifier struct {
	client *openai.Client
	config Config
}

// NewOpenAIVerifier creates a new OpenAI verifier
func NewOpenAIVerifier(config Config) (*OpenAIVerifier, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(config).client

	return &OpenAIVerifier{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider id
func (p *OpenAIVerifier) Name() string {
	return "openai"
}

// IsAvailable checks the key with a lightweight model listing
func (p *OpenAIVerifier) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// CheckFact asks a chat model for a JSON verdict
func (p *OpenAIVerifier) CheckFact(ctx context.Context, statement string) (*Response, error) {
	model := p.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 800
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(statement),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	result, err := ParseVerdictJSON(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, fmt.Errorf("parse OpenAI response: %w", err)
	}

	result.Model = resp.Model
	if result.Model == "" {
		result.Model = model
	}
	result.TokensUsed = resp.Usage.TotalTokens

	return result, nil
}
