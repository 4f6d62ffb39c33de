package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// OllamaVerifier implements the Verifier interface for Ollama local models
type OllamaVerifier struct {
	baseURL string
	client  *httpClient
	config  Config
}

// Ollama API structures
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`

	// Token counts (only present when done=true)
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaVerifier creates a new Ollama verifier. No key is needed, but a
// model must be named since local installations differ.
func NewOllamaVerifier(config Config) (*OllamaVerifier, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &OllamaVerifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(config),
		config:  config,
	}, nil
}

// Name returns the provider id
func (p *OllamaVerifier) Name() string {
	return "ollama"
}

// IsAvailable checks if Ollama is running by listing local models
func (p *OllamaVerifier) IsAvailable(ctx context.Context) bool {
	url := fmt.Sprintf("%s/api/tags", p.baseURL)
	_, err := p.client.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	return err == nil
}

// CheckFact asks a local model for a JSON verdict
func (p *OllamaVerifier) CheckFact(ctx context.Context, statement string) (*Response, error) {
	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 800
	}

	apiReq := ollamaRequest{
		Model:  p.config.Model,
		Prompt: BuildPrompt(statement),
		Stream: false, // Get complete response at once
		System: SystemPrompt,
		Format: "json",
		Options: ollamaOptions{
			Temperature: 0.2,
			NumPredict:  maxTokens,
		},
	}

	resp, err := p.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	result, err := ParseVerdictJSON(resp.Response)
	if err != nil {
		return nil, fmt.Errorf("parse ollama response: %w", err)
	}

	result.Model = resp.Model
	result.TokensUsed = resp.PromptEvalCount + resp.EvalCount

	return result, nil
}

// makeRequest makes an HTTP request to the Ollama API
func (p *OllamaVerifier) makeRequest(ctx context.Context, apiReq ollamaRequest) (*ollamaResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", p.baseURL)
	respBody, err := p.client.do(ctx, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			var apiErr ollamaError
			if jsonErr := json.Unmarshal([]byte(statusErr.Body), &apiErr); jsonErr == nil && apiErr.Error != "" {
				return nil, fmt.Errorf("API error (%d): %s", statusErr.Code, apiErr.Error)
			}
		}
		return nil, err
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}
