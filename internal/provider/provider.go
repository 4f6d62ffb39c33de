package provider

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
)

var (
	// ErrMissingAPIKey is returned when a keyed provider is built without credentials
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrNoEvidence is returned when a provider found nothing to judge the claim by
	ErrNoEvidence = errors.New("no evidence found for claim")
)

// Verifier defines the interface for verification providers
type Verifier interface {
	// Name returns the provider id
	Name() string

	// CheckFact judges a declarative statement. It returns an error instead
	// of a guessed answer when it cannot produce a real verdict.
	CheckFact(ctx context.Context, statement string) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Response is one provider's answer to a claim
type Response struct {
	// Verdict is true when the provider judges the statement to be accurate
	Verdict bool `json:"verdict"`

	// Confidence is the provider's own certainty, 0..1
	Confidence float64 `json:"confidence"`

	Explanation string         `json:"explanation"`
	Context     string         `json:"context,omitempty"`
	Sources     []model.Source `json:"sources,omitempty"`

	// Model is the model or API version that answered
	Model string `json:"model,omitempty"`

	// TokensUsed tracks token consumption for LLM providers
	TokensUsed int `json:"tokens_used,omitempty"`
}

// Config holds provider configuration
type Config struct {
	// ID is the provider id: "openai", "anthropic", "ollama", "google_factcheck",
	// "claimbuster", "wikipedia"
	ID string

	// Model name (provider-specific)
	Model string

	// APIKey for keyed providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, test servers)
	BaseURL string

	// Timeout for one API request
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// MaxRetries bounds attempts on transient HTTP failures
	MaxRetries int

	UserAgent string

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:    30 * time.Second,
		MaxTokens:  800,
		MaxRetries: 3,
		UserAgent:  "corroborate/0.1 (+https://github.com/ppiankov/corroborate)",
	}
}

// ConfigFromModel converts the file configuration of one provider
func ConfigFromModel(pc model.ProviderConfig, hc model.HTTPConfig) Config {
	cfg := DefaultConfig()
	cfg.ID = pc.ID
	cfg.Model = pc.Model
	cfg.APIKey = pc.APIKey
	cfg.BaseURL = pc.BaseURL
	if pc.Timeout > 0 {
		cfg.Timeout = pc.Timeout
	}
	if pc.MaxTokens > 0 {
		cfg.MaxTokens = pc.MaxTokens
	}
	if hc.MaxRetries > 0 {
		cfg.MaxRetries = hc.MaxRetries
	}
	if hc.UserAgent != "" {
		cfg.UserAgent = hc.UserAgent
	}
	cfg.HTTPProxy = hc.HTTPProxy
	cfg.HTTPSProxy = hc.HTTPSProxy
	cfg.NoProxy = hc.NoProxy
	return cfg
}
