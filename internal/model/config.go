package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete, immutable configuration handed to the engine at startup
type Config struct {
	Engine       EngineConfig       `yaml:"engine" mapstructure:"engine"`
	Providers    []ProviderConfig   `yaml:"providers" mapstructure:"providers" validate:"dive"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig    `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Authority    AuthorityConfig    `yaml:"authority" mapstructure:"authority"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// EngineConfig controls the aggregation engine
type EngineConfig struct {
	Deadline     time.Duration `yaml:"deadline" mapstructure:"deadline" validate:"gt=0"`           // Global fan-out deadline
	DefaultQuota int           `yaml:"default_quota" mapstructure:"default_quota" validate:"gte=0"` // 0 = every available provider
}

// ProviderConfig configures one verification provider.
// Order in Config.Providers is the declaration order used for weight tie-breaks.
type ProviderConfig struct {
	ID        string             `yaml:"id" mapstructure:"id" validate:"required"`
	Enabled   bool               `yaml:"enabled" mapstructure:"enabled"`
	APIKey    string             `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string             `yaml:"base_url,omitempty" mapstructure:"base_url" validate:"omitempty,url"`
	Model     string             `yaml:"model,omitempty" mapstructure:"model"`
	Timeout   time.Duration      `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	MaxTokens int                `yaml:"max_tokens,omitempty" mapstructure:"max_tokens" validate:"gte=0"`
	Strengths map[Domain]float64 `yaml:"strengths" mapstructure:"strengths" validate:"dive,gte=0,lte=10"`
}

// HTTPConfig holds settings shared by every HTTP-based adapter
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxRetries int    `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=1,lte=10"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the provider response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl" validate:"gte=0"`
	DiskDir   string        `yaml:"disk_dir,omitempty" mapstructure:"disk_dir"` // Empty = memory only
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl" validate:"gte=0"`
}

// RateLimitConfig limits calls per provider
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"` // 0 = unlimited
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=0"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers           int `yaml:"workers" mapstructure:"workers" validate:"gte=0"`
	ValidationWorkers int `yaml:"validation_workers" mapstructure:"validation_workers" validate:"gte=0"`
}

// AuthorityConfig drives source authority classification
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"` // host -> tier
}

// PathPattern maps a URL path regex to an authority tier
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

var configValidate = validator.New()

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if seen[p.ID] {
			return fmt.Errorf("invalid config: duplicate provider id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// Provider returns the configuration of one provider by id
func (c *Config) Provider(id string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// Quota tiers map a subscription level to a provider count
var quotaTiers = map[string]int{
	"free":       2,
	"pro":        4,
	"enterprise": 6,
}

// QuotaForTier returns the provider quota for a named tier
func QuotaForTier(tier string) (int, bool) {
	q, ok := quotaTiers[strings.ToLower(strings.TrimSpace(tier))]
	return q, ok
}

// DefaultConfig returns sensible defaults. Providers start disabled until
// credentials are supplied, except the keyless Wikipedia search.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Deadline:     20 * time.Second,
			DefaultQuota: 4,
		},
		Providers: []ProviderConfig{
			{
				ID:      "openai",
				Model:   "gpt-4o-mini",
				Timeout: 15 * time.Second,
				Strengths: map[Domain]float64{
					DomainMedical: 0.8, DomainScientific: 0.85, DomainHistorical: 0.85,
					DomainTechnical: 0.9, DomainFinancial: 0.75, DomainPolitical: 0.7,
					DomainCurrentEvents: 0.55, DomainSports: 0.7, DomainEntertainment: 0.75,
					DomainGeneral: 0.85,
				},
			},
			{
				ID:      "anthropic",
				Model:   "claude-3-5-sonnet-20241022",
				Timeout: 15 * time.Second,
				Strengths: map[Domain]float64{
					DomainMedical: 0.85, DomainScientific: 0.85, DomainHistorical: 0.85,
					DomainTechnical: 0.9, DomainFinancial: 0.75, DomainPolitical: 0.75,
					DomainCurrentEvents: 0.55, DomainSports: 0.65, DomainEntertainment: 0.7,
					DomainGeneral: 0.85,
				},
			},
			{
				ID:      "google_factcheck",
				Timeout: 10 * time.Second,
				Strengths: map[Domain]float64{
					DomainMedical: 0.8, DomainScientific: 0.7, DomainHistorical: 0.6,
					DomainTechnical: 0.4, DomainFinancial: 0.65, DomainPolitical: 0.95,
					DomainCurrentEvents: 0.9, DomainSports: 0.5, DomainEntertainment: 0.6,
					DomainGeneral: 0.7,
				},
			},
			{
				ID:      "claimbuster",
				Timeout: 10 * time.Second,
				Strengths: map[Domain]float64{
					DomainMedical: 0.6, DomainScientific: 0.6, DomainHistorical: 0.55,
					DomainTechnical: 0.35, DomainFinancial: 0.6, DomainPolitical: 0.9,
					DomainCurrentEvents: 0.8, DomainSports: 0.45, DomainEntertainment: 0.5,
					DomainGeneral: 0.6,
				},
			},
			{
				ID:      "wikipedia",
				Enabled: true,
				BaseURL: "https://en.wikipedia.org",
				Timeout: 10 * time.Second,
				Strengths: map[Domain]float64{
					DomainMedical: 0.6, DomainScientific: 0.75, DomainHistorical: 0.9,
					DomainTechnical: 0.7, DomainFinancial: 0.55, DomainPolitical: 0.6,
					DomainCurrentEvents: 0.4, DomainSports: 0.75, DomainEntertainment: 0.8,
					DomainGeneral: 0.7,
				},
			},
			{
				ID:      "ollama",
				BaseURL: "http://localhost:11434",
				Timeout: 60 * time.Second,
				Strengths: map[Domain]float64{
					DomainMedical: 0.6, DomainScientific: 0.65, DomainHistorical: 0.7,
					DomainTechnical: 0.8, DomainFinancial: 0.55, DomainPolitical: 0.55,
					DomainCurrentEvents: 0.35, DomainSports: 0.5, DomainEntertainment: 0.6,
					DomainGeneral: 0.65,
				},
			},
		},
		HTTP: HTTPConfig{
			UserAgent:  "corroborate/0.1 (+https://github.com/ppiankov/corroborate)",
			MaxRetries: 3,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			ValidationWorkers: 10,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"gov", "doi.org", "nih.gov", "who.int", "cdc.gov", "nature.com",
				"science.org", "thelancet.com", "nejm.org", "arxiv.org", "europa.eu",
			},
			SecondaryDomains: []string{
				"wikipedia.org", "britannica.com", "reuters.com", "apnews.com",
				"bbc.co.uk", "snopes.com", "politifact.com", "factcheck.org",
				"fullfact.org", "afp.com",
			},
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
