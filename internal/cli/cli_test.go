package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/provider"
)

func TestApplyEnvCredentials(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":           "sk-test",
		"GOOGLE_FACTCHECK_API_KEY": " gkey ",
		"OLLAMA_BASE_URL":          "http://gpu-box:11434",
		"OLLAMA_MODEL":             "llama3",
	}
	cfg := model.DefaultConfig()
	cfg.Providers[1].APIKey = "from-file" // anthropic

	applyEnvCredentials(cfg, func(k string) string { return env[k] })

	byID := make(map[string]model.ProviderConfig)
	for _, p := range cfg.Providers {
		byID[p.ID] = p
	}

	if p := byID["openai"]; p.APIKey != "sk-test" || !p.Enabled {
		t.Errorf("Expected openai enabled with env key, got %+v", p)
	}
	if p := byID["google_factcheck"]; p.APIKey != "gkey" || !p.Enabled {
		t.Errorf("Expected trimmed google key, got %+v", p)
	}
	if p := byID["anthropic"]; p.APIKey != "from-file" || p.Enabled {
		t.Errorf("Expected configured anthropic key untouched, got %+v", p)
	}
	if p := byID["claimbuster"]; p.Enabled {
		t.Errorf("Expected claimbuster to stay disabled without a key, got %+v", p)
	}
	if p := byID["ollama"]; p.BaseURL != "http://gpu-box:11434" || p.Model != "llama3" || !p.Enabled {
		t.Errorf("Expected ollama configured from env, got %+v", p)
	}
}

func TestResolveQuota(t *testing.T) {
	cfg := model.DefaultConfig()

	tests := []struct {
		desc     string
		tier     string
		quota    int
		quotaSet bool
		want     int
		wantErr  bool
	}{
		{"default", "", 0, false, cfg.Engine.DefaultQuota, false},
		{"explicit quota", "", 2, true, 2, false},
		{"explicit zero means all", "", 0, true, 0, false},
		{"tier wins", "enterprise", 1, true, 6, false},
		{"tier case-insensitive", "FREE", 0, false, 2, false},
		{"unknown tier", "platinum", 0, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := resolveQuota(cfg, tt.tier, tt.quota, tt.quotaSet)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected quota %d, got %d", tt.want, got)
			}
		})
	}
}

func TestCacheTTL(t *testing.T) {
	c := model.CacheConfig{MemoryTTL: time.Hour, DiskTTL: 24 * time.Hour}
	if got := cacheTTL(c); got != time.Hour {
		t.Errorf("Expected memory TTL without disk, got %v", got)
	}
	c.DiskDir = "/tmp/corroborate"
	if got := cacheTTL(c); got != 24*time.Hour {
		t.Errorf("Expected disk TTL with disk layer, got %v", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Is the Earth flat?", "is-the-earth-flat"},
		{"a/b\\c:d", "a_b_c_d"},
		{"  ", "claim"},
		{"It's \"100%\" true", "its-100%-true"},
		{strings.Repeat("x", 80), strings.Repeat("x", 60)},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey(""); got != "" {
		t.Errorf("Expected empty, got %q", got)
	}
	if got := maskKey("short"); got != "****" {
		t.Errorf("Expected fully masked short key, got %q", got)
	}
	if got := maskKey("sk-abcdefghijkl"); got != "sk-a****ijkl" {
		t.Errorf("Expected partially masked key, got %q", got)
	}
}

func TestDefaultConfigFile(t *testing.T) {
	data, err := defaultConfigFile()
	if err != nil {
		t.Fatalf("defaultConfigFile failed: %v", err)
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Expected valid YAML, got %v", err)
	}
	if len(cfg.Providers) != len(model.DefaultConfig().Providers) {
		t.Errorf("Expected %d providers, got %d", len(model.DefaultConfig().Providers), len(cfg.Providers))
	}
	if !strings.Contains(string(data), "OPENAI_API_KEY") {
		t.Error("Expected credential hints in the generated file")
	}
}

func TestTopDomains(t *testing.T) {
	strengths := map[model.Domain]float64{
		model.DomainMedical:    0.6,
		model.DomainHistorical: 0.9,
		model.DomainSports:     0.9,
		model.DomainGeneral:    0.7,
	}

	got := topDomains(strengths, 3)
	want := "historical 0.90, sports 0.90, general 0.70"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if topDomains(nil, 3) != "" {
		t.Error("Expected empty string for no strengths")
	}
}

func TestPrintProviders(t *testing.T) {
	var buf bytes.Buffer
	statuses := []provider.Status{
		{ID: "wikipedia", Available: true},
		{ID: "openai", Available: false, Reason: "disabled in configuration"},
	}
	descriptors := []model.ProviderDescriptor{
		{ID: "wikipedia", Strengths: map[model.Domain]float64{model.DomainHistorical: 0.9}},
	}

	printProviders(&buf, statuses, descriptors)
	out := buf.String()

	if !strings.Contains(out, "✓ wikipedia") {
		t.Errorf("Expected available wikipedia, got:\n%s", out)
	}
	if !strings.Contains(out, "✗ openai") || !strings.Contains(out, "disabled in configuration") {
		t.Errorf("Expected disabled openai with reason, got:\n%s", out)
	}
	if !strings.Contains(out, "strongest: historical 0.90") {
		t.Errorf("Expected strongest domains, got:\n%s", out)
	}
}
