package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/corroborate/internal/model"
)

// credentialEnv maps provider ids to the environment variable holding their key
var credentialEnv = map[string]string{
	"openai":           "OPENAI_API_KEY",
	"anthropic":        "ANTHROPIC_API_KEY",
	"google_factcheck": "GOOGLE_FACTCHECK_API_KEY",
	"claimbuster":      "CLAIMBUSTER_API_KEY",
}

// loadConfig merges defaults, the config file, CORROBORATE_* variables and
// provider credentials from the environment, then validates the result
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvCredentials(cfg, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvCredentials fills provider keys from the environment. A provider
// whose key is present is enabled unless the key was already configured.
func applyEnvCredentials(cfg *model.Config, getenv func(string) string) {
	for i := range cfg.Providers {
		p := &cfg.Providers[i]

		if p.ID == "ollama" {
			if baseURL := strings.TrimSpace(getenv("OLLAMA_BASE_URL")); baseURL != "" {
				p.BaseURL = baseURL
				p.Enabled = true
			}
			if m := strings.TrimSpace(getenv("OLLAMA_MODEL")); m != "" {
				p.Model = m
			}
			continue
		}

		name, ok := credentialEnv[p.ID]
		if !ok || p.APIKey != "" {
			continue
		}
		if key := strings.TrimSpace(getenv(name)); key != "" {
			p.APIKey = key
			p.Enabled = true
		}
	}
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Corroborate configuration",
	Long: `Manage Corroborate configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (CORROBORATE_*, provider API keys, .env file)
3. Config file (~/.corroborate/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file, env vars and flags. API keys are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		configFile := viper.ConfigFileUsed()
		if configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		for i := range cfg.Providers {
			cfg.Providers[i].APIKey = maskKey(cfg.Providers[i].APIKey)
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Current Configuration")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		fmt.Println(string(yamlData))

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (CORROBORATE_*, OPENAI_API_KEY, ANTHROPIC_API_KEY,")
		fmt.Println("     GOOGLE_FACTCHECK_API_KEY, CLAIMBUSTER_API_KEY, OLLAMA_BASE_URL)")
		fmt.Println("  3. Config file (~/.corroborate/config.yaml)")
		fmt.Println("  4. Defaults")
		fmt.Println()

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.corroborate/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := filepath.Join(home, ".corroborate")
		configPath := filepath.Join(configDir, "config.yaml")

		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'corroborate config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		data, err := defaultConfigFile()
		if err != nil {
			return err
		}

		if err := os.WriteFile(configPath, data, 0600); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  corroborate config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
		fmt.Printf("  $EDITOR %s\n", configPath)
		fmt.Printf("\n")

		return nil
	},
}

// defaultConfigFile renders the documented default configuration
func defaultConfigFile() ([]byte, error) {
	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("error marshaling config: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Corroborate Configuration File\n")
	b.WriteString("# See https://github.com/ppiankov/corroborate for full documentation\n")
	b.WriteString("#\n")
	b.WriteString("# Configuration hierarchy (highest to lowest priority):\n")
	b.WriteString("#   1. CLI flags\n")
	b.WriteString("#   2. Environment variables (CORROBORATE_*)\n")
	b.WriteString("#   3. This config file\n")
	b.WriteString("#   4. Built-in defaults\n\n")
	b.Write(yamlData)
	b.WriteString("\n# API Keys (recommended to use environment variables or a .env file instead):\n")
	b.WriteString("#   export OPENAI_API_KEY=sk-...\n")
	b.WriteString("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
	b.WriteString("#   export GOOGLE_FACTCHECK_API_KEY=...\n")
	b.WriteString("#   export CLAIMBUSTER_API_KEY=...\n")
	b.WriteString("#   export OLLAMA_BASE_URL=http://localhost:11434\n")
	return []byte(b.String()), nil
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
