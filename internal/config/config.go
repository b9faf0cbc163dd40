package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"charmstudio/internal/charm"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the studio looks for its config, relative to the
// working directory.
const DefaultPath = ".studio/config.yaml"

// Config holds all studio configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Generation backend
	LLM LLMConfig `yaml:"llm"`

	// Phase timing
	Phases PhaseConfig `yaml:"phases"`

	// Funding wallet shown in the UI and used as charm owner
	Wallet charm.Wallet `yaml:"wallet"`

	// HTTP API
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "Charms Studio",
		Version: "0.4.0",

		LLM: LLMConfig{
			Provider:       ProviderAuto,
			Model:          "gemini-3-pro-preview",
			ThinkingBudget: 4000,
			GoogleSearch:   true,
			Timeout:        "120s",
		},

		Phases: PhaseConfig{
			ProveStepDelay: "600ms",
			BroadcastDelay: "1200ms",
			BeamStepDelay:  "800ms",
		},

		Wallet: charm.DefaultWallet(),

		Server: ServerConfig{
			Addr:            ":8088",
			ShutdownTimeout: "10s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults if the file doesn't exist
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// GEMINI_API_KEY wins over API_KEY when both are set.
	if key := os.Getenv("API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if p := os.Getenv("STUDIO_LLM_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}
	if m := os.Getenv("STUDIO_LLM_MODEL"); m != "" {
		c.LLM.Model = m
	}
	if addr := os.Getenv("STUDIO_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// GetShutdownTimeout returns the server shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Phases.Validate(); err != nil {
		return err
	}
	if c.Wallet.ChangeAddress == "" {
		return fmt.Errorf("wallet change_address is required")
	}
	return nil
}

// parseDuration parses s, falling back to def when s is empty or malformed.
func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
