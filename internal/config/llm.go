package config

import (
	"fmt"
	"time"
)

// Generation providers.
const (
	ProviderAuto    = "auto"    // gemini when an API key is present, offline otherwise
	ProviderGemini  = "gemini"  // Google Gemini via google.golang.org/genai
	ProviderOffline = "offline" // deterministic local generator
)

// ValidProviders lists all supported generation providers.
var ValidProviders = []string{ProviderAuto, ProviderGemini, ProviderOffline}

// LLMConfig configures the generation backend.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	ThinkingBudget int    `yaml:"thinking_budget"`
	GoogleSearch   bool   `yaml:"google_search"` // ground answers with the search tool
	Timeout        string `yaml:"timeout"`
}

// GetTimeout returns the generation timeout as a duration.
func (c LLMConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 120*time.Second)
}

// ResolvedProvider collapses "auto" into a concrete provider.
func (c LLMConfig) ResolvedProvider() string {
	if c.Provider == "" || c.Provider == ProviderAuto {
		if c.APIKey != "" {
			return ProviderGemini
		}
		return ProviderOffline
	}
	return c.Provider
}

// Validate validates the LLM section.
func (c LLMConfig) Validate() error {
	valid := c.Provider == ""
	for _, p := range ValidProviders {
		if c.Provider == p {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.Provider, ValidProviders)
	}
	if c.Provider == ProviderGemini && c.APIKey == "" {
		return fmt.Errorf("gemini provider requires an API key (set GEMINI_API_KEY or llm.api_key)")
	}
	if c.ThinkingBudget < 0 {
		return fmt.Errorf("thinking_budget must be >= 0, got %d", c.ThinkingBudget)
	}
	return nil
}
